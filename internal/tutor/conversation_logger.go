package tutor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ConversationLogConfig controls NDJSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// ConversationLogEvent is one line in a per-session conversation log.
type ConversationLogEvent struct {
	Timestamp  string         `json:"ts"`
	UserID     string         `json:"user_id"`
	SessionID  string         `json:"session_id"`
	Channel    string         `json:"channel"`
	Direction  string         `json:"direction"`
	EventType  string         `json:"event_type"`
	Mode       string         `json:"mode,omitempty"`
	ContentRaw string         `json:"content_raw"`
	Content    string         `json:"content"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// ConversationLogger records tutoring exchanges.
type ConversationLogger interface {
	Log(event ConversationLogEvent)
	Close() error
}

type noopConversationLogger struct{}

func (noopConversationLogger) Log(ConversationLogEvent) {}
func (noopConversationLogger) Close() error            { return nil }

// fileConversationLogger appends events to <dir>/<user>/<session>.ndjson
// from a single writer goroutine.
type fileConversationLogger struct {
	dir    string
	queue  chan ConversationLogEvent
	logger *slog.Logger
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

// NewConversationLogger returns a logger for cfg. A disabled config yields a
// logger that discards events.
func NewConversationLogger(cfg ConversationLogConfig, logger *slog.Logger) (ConversationLogger, error) {
	if !cfg.Enabled {
		return noopConversationLogger{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create conversation log dir: %w", err)
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}

	l := &fileConversationLogger{
		dir:    cfg.Dir,
		queue:  make(chan ConversationLogEvent, queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Log enqueues event without blocking. Events are dropped when the queue is full.
func (l *fileConversationLogger) Log(event ConversationLogEvent) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if event.Content == "" {
		event.Content = cleanForReadability(event.ContentRaw)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- event:
	default:
		l.logger.Warn("conversation log queue full, dropping event",
			"user_id", event.UserID,
			"session_id", event.SessionID,
			"event_type", event.EventType)
	}
}

// Close drains pending events and stops the writer.
func (l *fileConversationLogger) Close() error {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.queue)
		l.mu.Unlock()
	})
	<-l.done
	return nil
}

func (l *fileConversationLogger) run() {
	defer close(l.done)
	for event := range l.queue {
		if err := l.write(event); err != nil {
			l.logger.Warn("failed to write conversation log",
				"error", err,
				"user_id", event.UserID,
				"session_id", event.SessionID)
		}
	}
}

func (l *fileConversationLogger) write(event ConversationLogEvent) error {
	userDir := filepath.Join(l.dir, safePathSegment(event.UserID, "unknown-user"))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return fmt.Errorf("create user log dir: %w", err)
	}
	path := filepath.Join(userDir, safePathSegment(event.SessionID, "default")+".ndjson")

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("append log line: %w", err)
	}
	return f.Close()
}

var (
	ansiPattern     = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
	unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// cleanForReadability strips terminal escapes and collapses blank runs.
func cleanForReadability(raw string) string {
	s := ansiPattern.ReplaceAllString(raw, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func safePathSegment(s, fallback string) string {
	s = unsafePathChars.ReplaceAllString(strings.TrimSpace(s), "_")
	s = strings.Trim(s, ".")
	if s == "" {
		return fallback
	}
	return s
}
