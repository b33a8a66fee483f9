package domain

import (
	"strings"
	"time"
)

// DefaultSessionTitle is the title of a session before its first user message.
const DefaultSessionTitle = "New Chat"

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks learner-authored messages.
	RoleUser Role = "user"
	// RoleAgent marks tutor replies.
	RoleAgent Role = "agent"
)

// Mode selects the system prompt and output shape for a turn.
type Mode string

const (
	ModeStandard     Mode = "standard"
	ModeEnglishTutor Mode = "english-tutor"
	ModeMockTest     Mode = "mock-test"
	ModeNotes        Mode = "notes"
)

// ParseMode maps a request value to a Mode. Unknown values become ModeStandard.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeEnglishTutor:
		return ModeEnglishTutor
	case ModeMockTest:
		return ModeMockTest
	case ModeNotes:
		return ModeNotes
	default:
		return ModeStandard
	}
}

// Message is a single chat entry. Messages are never modified after they are
// appended to a session.
type Message struct {
	ID          string           `json:"id"`
	Role        Role             `json:"role"`
	Content     string           `json:"content"`
	Attachments []string         `json:"attachments,omitempty"`
	Timestamp   int64            `json:"timestamp"`
	Metadata    *MessageMetadata `json:"metadata,omitempty"`
}

// Time returns the message timestamp as a time.Time.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// MessageDraft is the caller-supplied part of a message; the store assigns
// the ID and timestamp.
type MessageDraft struct {
	Role        Role
	Content     string
	Attachments []string
	Metadata    *MessageMetadata
}

// Session is one conversation thread.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// Clone returns a copy that shares no slices with s.
func (s Session) Clone() Session {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m.Clone()
	}
	return out
}

// Clone returns a copy of m that shares no slices with it.
func (m Message) Clone() Message {
	out := m
	if m.Attachments != nil {
		out.Attachments = append([]string(nil), m.Attachments...)
	}
	if m.Metadata != nil {
		md := m.Metadata.Clone()
		out.Metadata = &md
	}
	return out
}

// AppState is everything persisted for one learner.
type AppState struct {
	Sessions         []Session `json:"sessions"`
	CurrentSessionID *string   `json:"currentSessionId"`
	UserName         string    `json:"userName"`
	UserGrade        string    `json:"userGrade"`
}

// NewAppState returns an empty state with no active session.
func NewAppState() AppState {
	return AppState{Sessions: []Session{}}
}

// Clone returns a deep copy of the state.
func (a AppState) Clone() AppState {
	out := a
	out.Sessions = make([]Session, len(a.Sessions))
	for i, s := range a.Sessions {
		out.Sessions[i] = s.Clone()
	}
	if a.CurrentSessionID != nil {
		id := *a.CurrentSessionID
		out.CurrentSessionID = &id
	}
	return out
}

// SessionSummary is a message-free view of a session for listings.
type SessionSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
	MessageCount int    `json:"messageCount"`
}

// Summary returns the listing view of s.
func (s Session) Summary() SessionSummary {
	return SessionSummary{
		ID:           s.ID,
		Title:        s.Title,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		MessageCount: len(s.Messages),
	}
}
