package tutor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sambhav874/tuition-teacher/internal/attachment"
	"github.com/sambhav874/tuition-teacher/internal/domain"
	"github.com/sambhav874/tuition-teacher/internal/llm"
	"github.com/sambhav874/tuition-teacher/internal/normalize"
	"github.com/sambhav874/tuition-teacher/internal/prompt"
)

const apologyPrefix = "Sorry, I had trouble connecting to my brain! 🧠\n\nError: "

// TurnRequest is one learner message.
type TurnRequest struct {
	// SessionID may be empty, in which case a new session is created.
	SessionID   string
	Content     string
	Attachments []string
	Mode        domain.Mode
	RequestID   string
}

// TurnResult holds the messages appended by a turn.
type TurnResult struct {
	SessionID   string          `json:"sessionId"`
	UserMessage domain.Message  `json:"userMessage"`
	Reply       *domain.Message `json:"reply,omitempty"`
	Stage       normalize.Stage `json:"parseStage,omitempty"`
}

// Turn appends the learner's message, asks the model for a reply and appends
// the normalized reply. Model failures become an apology message rather than
// an error; errors are returned only for invalid input and persistence.
func (s *Service) Turn(ctx context.Context, userID string, req TurnRequest) (*TurnResult, error) {
	if strings.TrimSpace(req.Content) == "" && len(req.Attachments) == 0 {
		return nil, ErrEmptyTurn
	}
	mode := domain.ParseMode(string(req.Mode))

	prepared := make([]attachment.Attachment, 0, len(req.Attachments))
	stored := make([]string, 0, len(req.Attachments))
	for _, uri := range req.Attachments {
		att, err := s.compressor.Prepare(uri)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedAttachment, err)
		}
		prepared = append(prepared, att)
		stored = append(stored, att.DataURI())
	}

	us, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = us.store.CreateSession()
	}
	sess, ok := us.store.Session(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	history := buildHistory(sess.Messages)

	userMsg, ok := us.store.AddMessage(sessionID, domain.MessageDraft{
		Role:        domain.RoleUser,
		Content:     req.Content,
		Attachments: stored,
	})
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := s.persist(ctx, userID, us); err != nil {
		return nil, err
	}
	s.publishSession(userID, us, sessionID)
	s.logTurnEvent(userID, sessionID, mode, "inbound", "chat_user_message", req.Content, map[string]any{
		"request_id":  req.RequestID,
		"attachments": len(stored),
	})

	result := &TurnResult{SessionID: sessionID, UserMessage: userMsg}

	draft := s.reply(ctx, userID, sessionID, mode, us, history, req.Content, prepared, result)

	reply, ok := us.store.AddMessage(sessionID, draft)
	if !ok {
		// Session was deleted while the model was answering.
		s.logger.Warn("session removed during turn, dropping reply", "user_id", userID, "session_id", sessionID)
		return result, nil
	}
	result.Reply = &reply

	// The reply is already in memory; a failed save is retried by the next mutation.
	if err := s.persist(context.WithoutCancel(ctx), userID, us); err != nil {
		s.logger.Error("failed to persist reply", "error", err, "user_id", userID, "session_id", sessionID)
	}
	s.publishSession(userID, us, sessionID)
	s.logTurnEvent(userID, sessionID, mode, "outbound", "chat_assistant_message", reply.Content, map[string]any{
		"request_id":  req.RequestID,
		"parse_stage": string(result.Stage),
	})

	return result, nil
}

// reply produces the agent message draft. Model output that normalizes to
// nothing displayable is shown as raw text.
func (s *Service) reply(
	ctx context.Context,
	userID, sessionID string,
	mode domain.Mode,
	us *userState,
	history []llm.Turn,
	content string,
	atts []attachment.Attachment,
	result *TurnResult,
) domain.MessageDraft {
	if s.generator == nil {
		return domain.MessageDraft{Role: domain.RoleAgent, Content: s.missingKey}
	}

	name, grade := us.store.Profile()
	started := time.Now()
	raw, err := s.generator.Generate(ctx, llm.Request{
		System:      prompt.System(mode, prompt.Profile{Name: name, Grade: grade}),
		History:     history,
		Prompt:      content,
		Attachments: atts,
		Mode:        mode,
	})
	if err != nil {
		s.logger.Error("model generation failed",
			"error", err,
			"user_id", userID,
			"session_id", sessionID,
			"mode", mode,
			"model", s.generator.Model())
		return domain.MessageDraft{Role: domain.RoleAgent, Content: apologyPrefix + err.Error()}
	}
	s.logger.Info("model reply received",
		"user_id", userID,
		"session_id", sessionID,
		"mode", mode,
		"length", len(raw),
		"duration", time.Since(started))

	normalized := s.normalizer.Normalize(ctx, raw, mode)
	result.Stage = normalized.Stage
	return domain.MessageDraft{
		Role:     domain.RoleAgent,
		Content:  normalized.Content,
		Metadata: normalized.Metadata,
	}
}

// buildHistory maps prior messages to model turns. Only text is carried.
func buildHistory(messages []domain.Message) []llm.Turn {
	history := make([]llm.Turn, 0, len(messages))
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		history = append(history, llm.Turn{Role: m.Role, Text: m.Content})
	}
	return history
}

func (s *Service) logTurnEvent(userID, sessionID string, mode domain.Mode, direction, eventType, content string, meta map[string]any) {
	s.convLog.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		UserID:     userID,
		SessionID:  sessionID,
		Channel:    "chat_http",
		Direction:  direction,
		EventType:  eventType,
		Mode:       string(mode),
		ContentRaw: content,
		Content:    cleanForReadability(content),
		Meta:       meta,
	})
}
