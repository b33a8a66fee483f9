// Package tutor runs tutoring turns against a learner's persisted sessions.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sambhav874/tuition-teacher/internal/attachment"
	"github.com/sambhav874/tuition-teacher/internal/domain"
	"github.com/sambhav874/tuition-teacher/internal/llm"
	"github.com/sambhav874/tuition-teacher/internal/normalize"
	"github.com/sambhav874/tuition-teacher/internal/session"
	"github.com/sambhav874/tuition-teacher/internal/store"
)

var (
	// ErrEmptyTurn is returned for turns with neither text nor attachments.
	ErrEmptyTurn = errors.New("message has no content or attachments")
	// ErrUnsupportedAttachment wraps attachment validation failures.
	ErrUnsupportedAttachment = errors.New("unsupported attachment")
	// ErrSessionNotFound is returned when a turn names an unknown session.
	ErrSessionNotFound = errors.New("session not found")
)

// DefaultMissingKeyMessage is shown in place of a reply when no model is configured.
const DefaultMissingKeyMessage = "⚠️ **Missing API Key**: Please add your `GOOGLE_API_KEY` to `.env`."

// Options configures a Service. Every field is optional.
type Options struct {
	// Generator produces replies. A nil Generator means no API key is configured.
	Generator   llm.Generator
	Illustrator normalize.Illustrator
	Compressor  attachment.Compressor
	Publisher   Publisher
	ConvLog     ConversationLogger
	Logger      *slog.Logger
	// MissingKeyMessage overrides DefaultMissingKeyMessage.
	MissingKeyMessage string
	SessionOptions    []session.Option
}

// Service owns the per-user session stores and persists them after every mutation.
type Service struct {
	repo       store.Repository
	generator  llm.Generator
	normalizer *normalize.Normalizer
	compressor attachment.Compressor
	publisher  Publisher
	convLog    ConversationLogger
	logger     *slog.Logger
	missingKey string
	storeOpts  []session.Option

	mu    sync.Mutex
	users map[string]*userState
}

type userState struct {
	store *session.Store
	// persistMu orders snapshots so an older state never overwrites a newer one.
	persistMu sync.Mutex
	// forgotten is set under persistMu once the persisted state was removed.
	forgotten bool
}

// NewService creates a Service backed by repo.
func NewService(repo store.Repository, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Publisher == nil {
		opts.Publisher = noopPublisher{}
	}
	if opts.ConvLog == nil {
		opts.ConvLog = noopConversationLogger{}
	}
	if opts.Compressor == (attachment.Compressor{}) {
		opts.Compressor = attachment.DefaultCompressor()
	}
	if opts.MissingKeyMessage == "" {
		opts.MissingKeyMessage = DefaultMissingKeyMessage
	}
	return &Service{
		repo:       repo,
		generator:  opts.Generator,
		normalizer: normalize.New(opts.Illustrator, opts.Logger),
		compressor: opts.Compressor,
		publisher:  opts.Publisher,
		convLog:    opts.ConvLog,
		logger:     opts.Logger,
		missingKey: opts.MissingKeyMessage,
		storeOpts:  opts.SessionOptions,
		users:      make(map[string]*userState),
	}
}

// AIEnabled reports whether a model is configured.
func (s *Service) AIEnabled() bool {
	return s.generator != nil
}

// Model returns the configured model identifier, or "" when AI is disabled.
func (s *Service) Model() string {
	if s.generator == nil {
		return ""
	}
	return s.generator.Model()
}

func (s *Service) user(ctx context.Context, userID string) (*userState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if us, ok := s.users[userID]; ok {
		return us, nil
	}

	state, err := s.repo.LoadState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if state == nil {
		fresh := domain.NewAppState()
		state = &fresh
	}
	us := &userState{store: session.New(*state, s.storeOpts...)}
	s.users[userID] = us
	return us, nil
}

func (s *Service) persist(ctx context.Context, userID string, us *userState) error {
	us.persistMu.Lock()
	defer us.persistMu.Unlock()
	if us.forgotten {
		s.logger.Debug("state was removed, skipping save", "user_id", userID)
		return nil
	}
	if err := s.repo.SaveState(ctx, userID, us.store.Snapshot()); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *Service) publishSession(userID string, us *userState, sessionID string) {
	sess, ok := us.store.Session(sessionID)
	if !ok {
		return
	}
	s.publisher.Publish(userID, Event{Type: EventSessionUpdated, SessionID: sessionID, Session: &sess})
}

func (s *Service) publishState(userID string, us *userState) {
	state := us.store.Snapshot()
	s.publisher.Publish(userID, Event{Type: EventState, State: &state})
}

// State returns the learner's whole AppState.
func (s *Service) State(ctx context.Context, userID string) (domain.AppState, error) {
	us, err := s.user(ctx, userID)
	if err != nil {
		return domain.AppState{}, err
	}
	return us.store.Snapshot(), nil
}

// Sessions lists the learner's sessions, most recently active first.
func (s *Service) Sessions(ctx context.Context, userID string) ([]domain.SessionSummary, error) {
	us, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return us.store.Sessions(), nil
}

// Session returns one session with its messages.
func (s *Service) Session(ctx context.Context, userID, sessionID string) (domain.Session, error) {
	us, err := s.user(ctx, userID)
	if err != nil {
		return domain.Session{}, err
	}
	sess, ok := us.store.Session(sessionID)
	if !ok {
		return domain.Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// CreateSession starts a new empty session and makes it active.
func (s *Service) CreateSession(ctx context.Context, userID string) (string, error) {
	us, err := s.user(ctx, userID)
	if err != nil {
		return "", err
	}
	id := us.store.CreateSession()
	if err := s.persist(ctx, userID, us); err != nil {
		return "", err
	}
	s.publishState(userID, us)
	return id, nil
}

// SelectSession switches the active session. The ID is not validated.
func (s *Service) SelectSession(ctx context.Context, userID, sessionID string) error {
	us, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	us.store.SelectSession(sessionID)
	if err := s.persist(ctx, userID, us); err != nil {
		return err
	}
	s.publishState(userID, us)
	return nil
}

// DeleteSession removes a session. Unknown IDs are a no-op.
func (s *Service) DeleteSession(ctx context.Context, userID, sessionID string) error {
	us, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	us.store.DeleteSession(sessionID)
	if err := s.persist(ctx, userID, us); err != nil {
		return err
	}
	s.publisher.Publish(userID, Event{Type: EventSessionDeleted, SessionID: sessionID})
	return nil
}

// SetProfile stores the learner's name and grade.
func (s *Service) SetProfile(ctx context.Context, userID, name, grade string) error {
	us, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	us.store.SetUserName(name)
	us.store.SetUserGrade(grade)
	if err := s.persist(ctx, userID, us); err != nil {
		return err
	}
	s.publishState(userID, us)
	return nil
}

// Forget drops the cached state for a user whose persisted state was removed.
func (s *Service) Forget(userID string) {
	s.mu.Lock()
	us, ok := s.users[userID]
	delete(s.users, userID)
	s.mu.Unlock()

	if ok {
		// Turns still holding us must not write the removed state back.
		us.persistMu.Lock()
		us.forgotten = true
		us.persistMu.Unlock()

		empty := domain.NewAppState()
		s.publisher.Publish(userID, Event{Type: EventState, State: &empty})
	}
}
