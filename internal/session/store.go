// Package session holds a learner's chat sessions in memory.
//
// A Store wraps one domain.AppState. Mutations never fail: unknown session
// IDs are ignored, mirroring how the tutor UI treats stale references.
package session

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sambhav874/tuition-teacher/internal/domain"
)

// titleMaxRunes is the number of characters kept when deriving a title.
const titleMaxRunes = 30

// Store is a concurrency-safe container for one learner's AppState.
type Store struct {
	mu    sync.RWMutex
	state domain.AppState
	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the ID source used for sessions and messages.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New returns a Store seeded with state.
func New(state domain.AppState, opts ...Option) *Store {
	st := state.Clone()
	if st.Sessions == nil {
		st.Sessions = []domain.Session{}
	}
	s := &Store{
		state: st,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession prepends an empty session, makes it active and returns its ID.
func (s *Store) CreateSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UnixMilli()
	sess := domain.Session{
		ID:        s.newID(),
		Title:     domain.DefaultSessionTitle,
		CreatedAt: ts,
		UpdatedAt: ts,
		Messages:  []domain.Message{},
	}
	s.state.Sessions = append([]domain.Session{sess}, s.state.Sessions...)
	id := sess.ID
	s.state.CurrentSessionID = &id
	return id
}

// SelectSession makes id the active session. The ID is not validated.
func (s *Store) SelectSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentSessionID = &id
}

// AddMessage appends a message to the session and moves the session to the
// front of the list. It reports false when the session does not exist.
func (s *Store) AddMessage(sessionID string, draft domain.MessageDraft) (domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(sessionID)
	if idx < 0 {
		return domain.Message{}, false
	}

	now := s.now().UnixMilli()
	msg := domain.Message{
		ID:        s.newID(),
		Role:      draft.Role,
		Content:   draft.Content,
		Timestamp: now,
	}
	if len(draft.Attachments) > 0 {
		msg.Attachments = append([]string(nil), draft.Attachments...)
	}
	if draft.Metadata != nil {
		md := draft.Metadata.Clone()
		msg.Metadata = &md
	}

	sess := s.state.Sessions[idx]
	if len(sess.Messages) == 0 && draft.Role == domain.RoleUser && draft.Content != "" {
		sess.Title = DeriveTitle(draft.Content)
	}
	sess.UpdatedAt = now
	sess.Messages = append(sess.Messages[:len(sess.Messages):len(sess.Messages)], msg)

	reordered := make([]domain.Session, 0, len(s.state.Sessions))
	reordered = append(reordered, sess)
	reordered = append(reordered, s.state.Sessions[:idx]...)
	reordered = append(reordered, s.state.Sessions[idx+1:]...)
	s.state.Sessions = reordered

	return msg.Clone(), true
}

// DeleteSession removes the session and clears the active pointer if it
// referred to it.
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.state.Sessions[:0:0]
	for _, sess := range s.state.Sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	s.state.Sessions = kept
	if s.state.CurrentSessionID != nil && *s.state.CurrentSessionID == id {
		s.state.CurrentSessionID = nil
	}
}

// SetUserName stores the learner's name used for prompt personalization.
func (s *Store) SetUserName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserName = name
}

// SetUserGrade stores the learner's grade used for prompt personalization.
func (s *Store) SetUserGrade(grade string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserGrade = grade
}

// Profile returns the learner's name and grade.
func (s *Store) Profile() (name, grade string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.UserName, s.state.UserGrade
}

// Session returns a copy of the session with the given ID.
func (s *Store) Session(id string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Session{}, false
	}
	return s.state.Sessions[idx].Clone(), true
}

// CurrentSessionID returns the active session pointer.
func (s *Store) CurrentSessionID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.CurrentSessionID == nil {
		return "", false
	}
	return *s.state.CurrentSessionID, true
}

// Sessions lists sessions, most recently active first.
func (s *Store) Sessions() []domain.SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SessionSummary, 0, len(s.state.Sessions))
	for _, sess := range s.state.Sessions {
		out = append(out, sess.Summary())
	}
	return out
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() domain.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Store) indexOf(id string) int {
	for i := range s.state.Sessions {
		if s.state.Sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// DeriveTitle builds a session title from the first user message.
func DeriveTitle(content string) string {
	if utf8.RuneCountInString(content) <= titleMaxRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:titleMaxRunes]) + "..."
}
