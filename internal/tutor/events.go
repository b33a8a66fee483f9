package tutor

import "github.com/sambhav874/tuition-teacher/internal/domain"

// Event types pushed to live subscribers.
const (
	EventSessionUpdated = "session_updated"
	EventSessionDeleted = "session_deleted"
	EventState          = "state"
)

// Event is a change notification for one user's tutoring state.
type Event struct {
	Type      string           `json:"type"`
	SessionID string           `json:"sessionId,omitempty"`
	Session   *domain.Session  `json:"session,omitempty"`
	State     *domain.AppState `json:"state,omitempty"`
}

// Publisher fans events out to a user's live connections.
type Publisher interface {
	Publish(userID string, event Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, Event) {}
