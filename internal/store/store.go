// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/sambhav874/tuition-teacher/internal/domain"
)

// StateKey names the blob holding a learner's whole AppState.
const StateKey = "ai-tutor-storage"

// Repository defines the interface for persisting users and their tutoring state.
type Repository interface {
	// GetUser retrieves a user by their user ID. It returns nil, nil when absent.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// ListUsers returns all known users, most recently seen first.
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// LoadState returns the persisted AppState for a user, or nil, nil when none exists.
	LoadState(ctx context.Context, userID string) (*domain.AppState, error)

	// SaveState replaces the persisted AppState for a user.
	SaveState(ctx context.Context, userID string, state domain.AppState) error

	// DeleteState removes the persisted AppState for a user.
	DeleteState(ctx context.Context, userID string) error

	// CleanupStaleStates removes states not updated within ttl and returns
	// the affected user IDs.
	CleanupStaleStates(ctx context.Context, ttl time.Duration) ([]string, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
