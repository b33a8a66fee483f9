package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sambhav874/tuition-teacher/internal/domain"
	"github.com/sambhav874/tuition-teacher/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	writeRetries   = 3
	writeBaseDelay = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_last_seen ON users(last_seen_at);

	CREATE TABLE IF NOT EXISTS app_states (
		user_id TEXT NOT NULL,
		storage_key TEXT NOT NULL,
		state_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, storage_key)
	);
	CREATE INDEX IF NOT EXISTS idx_app_states_updated ON app_states(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	return user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	return shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, "upsert_user", func() error {
		_, err := s.db.ExecContext(ctx, query,
			user.UserID, user.Username,
			user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		return nil
	})
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// ListUsers returns all users, most recently seen first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users ORDER BY last_seen_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close users rows", "error", closeErr)
		}
	}()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var lastSeen, createdAt, updatedAt int64
	if err := row.Scan(&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

// LoadState returns the persisted AppState for a user.
func (s *SQLiteStore) LoadState(ctx context.Context, userID string) (*domain.AppState, error) {
	query := `SELECT state_json FROM app_states WHERE user_id = ? AND storage_key = ?`

	var blob string
	err := s.db.QueryRowContext(ctx, query, userID, StateKey).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	state := domain.NewAppState()
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if state.Sessions == nil {
		state.Sessions = []domain.Session{}
	}
	return &state, nil
}

// SaveState replaces the persisted AppState for a user.
func (s *SQLiteStore) SaveState(ctx context.Context, userID string, state domain.AppState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	query := `
		INSERT INTO app_states (user_id, storage_key, state_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, storage_key) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`

	now := time.Now().Unix()
	return shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, "save_state", func() error {
		if _, err := s.db.ExecContext(ctx, query, userID, StateKey, string(blob), now, now); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		return nil
	})
}

// DeleteState removes the persisted AppState for a user.
func (s *SQLiteStore) DeleteState(ctx context.Context, userID string) error {
	query := `DELETE FROM app_states WHERE user_id = ? AND storage_key = ?`
	return shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, "delete_state", func() error {
		if _, err := s.db.ExecContext(ctx, query, userID, StateKey); err != nil {
			return fmt.Errorf("delete state: %w", err)
		}
		return nil
	})
}

// CleanupStaleStates removes states not updated within ttl.
func (s *SQLiteStore) CleanupStaleStates(ctx context.Context, ttl time.Duration) ([]string, error) {
	threshold := time.Now().Add(-ttl).Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cleanup: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("failed to roll back cleanup", "error", rbErr)
		}
	}()

	rows, err := tx.QueryContext(ctx, `SELECT user_id FROM app_states WHERE updated_at < ?`, threshold)
	if err != nil {
		return nil, fmt.Errorf("query stale states: %w", err)
	}
	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan stale state: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close stale state rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale states: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM app_states WHERE updated_at < ?`, threshold); err != nil {
		return nil, fmt.Errorf("delete stale states: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cleanup: %w", err)
	}
	return userIDs, nil
}

var _ Repository = (*SQLiteStore)(nil)
