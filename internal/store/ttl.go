package store

import (
	"context"
	"log/slog"
	"time"
)

const cleanupWorkerInterval = 5 * time.Minute

// CleanupCallback is called for every user whose state the cleanup worker removed.
type CleanupCallback func(userID string)

// StartCleanupWorker runs a background goroutine that periodically removes
// tutoring state that has not been written within ttl. A non-positive ttl
// disables the worker.
func StartCleanupWorker(ctx context.Context, repo Repository, ttl time.Duration, onCleanup CleanupCallback) {
	if ttl <= 0 {
		slog.Info("Cleanup worker disabled", "ttl", ttl)
		return
	}

	ticker := time.NewTicker(cleanupWorkerInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Cleanup worker started", "interval", cleanupWorkerInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				CleanupOnce(ctx, repo, ttl, onCleanup)
			case <-ctx.Done():
				slog.Info("Cleanup worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// CleanupOnce performs a single sweep and returns the number of states removed.
func CleanupOnce(ctx context.Context, repo Repository, ttl time.Duration, onCleanup CleanupCallback) int {
	userIDs, err := repo.CleanupStaleStates(ctx, ttl)
	if err != nil {
		slog.Error("Cleanup worker failed to remove stale states", "error", err)
		return 0
	}
	if len(userIDs) == 0 {
		return 0
	}

	for _, userID := range userIDs {
		slog.Info("Cleanup worker removed stale state", "user_id", userID)
		if onCleanup != nil {
			onCleanup(userID)
		}
	}

	slog.Info("Cleanup worker sweep completed", "cleaned", len(userIDs))
	return len(userIDs)
}
