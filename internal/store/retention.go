package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/honeypot-ai/honeypot-server/internal/shared"
)

const retentionSweepInterval = 15 * time.Minute

// StartRetentionWorker runs a background goroutine that periodically deletes
// sessions whose last activity is older than ttl. Honeypot sessions have no
// explicit terminal lifecycle, so retention is the only way records leave
// the store.
func StartRetentionWorker(ctx context.Context, repo Repository, ttl time.Duration) {
	ticker := time.NewTicker(retentionSweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Retention worker started", "interval", retentionSweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepExpiredSessions(ctx, repo, ttl)
			case <-ctx.Done():
				slog.Info("Retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepExpiredSessions(ctx context.Context, repo Repository, ttl time.Duration) {
	deleted, err := cleanupWithRetry(ctx, repo, ttl)
	if err != nil {
		slog.Error("Retention sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Retention sweep removed stale sessions", "deleted", deleted)
	}
}

// cleanupWithRetry retries the sweep with exponential backoff to ride out
// SQLITE_BUSY while a pipeline turn is committing.
func cleanupWithRetry(ctx context.Context, repo Repository, ttl time.Duration) (int64, error) {
	const maxRetries = 3
	baseDelay := 100 * time.Millisecond

	var deleted int64
	var err error
	for i := 0; i < maxRetries; i++ {
		deleted, err = repo.CleanupExpiredSessions(ctx, ttl)
		if err == nil {
			return deleted, nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			return 0, err
		}
		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("Retention sweep hit a locked database, retrying",
			"attempt", i+1,
			"delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return 0, err
}
