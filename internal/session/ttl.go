package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/kje0316/persona-signal-welfare/internal/store"
)

const ttlWorkerInterval = 5 * time.Minute

// StartTTLWorker runs a background goroutine that periodically sweeps for
// idle consultation sessions and deletes them along with their messages.
func StartTTLWorker(ctx context.Context, repo store.Repository, ttl time.Duration) {
	ticker := time.NewTicker(ttlWorkerInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("session TTL worker started", "interval", ttlWorkerInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweep(ctx, repo, ttl)
			case <-ctx.Done():
				slog.Info("session TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(ctx context.Context, repo store.Repository, ttl time.Duration) {
	deleted, err := repo.CleanupExpiredSessions(ctx, ttl)
	if err != nil {
		slog.Error("session TTL worker failed to cleanup sessions", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("session TTL worker cleaned up idle sessions", "count", deleted)
	}
}
