package core

// scheduler.go provides background maintenance of stored previews.
//
// The sweeper is long-running and context-aware for graceful shutdown. It
// logs what it removes but never fails the application.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often expired previews are removed.
const DefaultSweepInterval = time.Minute

// StartSessionSweeper removes expired previews every interval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("preview sweeper started", "interval", interval, "ttl", s.opts.PreviewTTL)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("preview sweeper stopped")
			return
		case <-ticker.C:
			if n := s.SweepExpired(); n > 0 {
				slog.Info("expired previews removed", "count", n)
			}
		}
	}
}
