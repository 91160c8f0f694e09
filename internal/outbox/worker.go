package outbox

import (
	"context"
	"crewfinder/backend/internal/logging"
	"time"
)

// Worker periodically replays every user's queue.
type Worker struct {
	Queue    *Queue
	Apply    ApplyFunc
	Interval time.Duration
}

// Run blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	logger := logging.Component("outbox")
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", w.Interval).Msg("outbox worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("outbox worker stopped")
			return
		case <-ticker.C:
			w.ReplayAll(ctx)
		}
	}
}

// ReplayAll runs one replay pass over every user with pending entries.
func (w *Worker) ReplayAll(ctx context.Context) {
	logger := logging.Component("outbox")

	users, err := w.Queue.Users(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list outbox users")
		return
	}

	for _, userID := range users {
		n, err := w.Queue.Replay(ctx, userID, w.Apply)
		if err != nil {
			logger.Warn().Err(err).Str(logging.FieldUserID, userID).Int("applied", n).Msg("outbox replay stopped")
			continue
		}
		if n > 0 {
			logger.Info().Str(logging.FieldUserID, userID).Int("applied", n).Msg("outbox replayed")
		}
	}
}
