package device

import (
	"context"
	"time"

	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/logging"
)

// Sweeper periodically marks stale devices offline.
//
// It is the only writer of the offline transition; heartbeats may race
// it freely because both sides write absolute state (offline vs
// working) rather than deltas, so whichever lands last is correct.
type Sweeper struct {
	manager   *Manager
	interval  time.Duration
	threshold time.Duration
	log       *logging.Logger
}

// NewSweeper creates a sweeper that runs every interval and marks
// devices unseen for longer than threshold as offline.
func NewSweeper(manager *Manager, interval, threshold time.Duration, log *logging.Logger) *Sweeper {
	return &Sweeper{
		manager:   manager,
		interval:  interval,
		threshold: threshold,
		log:       log.With("component", "sweeper"),
	}
}

// Run blocks, sweeping on a ticker until ctx is cancelled.
// Intended to be started as a goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("offline sweeper started",
		"interval", s.interval.String(),
		"threshold", s.threshold.String(),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("offline sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.manager.SweepOffline(ctx, s.threshold); err != nil {
				// Sweep failures are transient (db contention); the
				// next tick retries.
				s.log.Error("offline sweep failed", "error", err)
			}
		}
	}
}
