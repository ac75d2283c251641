package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger removes pending agencies whose document window has closed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// AgencySweeper runs the purge on a fixed interval.
type AgencySweeper struct {
	purger   Purger
	interval time.Duration
	logger   *zap.Logger
}

// NewAgencySweeper creates a sweeper.
func NewAgencySweeper(purger Purger, interval time.Duration, logger *zap.Logger) *AgencySweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgencySweeper{purger: purger, interval: interval, logger: logger}
}

// Sweep runs one purge pass.
func (s *AgencySweeper) Sweep(ctx context.Context) {
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("purge expired agencies", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("purged expired agencies", zap.Int("count", n))
	}
}

// Run sweeps once immediately, then every interval until ctx is cancelled.
func (s *AgencySweeper) Run(ctx context.Context) error {
	s.Sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("agency sweeper stopping")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
