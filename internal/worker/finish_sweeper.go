package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// EventFinisher closes events whose completion window has passed.
type EventFinisher interface {
	FinishEnded(ctx context.Context) (int, error)
}

// FinishSweeper periodically finishes ended events.
type FinishSweeper struct {
	finisher EventFinisher
	interval time.Duration
	logger   *zap.Logger
}

// NewFinishSweeper constructs the sweeper. A non-positive interval disables it.
func NewFinishSweeper(finisher EventFinisher, interval time.Duration, logger *zap.Logger) *FinishSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinishSweeper{finisher: finisher, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *FinishSweeper) Run(ctx context.Context) {
	if s.finisher == nil || s.interval <= 0 {
		s.logger.Info("finish sweeper disabled")
		return
	}
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *FinishSweeper) sweep(ctx context.Context) {
	finished, err := s.finisher.FinishEnded(ctx)
	if err != nil {
		s.logger.Error("finish sweep failed", zap.Int("finished", finished), zap.Error(err))
		return
	}
	if finished > 0 {
		s.logger.Info("finish sweep completed", zap.Int("finished", finished))
	}
}
