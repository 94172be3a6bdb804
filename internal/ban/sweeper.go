package ban

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper runs the engine's expiration sweep on a fixed interval. It runs
// the sweep synchronously in its own loop, so invocations never overlap;
// a failed pass is logged and simply retried on the next tick.
type Sweeper struct {
	engine       *Engine
	interval     time.Duration
	initialDelay time.Duration
	log          *slog.Logger
}

// NewSweeper builds a sweeper. An interval of 0 selects one minute.
func NewSweeper(engine *Engine, interval, initialDelay time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		engine:       engine,
		interval:     interval,
		initialDelay: initialDelay,
		log:          log,
	}
}

// Run blocks until ctx is canceled, sweeping once after the initial delay
// and then on every interval tick.
func (s *Sweeper) Run(ctx context.Context) {
	if s.initialDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.initialDelay):
		}
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

func (s *Sweeper) sweep(ctx context.Context) {
	reaped, err := s.engine.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("ban sweep failed", "error", err)
		return
	}
	if reaped > 0 {
		s.log.Info("deactivated expired bans", "count", reaped)
	}
}
