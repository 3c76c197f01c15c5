package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Scheduler drives the runner on a fixed interval. Overlapping runs are
// skipped rather than queued.
type Scheduler struct {
	runner       *Runner
	interval     time.Duration
	runOnStartup bool
	running      atomic.Bool
	inFlight     atomic.Bool
	stop         chan struct{}
}

// NewScheduler creates a scheduler around the runner.
func NewScheduler(runner *Runner, interval time.Duration, runOnStartup bool) *Scheduler {
	return &Scheduler{
		runner:       runner,
		interval:     interval,
		runOnStartup: runOnStartup,
		stop:         make(chan struct{}),
	}
}

// Start blocks until the context is cancelled or Stop is called. Run
// errors are logged and the loop keeps going; one bad day must not stop
// tomorrow's run.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already running")
	}
	defer s.running.Store(false)

	if s.runOnStartup {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop ends the loop.
func (s *Scheduler) Stop() {
	if s.running.Load() {
		close(s.stop)
	}
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		slog.Warn("Previous run still in flight, skipping tick")
		return
	}
	defer s.inFlight.Store(false)

	if err := s.runner.RunOnce(ctx); err != nil {
		slog.Error("Scheduled run failed", "error", err)
	}
}
