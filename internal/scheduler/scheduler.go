// Package scheduler triggers the deadline sweep on a fixed interval.
//
// The scheduler only decides when to sweep. Several instances may run it
// against the same database; the sweep itself guarantees each transition
// happens once.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/sweep"
	"github.com/YusovID/editorial-workflow/pkg/logger/sl"
)

type Sweeper interface {
	RunSweep(ctx context.Context) (sweep.Result, error)
}

type Scheduler struct {
	sweeper    Sweeper
	interval   time.Duration
	runOnStart bool
	log        *slog.Logger

	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func New(sweeper Sweeper, interval time.Duration, runOnStart bool, log *slog.Logger) *Scheduler {
	return &Scheduler{
		sweeper:    sweeper,
		interval:   interval,
		runOnStart: runOnStart,
		log:        log,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start runs the tick loop in the background until Stop is called or ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("deadline scheduler starting", slog.String("interval", s.interval.String()))

	go s.run(ctx)
}

// Stop signals the loop to exit and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.log.Info("deadline scheduler stopping")
	close(s.stopCh)
	<-s.doneCh
	s.log.Info("deadline scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	if s.runOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.Trigger(sweep.WithTrigger(ctx, sweep.TriggerSchedule)); err != nil {
		// Logged and retried on the next tick.
		s.log.Error("scheduled sweep failed", sl.Err(err))
	}
}

// Trigger runs one sweep now. It returns apperrors.ErrSweepInProgress if a
// sweep started by this scheduler is still running.
func (s *Scheduler) Trigger(ctx context.Context) (sweep.Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("sweep already running, skipping tick")
		return sweep.Result{}, apperrors.ErrSweepInProgress
	}
	defer s.running.Store(false)

	return s.sweeper.RunSweep(ctx)
}
