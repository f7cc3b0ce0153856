package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingSweeper struct {
	calls   atomic.Int32
	trigger atomic.Value
	started chan struct{}
	release chan struct{}
	err     error
}

func (s *blockingSweeper) RunSweep(ctx context.Context) (sweep.Result, error) {
	s.calls.Add(1)
	s.trigger.Store(sweep.TriggerFrom(ctx))

	if s.started != nil {
		s.started <- struct{}{}
	}

	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
		}
	}

	return sweep.Result{RemindersProcessed: 1}, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_TriggerRejectsOverlap(t *testing.T) {
	sweeper := &blockingSweeper{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := New(sweeper, time.Hour, false, discardLogger())

	done := make(chan error, 1)

	go func() {
		_, err := s.Trigger(context.Background())
		done <- err
	}()

	<-sweeper.started

	_, err := s.Trigger(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSweepInProgress)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	close(sweeper.release)
	require.NoError(t, <-done)

	res, err := s.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemindersProcessed)
	assert.Equal(t, int32(2), sweeper.calls.Load())
}

func TestScheduler_TriggerReturnsSweepError(t *testing.T) {
	sweeper := &blockingSweeper{err: errors.New("storage unavailable")}
	s := New(sweeper, time.Hour, false, discardLogger())

	_, err := s.Trigger(context.Background())
	assert.EqualError(t, err, "storage unavailable")

	// The guard is released after a failed sweep.
	_, err = s.Trigger(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(2), sweeper.calls.Load())
}

func TestScheduler_StartRunsOnStartAndTicks(t *testing.T) {
	sweeper := &blockingSweeper{}
	s := New(sweeper, 10*time.Millisecond, true, discardLogger())

	s.Start(context.Background())

	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	s.Stop()

	calls := sweeper.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, sweeper.calls.Load())
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	sweeper := &blockingSweeper{}
	s := New(sweeper, time.Hour, false, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.doneCh:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancel")
	}

	assert.Equal(t, int32(0), sweeper.calls.Load())
}

func TestScheduler_TagsScheduledRuns(t *testing.T) {
	sweeper := &blockingSweeper{}
	s := New(sweeper, time.Hour, false, discardLogger())

	s.tick(context.Background())
	assert.Equal(t, sweep.TriggerSchedule, sweeper.trigger.Load())

	_, err := s.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "direct", sweeper.trigger.Load())
}
