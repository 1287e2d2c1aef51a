package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagholme/internal/domain"
)

type stubSweeper struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
	panics  bool
}

func (s *stubSweeper) RunOnce(ctx context.Context) (*domain.SweepReport, error) {
	s.calls.Add(1)
	if s.started != nil {
		select {
		case s.started <- struct{}{}:
		default:
		}
	}
	if s.release != nil {
		<-s.release
	}
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.SweepReport{EventsScanned: 1}, nil
}

func TestSweepScheduler_TriggerSkipsWhileRunning(t *testing.T) {
	sw := &stubSweeper{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewSweepScheduler(sw, SchedulerConfig{Interval: time.Hour}, testLogger)

	done := make(chan bool)
	go func() {
		_, ran, _ := s.Trigger(context.Background())
		done <- ran
	}()
	<-sw.started

	report, ran, err := s.Trigger(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Nil(t, report)

	close(sw.release)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), sw.calls.Load())

	sw.started = nil
	report, ran, err = s.Trigger(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, report.EventsScanned)
}

func TestSweepScheduler_RecoversFromPanic(t *testing.T) {
	s := NewSweepScheduler(&stubSweeper{panics: true}, SchedulerConfig{Interval: time.Hour}, testLogger)

	_, ran, err := s.Trigger(context.Background())
	assert.True(t, ran)
	require.ErrorContains(t, err, "panicked")

	// The guard is released after a panic.
	_, ran, _ = s.Trigger(context.Background())
	assert.True(t, ran)
}

func TestSweepScheduler_ReturnsSweepError(t *testing.T) {
	s := NewSweepScheduler(&stubSweeper{err: errors.New("db down")}, SchedulerConfig{Interval: time.Hour}, testLogger)
	_, ran, err := s.Trigger(context.Background())
	assert.True(t, ran)
	require.EqualError(t, err, "db down")
}

func TestSweepScheduler_StartStop(t *testing.T) {
	sw := &stubSweeper{started: make(chan struct{}, 16)}
	s := NewSweepScheduler(sw, SchedulerConfig{Interval: 10 * time.Millisecond, RunOnStart: true}, testLogger)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))

	for range 2 {
		select {
		case <-sw.started:
		case <-time.After(time.Second):
			t.Fatal("sweep did not run")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))

	calls := sw.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, sw.calls.Load())
}

func TestSweepScheduler_InvalidInterval(t *testing.T) {
	s := NewSweepScheduler(&stubSweeper{}, SchedulerConfig{}, testLogger)
	require.Error(t, s.Start(context.Background()))
}
