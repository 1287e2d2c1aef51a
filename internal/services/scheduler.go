package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"stagholme/internal/domain"
)

// SchedulerConfig controls the recurring sweep.
type SchedulerConfig struct {
	Interval   time.Duration
	RunOnStart bool
}

// SweepScheduler runs a Sweeper on a fixed interval. At most one sweep runs
// at a time; a tick or trigger that arrives mid-sweep is skipped.
type SweepScheduler struct {
	sweeper domain.Sweeper
	cfg     SchedulerConfig
	logger  *slog.Logger

	running atomic.Bool

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewSweepScheduler(sweeper domain.Sweeper, cfg SchedulerConfig, logger *slog.Logger) *SweepScheduler {
	return &SweepScheduler{sweeper: sweeper, cfg: cfg, logger: logger}
}

// Start launches the background loop. Calling Start twice is a no-op.
func (s *SweepScheduler) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", s.cfg.Interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	s.wg.Add(1)
	go s.loop(ctx)
	s.logger.Info("invitation sweep scheduler started", "interval", s.cfg.Interval.String(), "run_on_start", s.cfg.RunOnStart)
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep, up to ctx's deadline.
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.cancel()
	s.started = false

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("invitation sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop sweep scheduler: %w", ctx.Err())
	}
}

// Trigger runs one sweep now unless one is already running.
func (s *SweepScheduler) Trigger(ctx context.Context) (*domain.SweepReport, bool, error) {
	return s.runGuarded(ctx)
}

func (s *SweepScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.cfg.RunOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *SweepScheduler) tick(ctx context.Context) {
	_, ran, err := s.runGuarded(ctx)
	if !ran {
		s.logger.Warn("previous invitation sweep still running, skipping tick")
		return
	}
	if err != nil {
		s.logger.Error("invitation sweep failed", "err", err)
	}
}

func (s *SweepScheduler) runGuarded(ctx context.Context) (report *domain.SweepReport, ran bool, err error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, false, nil
	}
	defer s.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("invitation sweep panicked", "panic", r)
			report, ran, err = nil, true, fmt.Errorf("sweep panicked: %v", r)
		}
	}()

	report, err = s.sweeper.RunOnce(ctx)
	return report, true, err
}
