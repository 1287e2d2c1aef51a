package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stagholme/internal/domain"
)

// DefaultExpiryGrace is how long after an event ends the sweep keeps inviting.
const DefaultExpiryGrace = 24 * time.Hour

// DefaultStoreTimeout bounds each store call made by the sweep.
const DefaultStoreTimeout = 10 * time.Second

// InvitationSweeper runs the recurring invitation sweep over pending
// sweep-mode events.
type InvitationSweeper struct {
	events       domain.ScheduledEventRepository
	tracking     domain.InvitationTrackingRepository
	resolver     *RecipientResolver
	dispatcher   *InvitationDispatcher
	expiryGrace  time.Duration
	storeTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

func NewInvitationSweeper(
	events domain.ScheduledEventRepository,
	tracking domain.InvitationTrackingRepository,
	resolver *RecipientResolver,
	dispatcher *InvitationDispatcher,
	expiryGrace time.Duration,
	storeTimeout time.Duration,
	logger *slog.Logger,
) *InvitationSweeper {
	if expiryGrace <= 0 {
		expiryGrace = DefaultExpiryGrace
	}
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &InvitationSweeper{
		events:       events,
		tracking:     tracking,
		resolver:     resolver,
		dispatcher:   dispatcher,
		expiryGrace:  expiryGrace,
		storeTimeout: storeTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

type eventOutcome int

const (
	outcomeProcessed eventOutcome = iota
	outcomeExpired
	outcomeSkipped
	outcomeFailed
)

// RunOnce performs one sweep. Only a failure to list pending events is
// returned; per-event failures are logged, counted and retried next sweep.
func (s *InvitationSweeper) RunOnce(ctx context.Context) (*domain.SweepReport, error) {
	now := s.now()
	report := &domain.SweepReport{StartedAt: now}

	findCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	events, err := s.events.FindPending(findCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("find pending events: %w", err)
	}
	report.EventsScanned = len(events)
	s.logger.Info("invitation sweep started", "pending_events", len(events))

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = s.now()
			return report, err
		}
		switch s.processEvent(ctx, event, now, report) {
		case outcomeExpired:
			report.EventsExpired++
		case outcomeSkipped:
			report.EventsSkipped++
		case outcomeFailed:
			report.EventsFailed++
		}
	}

	report.FinishedAt = s.now()
	s.logger.Info("invitation sweep finished",
		"events_scanned", report.EventsScanned,
		"events_expired", report.EventsExpired,
		"events_skipped", report.EventsSkipped,
		"events_failed", report.EventsFailed,
		"invitations_sent", report.InvitationsSent,
		"send_failures", report.SendFailures,
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report, nil
}

func (s *InvitationSweeper) processEvent(ctx context.Context, event *domain.ScheduledEvent, now time.Time, report *domain.SweepReport) eventOutcome {
	log := s.logger.With("event_id", event.ID)

	if now.After(event.ExpiresAt(s.expiryGrace)) {
		if err := event.TransitionTo(domain.EventStatusCompleted, now); err != nil {
			log.Error("cannot complete expired event", "err", err)
			return outcomeFailed
		}
		if err := s.saveEvent(ctx, event); err != nil {
			log.Error("save expired event", "err", err)
			return outcomeFailed
		}
		log.Info("event expired, marked completed")
		return outcomeExpired
	}

	if event.ScheduledTime.After(now) {
		log.Debug("event not active yet", "scheduled_time", event.ScheduledTime)
		return outcomeSkipped
	}

	if err := event.Validate(); err != nil {
		log.Warn("skipping invalid event", "err", err)
		return outcomeSkipped
	}

	tracking, err := s.loadTracking(ctx, event.ID)
	if errors.Is(err, domain.ErrNotFound) {
		tracking = domain.NewInvitationTracking(event.ID, now)
	} else if err != nil {
		log.Error("load invitation tracking", "err", err)
		return outcomeFailed
	}

	resolveCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	recipients, err := s.resolver.Outstanding(resolveCtx, event, tracking)
	cancel()
	if err != nil {
		log.Error("resolve outstanding recipients", "err", err)
		return outcomeFailed
	}
	if len(recipients) == 0 {
		tracking.LastSweepAt = now
		if err := s.saveTracking(ctx, tracking); err != nil {
			log.Error("save invitation tracking", "err", err)
			return outcomeFailed
		}
		return outcomeProcessed
	}

	results := s.dispatcher.Dispatch(ctx, event, recipients)

	watermark := now
	sent, failed := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			// Keep a failed user above the watermark so the created-after
			// query selects it again next sweep.
			if !res.Recipient.CreatedAt.IsZero() {
				if w := res.Recipient.CreatedAt.Add(-time.Microsecond); w.Before(watermark) {
					watermark = w
				}
			}
			continue
		}
		if tracking.MarkProcessed(res.Recipient, now) {
			event.RecordInvited(res.Recipient)
			sent++
		}
	}
	report.SendFailures += failed

	// Sends have happened; record them even if ctx was cancelled meanwhile.
	persistCtx := context.WithoutCancel(ctx)
	tracking.LastSweepAt = watermark
	if err := s.saveTracking(persistCtx, tracking); err != nil {
		log.Error("save invitation tracking", "err", err, "unrecorded_sends", sent)
		return outcomeFailed
	}
	report.InvitationsSent += sent
	if sent > 0 {
		event.UpdatedAt = now
		if err := s.saveEvent(persistCtx, event); err != nil {
			log.Error("save event recipients", "err", err)
			return outcomeFailed
		}
	}
	log.Info("event swept", "outstanding", len(recipients), "invitations_sent", sent, "send_failures", failed)
	return outcomeProcessed
}

func (s *InvitationSweeper) loadTracking(ctx context.Context, eventID string) (*domain.InvitationTracking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.tracking.GetByEventID(ctx, eventID)
}

func (s *InvitationSweeper) saveTracking(ctx context.Context, tracking *domain.InvitationTracking) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.tracking.Save(ctx, tracking)
}

func (s *InvitationSweeper) saveEvent(ctx context.Context, event *domain.ScheduledEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.events.Save(ctx, event)
}
