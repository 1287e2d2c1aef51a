package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"stagholme/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type scheduledEventService struct {
	events         domain.ScheduledEventRepository
	tracking       domain.InvitationTrackingRepository
	resolver       *RecipientResolver
	dispatcher     *InvitationDispatcher
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewScheduledEventService creates the ScheduledEventService. timeout bounds
// each store call; invitation sends are bounded by the dispatcher instead.
func NewScheduledEventService(
	events domain.ScheduledEventRepository,
	tracking domain.InvitationTrackingRepository,
	resolver *RecipientResolver,
	dispatcher *InvitationDispatcher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ScheduledEventService {
	return &scheduledEventService{
		events:         events,
		tracking:       tracking,
		resolver:       resolver,
		dispatcher:     dispatcher,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *scheduledEventService) ScheduleEvent(ctx context.Context, event *domain.ScheduledEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.DispatchMode == "" {
		event.DispatchMode = domain.DispatchModeSweep
	}
	return s.create(ctx, event)
}

func (s *scheduledEventService) create(ctx context.Context, event *domain.ScheduledEvent) error {
	for i, inv := range event.SelectedRecipients {
		email := domain.NormalizeEmail(inv.Email)
		if !emailRegexp.MatchString(email) {
			return fmt.Errorf("%w: selected recipient %d has invalid email %q", domain.ErrInvalidEvent, i, inv.Email)
		}
		event.SelectedRecipients[i].Email = email
		event.SelectedRecipients[i].Name = strings.TrimSpace(inv.Name)
	}

	now := s.now()
	event.Status = domain.EventStatusPending
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.ScheduledTime.IsZero() {
		event.ScheduledTime = now
	}
	if event.SelectedRecipients == nil {
		event.SelectedRecipients = []domain.Invitee{}
	}
	event.InvitedRecipients = []domain.Invitee{}

	if err := s.events.Create(ctx, event); err != nil {
		return fmt.Errorf("create scheduled event: %w", err)
	}
	s.logger.Info("scheduled event created", "event_id", event.ID, "dispatch_mode", event.DispatchMode, "invite_all", event.InvitesAllUsers())
	return nil
}

func (s *scheduledEventService) SendNow(ctx context.Context, event *domain.ScheduledEvent) (*domain.DispatchReport, error) {
	event.DispatchMode = domain.DispatchModeImmediate
	event.ScheduledTime = time.Time{}

	createCtx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	err := s.create(createCtx, event)
	cancel()
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, event)
}

func (s *scheduledEventService) DispatchNow(ctx context.Context, eventID string) (*domain.DispatchReport, error) {
	getCtx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	event, err := s.events.GetByID(getCtx, eventID)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get scheduled event: %w", err)
	}
	if event.DispatchMode != domain.DispatchModeImmediate {
		return nil, fmt.Errorf("%w: event %s is delivered by the sweep", domain.ErrNotDispatchable, eventID)
	}
	if event.Status != domain.EventStatusPending {
		return nil, fmt.Errorf("%w: event %s is %s", domain.ErrNotDispatchable, eventID, event.Status)
	}
	return s.dispatch(ctx, event)
}

// dispatch runs the immediate path: pending -> processing, send to every
// recipient, then completed when all sends succeeded and failed otherwise.
func (s *scheduledEventService) dispatch(ctx context.Context, event *domain.ScheduledEvent) (*domain.DispatchReport, error) {
	log := s.logger.With("event_id", event.ID)

	if err := event.TransitionTo(domain.EventStatusProcessing, s.now()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, event); err != nil {
		return nil, fmt.Errorf("mark event processing: %w", err)
	}

	report := &domain.DispatchReport{EventID: event.ID, Failed: []domain.FailedSend{}}

	resolveCtx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	recipients, err := s.resolver.All(resolveCtx, event)
	cancel()
	if err != nil {
		log.Error("resolve recipients for immediate dispatch", "err", err)
		if ferr := s.finish(ctx, event, domain.EventStatusFailed); ferr != nil {
			log.Error("mark event failed", "err", ferr)
		}
		return nil, fmt.Errorf("resolve recipients: %w", err)
	}

	for _, res := range s.dispatcher.Dispatch(ctx, event, recipients) {
		if res.Err != nil {
			report.Failed = append(report.Failed, domain.FailedSend{Email: res.Recipient.Email, Reason: res.Err.Error()})
			continue
		}
		event.RecordInvited(res.Recipient)
		report.Sent++
	}

	final := domain.EventStatusCompleted
	if len(report.Failed) > 0 {
		final = domain.EventStatusFailed
	}
	if err := s.finish(ctx, event, final); err != nil {
		return nil, fmt.Errorf("mark event %s: %w", final, err)
	}
	report.Status = event.Status
	log.Info("immediate dispatch finished", "status", event.Status, "sent", report.Sent, "failed", len(report.Failed))
	return report, nil
}

// finish records the terminal status even when the caller's context has
// been cancelled mid-dispatch.
func (s *scheduledEventService) finish(ctx context.Context, event *domain.ScheduledEvent, status domain.EventStatus) error {
	if err := event.TransitionTo(status, s.now()); err != nil {
		return err
	}
	return s.save(context.WithoutCancel(ctx), event)
}

func (s *scheduledEventService) save(ctx context.Context, event *domain.ScheduledEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.events.Save(ctx, event)
}

func (s *scheduledEventService) GetByID(ctx context.Context, eventID string) (*domain.ScheduledEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get scheduled event: %w", err)
	}
	return event, nil
}

func (s *scheduledEventService) List(ctx context.Context, params domain.PaginationParams) ([]*domain.ScheduledEvent, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.events.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list scheduled events: %w", err)
	}
	if events == nil {
		events = []*domain.ScheduledEvent{}
	}
	return events, total, nil
}

func (s *scheduledEventService) GetTracking(ctx context.Context, eventID string) (*domain.InvitationTracking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get scheduled event: %w", err)
	}
	tracking, err := s.tracking.GetByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation tracking: %w", err)
	}
	return tracking, nil
}
