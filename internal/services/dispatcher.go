package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stagholme/internal/domain"
)

// displayTimeLayout is how event times appear in the email body.
const displayTimeLayout = "Monday, January 2, 2006 3:04 PM MST"

const defaultSendTimeout = 30 * time.Second

// DispatcherConfig bounds the invitation fan-out.
type DispatcherConfig struct {
	SendTimeout     time.Duration
	SendConcurrency int
	// Location is used to format times in the email body.
	Location *time.Location
}

// SendResult is the outcome of one invitation send.
type SendResult struct {
	Recipient domain.Recipient
	Err       error
}

// InvitationDispatcher builds and sends one invitation per recipient.
type InvitationDispatcher struct {
	calendar domain.CalendarBuilder
	emails   domain.EmailService
	cfg      DispatcherConfig
	logger   *slog.Logger
}

func NewInvitationDispatcher(calendar domain.CalendarBuilder, emails domain.EmailService, cfg DispatcherConfig, logger *slog.Logger) *InvitationDispatcher {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.SendConcurrency < 1 {
		cfg.SendConcurrency = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &InvitationDispatcher{calendar: calendar, emails: emails, cfg: cfg, logger: logger}
}

// Dispatch sends event to every recipient in parallel and waits for all of
// them. Results are returned in recipient order.
func (d *InvitationDispatcher) Dispatch(ctx context.Context, event *domain.ScheduledEvent, recipients []domain.Recipient) []SendResult {
	results := make([]SendResult, len(recipients))
	sem := make(chan struct{}, d.cfg.SendConcurrency)
	var wg sync.WaitGroup

	for i, rec := range recipients {
		wg.Add(1)
		go func(i int, rec domain.Recipient) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := d.safeSend(ctx, event, rec)
			if err != nil {
				d.logger.Warn("invitation send failed", "event_id", event.ID, "recipient", rec.Email, "err", err)
			}
			results[i] = SendResult{Recipient: rec, Err: err}
		}(i, rec)
	}
	wg.Wait()
	return results
}

// safeSend turns a panic in the builder or mailer into a failed send.
func (d *InvitationDispatcher) safeSend(ctx context.Context, event *domain.ScheduledEvent, rec domain.Recipient) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send panicked: %v", r)
		}
	}()
	return d.send(ctx, event, rec)
}

func (d *InvitationDispatcher) send(ctx context.Context, event *domain.ScheduledEvent, rec domain.Recipient) error {
	ics, err := d.calendar.Build(domain.NewCalendarInvite(event.Details, rec))
	if err != nil {
		return fmt.Errorf("build calendar: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	details := event.Details
	return d.emails.SendEventInvitation(ctx, &domain.EventInvitationEmailData{
		Email:         rec.Email,
		Name:          rec.Name,
		Summary:       details.Summary,
		Description:   details.Description,
		Location:      details.Location,
		OrganizerName: details.Organizer.Name,
		StartTime:     details.StartTime.In(d.cfg.Location).Format(displayTimeLayout),
		EndTime:       details.EndTime.In(d.cfg.Location).Format(displayTimeLayout),
		Calendar:      ics,
	})
}
