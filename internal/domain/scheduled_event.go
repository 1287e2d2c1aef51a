package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EventStatus is the lifecycle status of a ScheduledEvent.
type EventStatus string

const (
	EventStatusPending    EventStatus = "pending"
	EventStatusProcessing EventStatus = "processing"
	EventStatusCompleted  EventStatus = "completed"
	EventStatusFailed     EventStatus = "failed"
)

// legalTransitions lists every allowed status change. Sweep-mode events only
// ever move pending -> completed (on expiry); immediate events go through
// processing before reaching completed or failed.
var legalTransitions = map[EventStatus][]EventStatus{
	EventStatusPending:    {EventStatusProcessing, EventStatusCompleted},
	EventStatusProcessing: {EventStatusCompleted, EventStatusFailed},
}

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPending, EventStatusProcessing, EventStatusCompleted, EventStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DispatchMode records which flow delivers an event's invitations.
type DispatchMode string

const (
	// DispatchModeSweep events are picked up by the recurring invitation sweep.
	DispatchModeSweep DispatchMode = "sweep"
	// DispatchModeImmediate events are sent synchronously once and are never swept.
	DispatchModeImmediate DispatchMode = "immediate"
)

// Organizer is the person the invitation is sent on behalf of.
type Organizer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Invitee is an explicitly selected recipient, or a snapshot of a recipient
// taken at send time.
type Invitee struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// EventDetails holds the calendar fields of a scheduled event.
type EventDetails struct {
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Organizer   Organizer `json:"organizer"`
}

// ScheduledEvent is a calendar event whose invitations are delivered by the
// sweep or by immediate dispatch.
// swagger:model ScheduledEvent
type ScheduledEvent struct {
	ID                 string       `json:"id"`
	Details            EventDetails `json:"event_details"`
	SelectedRecipients []Invitee    `json:"selected_recipients"`
	InvitedRecipients  []Invitee    `json:"invited_recipients"`
	ScheduledTime      time.Time    `json:"scheduled_time"`
	Status             EventStatus  `json:"status"`
	DispatchMode       DispatchMode `json:"dispatch_mode"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// NewScheduledEvent returns a pending event. ID is set by the repository on create.
func NewScheduledEvent(details EventDetails, selected []Invitee, scheduledTime time.Time, mode DispatchMode, now time.Time) *ScheduledEvent {
	return &ScheduledEvent{
		Details:            details,
		SelectedRecipients: selected,
		InvitedRecipients:  []Invitee{},
		ScheduledTime:      scheduledTime,
		Status:             EventStatusPending,
		DispatchMode:       mode,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// InvitesAllUsers reports whether the event targets every active user rather
// than an explicit recipient list.
func (e *ScheduledEvent) InvitesAllUsers() bool {
	return len(e.SelectedRecipients) == 0
}

// ExpiresAt is the instant after which the sweep stops inviting for this event.
func (e *ScheduledEvent) ExpiresAt(grace time.Duration) time.Time {
	return e.Details.EndTime.Add(grace)
}

// Validate reports every problem that would make the event unstorable.
func (e *ScheduledEvent) Validate() error {
	var errs []string
	if strings.TrimSpace(e.Details.Summary) == "" {
		errs = append(errs, "summary is required")
	}
	if e.Details.StartTime.IsZero() {
		errs = append(errs, "start time is required")
	}
	if e.Details.EndTime.IsZero() {
		errs = append(errs, "end time is required")
	}
	if !e.Details.StartTime.IsZero() && !e.Details.EndTime.IsZero() && e.Details.EndTime.Before(e.Details.StartTime) {
		errs = append(errs, "end time must not be before start time")
	}
	if !e.Status.Valid() {
		errs = append(errs, fmt.Sprintf("unknown status %q", e.Status))
	}
	if e.DispatchMode != DispatchModeSweep && e.DispatchMode != DispatchModeImmediate {
		errs = append(errs, fmt.Sprintf("unknown dispatch mode %q", e.DispatchMode))
	}
	for i, inv := range e.SelectedRecipients {
		if strings.TrimSpace(inv.Email) == "" {
			errs = append(errs, fmt.Sprintf("selected recipient %d has no email", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidEvent, strings.Join(errs, "; "))
	}
	return nil
}

// TransitionTo moves the event to next, refusing transitions outside the state machine.
func (e *ScheduledEvent) TransitionTo(next EventStatus, at time.Time) error {
	if !e.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, next)
	}
	e.Status = next
	e.UpdatedAt = at
	return nil
}

// RecordInvited appends a snapshot of a successfully invited recipient.
func (e *ScheduledEvent) RecordInvited(r Recipient) {
	e.InvitedRecipients = append(e.InvitedRecipients, Invitee{Email: r.Email, Name: r.Name})
}

// ScheduledEventRepository is the event store.
type ScheduledEventRepository interface {
	Create(ctx context.Context, event *ScheduledEvent) error
	Save(ctx context.Context, event *ScheduledEvent) error
	GetByID(ctx context.Context, id string) (*ScheduledEvent, error)
	// FindPending returns pending events that belong to the sweep flow.
	FindPending(ctx context.Context) ([]*ScheduledEvent, error)
	List(ctx context.Context, params PaginationParams) ([]*ScheduledEvent, int, error)
}

// DispatchReport summarises one immediate dispatch.
type DispatchReport struct {
	EventID string       `json:"event_id"`
	Status  EventStatus  `json:"status"`
	Sent    int          `json:"sent"`
	Failed  []FailedSend `json:"failed"`
}

// FailedSend describes one recipient whose invitation could not be delivered.
type FailedSend struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// ScheduledEventService is the business API over scheduled events.
type ScheduledEventService interface {
	ScheduleEvent(ctx context.Context, event *ScheduledEvent) error
	SendNow(ctx context.Context, event *ScheduledEvent) (*DispatchReport, error)
	DispatchNow(ctx context.Context, eventID string) (*DispatchReport, error)
	GetByID(ctx context.Context, eventID string) (*ScheduledEvent, error)
	List(ctx context.Context, params PaginationParams) ([]*ScheduledEvent, int, error)
	GetTracking(ctx context.Context, eventID string) (*InvitationTracking, error)
}
