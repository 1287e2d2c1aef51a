package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() *ScheduledEvent {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return NewScheduledEvent(EventDetails{
		StartTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		Summary:   "Quarterly review",
		Organizer: Organizer{Name: "Ops", Email: "ops@example.com"},
	}, nil, now, DispatchModeSweep, now)
}

func TestScheduledEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *ScheduledEvent)
		wantErr bool
	}{
		{name: "valid", mutate: func(e *ScheduledEvent) {}},
		{name: "zero-length event", mutate: func(e *ScheduledEvent) { e.Details.EndTime = e.Details.StartTime }},
		{name: "missing summary", mutate: func(e *ScheduledEvent) { e.Details.Summary = "  " }, wantErr: true},
		{name: "end before start", mutate: func(e *ScheduledEvent) { e.Details.EndTime = e.Details.StartTime.Add(-time.Minute) }, wantErr: true},
		{name: "missing start", mutate: func(e *ScheduledEvent) { e.Details.StartTime = time.Time{} }, wantErr: true},
		{name: "unknown status", mutate: func(e *ScheduledEvent) { e.Status = "archived" }, wantErr: true},
		{name: "unknown mode", mutate: func(e *ScheduledEvent) { e.DispatchMode = "" }, wantErr: true},
		{name: "selected recipient without email", mutate: func(e *ScheduledEvent) {
			e.SelectedRecipients = []Invitee{{Name: "Nobody"}}
		}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent()
			tt.mutate(e)
			err := e.Validate()
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrInvalidEvent))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEventStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to EventStatus
		want     bool
	}{
		{EventStatusPending, EventStatusCompleted, true},
		{EventStatusPending, EventStatusProcessing, true},
		{EventStatusProcessing, EventStatusCompleted, true},
		{EventStatusProcessing, EventStatusFailed, true},
		{EventStatusPending, EventStatusFailed, false},
		{EventStatusCompleted, EventStatusPending, false},
		{EventStatusFailed, EventStatusProcessing, false},
		{EventStatusCompleted, EventStatusCompleted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestScheduledEvent_TransitionTo(t *testing.T) {
	e := validEvent()
	at := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, e.TransitionTo(EventStatusCompleted, at))
	assert.Equal(t, EventStatusCompleted, e.Status)
	assert.Equal(t, at, e.UpdatedAt)

	err := e.TransitionTo(EventStatusPending, at)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, EventStatusCompleted, e.Status)
}

func TestScheduledEvent_ExpiresAt(t *testing.T) {
	e := validEvent()
	assert.Equal(t, time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC), e.ExpiresAt(24*time.Hour))
	assert.True(t, e.InvitesAllUsers())

	e.SelectedRecipients = []Invitee{{Email: "a@example.com"}}
	assert.False(t, e.InvitesAllUsers())
}
