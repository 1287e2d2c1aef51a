package domain

import (
	"context"
	"time"
)

// SweepReport summarises one run of the invitation sweep.
// swagger:model SweepReport
type SweepReport struct {
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	EventsScanned   int       `json:"events_scanned"`
	EventsExpired   int       `json:"events_expired"`
	EventsSkipped   int       `json:"events_skipped"`
	EventsFailed    int       `json:"events_failed"`
	InvitationsSent int       `json:"invitations_sent"`
	SendFailures    int       `json:"send_failures"`
}

// Sweeper runs one invitation sweep.
type Sweeper interface {
	RunOnce(ctx context.Context) (*SweepReport, error)
}

// SweepTrigger runs a sweep on demand. ran is false when a sweep was already in flight.
type SweepTrigger interface {
	Trigger(ctx context.Context) (report *SweepReport, ran bool, err error)
}
