package domain

import (
	"context"
	"time"
)

// ProcessedRecipient is a recipient that has already been sent the invitation
// for an event, with the name and email it was sent to.
type ProcessedRecipient struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	InvitedAt time.Time `json:"invited_at"`
}

// InvitationTracking is the per-event idempotency ledger kept by the sweep.
// swagger:model InvitationTracking
type InvitationTracking struct {
	ID          string               `json:"id"`
	EventID     string               `json:"event_id"`
	LastSweepAt time.Time            `json:"last_sweep_at"`
	Processed   []ProcessedRecipient `json:"processed"`
}

// NewInvitationTracking returns an empty ledger whose watermark is now.
func NewInvitationTracking(eventID string, now time.Time) *InvitationTracking {
	return &InvitationTracking{
		EventID:     eventID,
		LastSweepAt: now,
		Processed:   []ProcessedRecipient{},
	}
}

// ProcessedIDs returns the processed recipient identifiers as a set.
func (t *InvitationTracking) ProcessedIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(t.Processed))
	for _, p := range t.Processed {
		ids[p.ID] = struct{}{}
	}
	return ids
}

// HasProcessed reports whether id is already in the processed set.
func (t *InvitationTracking) HasProcessed(id string) bool {
	for _, p := range t.Processed {
		if p.ID == id {
			return true
		}
	}
	return false
}

// MarkProcessed adds r to the processed set. It returns false and leaves the
// ledger untouched when r is already present.
func (t *InvitationTracking) MarkProcessed(r Recipient, at time.Time) bool {
	if t.HasProcessed(r.ID) {
		return false
	}
	t.Processed = append(t.Processed, ProcessedRecipient{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		InvitedAt: at,
	})
	return true
}

// InvitationTrackingRepository is the tracking store. Save upserts on EventID.
type InvitationTrackingRepository interface {
	GetByEventID(ctx context.Context, eventID string) (*InvitationTracking, error)
	Save(ctx context.Context, tracking *InvitationTracking) error
}
