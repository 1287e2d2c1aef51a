package services

import (
	"context"
	"fmt"
	"time"

	"stagholme/internal/domain"
)

// RecipientResolver works out who is still owed an invitation for an event.
type RecipientResolver struct {
	users domain.UserRepository
}

func NewRecipientResolver(users domain.UserRepository) *RecipientResolver {
	return &RecipientResolver{users: users}
}

// Outstanding returns the recipients not yet in tracking's processed set.
// Explicit lists keep their order; invite-all events only consider active
// users created after tracking.LastSweepAt, oldest first.
func (r *RecipientResolver) Outstanding(ctx context.Context, event *domain.ScheduledEvent, tracking *domain.InvitationTracking) ([]domain.Recipient, error) {
	processed := tracking.ProcessedIDs()

	if !event.InvitesAllUsers() {
		out := make([]domain.Recipient, 0, len(event.SelectedRecipients))
		seen := make(map[string]struct{}, len(event.SelectedRecipients))
		for _, inv := range event.SelectedRecipients {
			rec := domain.RecipientFromInvitee(inv)
			if rec.ID == "" {
				continue
			}
			if _, ok := seen[rec.ID]; ok {
				continue
			}
			seen[rec.ID] = struct{}{}
			if _, ok := processed[rec.ID]; ok {
				continue
			}
			out = append(out, rec)
		}
		return out, nil
	}

	users, err := r.users.ListActiveCreatedAfter(ctx, tracking.LastSweepAt)
	if err != nil {
		return nil, fmt.Errorf("list users created after %s: %w", tracking.LastSweepAt.Format(time.RFC3339), err)
	}
	out := make([]domain.Recipient, 0, len(users))
	for _, u := range users {
		if _, ok := processed[u.ID]; ok {
			continue
		}
		out = append(out, domain.RecipientFromUser(u))
	}
	return out, nil
}

// All returns every recipient of event with no watermark or ledger: the
// selected list when present, otherwise every active user.
func (r *RecipientResolver) All(ctx context.Context, event *domain.ScheduledEvent) ([]domain.Recipient, error) {
	if event.InvitesAllUsers() {
		users, err := r.users.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active users: %w", err)
		}
		out := make([]domain.Recipient, 0, len(users))
		for _, u := range users {
			out = append(out, domain.RecipientFromUser(u))
		}
		return out, nil
	}
	return r.Outstanding(ctx, event, &domain.InvitationTracking{})
}
