package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"stagholme/internal/domain"
)

type invitationTrackingRepository struct {
	DB *sql.DB
}

func NewInvitationTrackingRepository(db *sql.DB) domain.InvitationTrackingRepository {
	return &invitationTrackingRepository{DB: db}
}

func (r *invitationTrackingRepository) GetByEventID(ctx context.Context, eventID string) (*domain.InvitationTracking, error) {
	query := `
		SELECT id, event_id, last_sweep_at, processed
		FROM invitation_tracking
		WHERE event_id = $1
	`
	t := &domain.InvitationTracking{}
	var processed []byte
	err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&t.ID, &t.EventID, &t.LastSweepAt, &processed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	t.Processed = []domain.ProcessedRecipient{}
	if len(processed) > 0 {
		if err := json.Unmarshal(processed, &t.Processed); err != nil {
			return nil, fmt.Errorf("decode processed for event %s: %w", eventID, err)
		}
	}
	if t.Processed == nil {
		t.Processed = []domain.ProcessedRecipient{}
	}
	return t, nil
}

// Save upserts the ledger for t.EventID in a single statement and sets t.ID.
func (r *invitationTrackingRepository) Save(ctx context.Context, t *domain.InvitationTracking) error {
	processed, err := encodeJSONList(t.Processed)
	if err != nil {
		return fmt.Errorf("encode processed: %w", err)
	}
	query := `
		INSERT INTO invitation_tracking (event_id, last_sweep_at, processed)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO UPDATE
		SET last_sweep_at = EXCLUDED.last_sweep_at, processed = EXCLUDED.processed
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, t.EventID, t.LastSweepAt, processed).Scan(&t.ID)
}
