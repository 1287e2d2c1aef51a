package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"stagholme/internal/domain"
)

const scheduledEventColumns = `id, start_time, end_time, summary, description, location,
		organizer_name, organizer_email, selected_recipients, invited_recipients,
		scheduled_time, status, dispatch_mode, created_at, updated_at`

type scheduledEventRepository struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewScheduledEventRepository returns the Postgres event store. Rows whose
// recipient columns cannot be decoded are logged and left out of list results.
func NewScheduledEventRepository(db *sql.DB, logger *slog.Logger) domain.ScheduledEventRepository {
	return &scheduledEventRepository{DB: db, logger: logger}
}

func (r *scheduledEventRepository) Create(ctx context.Context, e *domain.ScheduledEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	selected, invited, err := encodeRecipients(e)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO scheduled_events (start_time, end_time, summary, description, location,
			organizer_name, organizer_email, selected_recipients, invited_recipients,
			scheduled_time, status, dispatch_mode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	d := e.Details
	return r.DB.QueryRowContext(ctx, query,
		d.StartTime, d.EndTime, d.Summary, d.Description, d.Location,
		d.Organizer.Name, d.Organizer.Email, selected, invited,
		e.ScheduledTime, string(e.Status), string(e.DispatchMode), e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *scheduledEventRepository) Save(ctx context.Context, e *domain.ScheduledEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	selected, invited, err := encodeRecipients(e)
	if err != nil {
		return err
	}
	query := `
		UPDATE scheduled_events
		SET start_time = $1, end_time = $2, summary = $3, description = $4, location = $5,
			organizer_name = $6, organizer_email = $7, selected_recipients = $8, invited_recipients = $9,
			scheduled_time = $10, status = $11, dispatch_mode = $12, updated_at = $13
		WHERE id = $14
	`
	d := e.Details
	result, err := r.DB.ExecContext(ctx, query,
		d.StartTime, d.EndTime, d.Summary, d.Description, d.Location,
		d.Organizer.Name, d.Organizer.Email, selected, invited,
		e.ScheduledTime, string(e.Status), string(e.DispatchMode), e.UpdatedAt, e.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *scheduledEventRepository) GetByID(ctx context.Context, id string) (*domain.ScheduledEvent, error) {
	query := `SELECT ` + scheduledEventColumns + `
		FROM scheduled_events
		WHERE id = $1
	`
	e, err := scanScheduledEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *scheduledEventRepository) FindPending(ctx context.Context) ([]*domain.ScheduledEvent, error) {
	query := `SELECT ` + scheduledEventColumns + `
		FROM scheduled_events
		WHERE status = $1 AND dispatch_mode = $2
		ORDER BY scheduled_time ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, string(domain.EventStatusPending), string(domain.DispatchModeSweep))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanEvents(ctx, rows)
}

func (r *scheduledEventRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.ScheduledEvent, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM scheduled_events`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + scheduledEventColumns + `
		FROM scheduled_events
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events, err := r.scanEvents(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// scanEvents reads every row, skipping rows with corrupt recipient JSON.
func (r *scheduledEventRepository) scanEvents(ctx context.Context, rows *sql.Rows) ([]*domain.ScheduledEvent, error) {
	events := make([]*domain.ScheduledEvent, 0)
	for rows.Next() {
		e, err := scanScheduledEvent(rows)
		var corrupt *corruptRowError
		if errors.As(err, &corrupt) {
			r.logger.WarnContext(ctx, "skipping undecodable scheduled event", "event_id", corrupt.id, "column", corrupt.column, "err", corrupt.err)
			continue
		}
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduledEvent(row rowScanner) (*domain.ScheduledEvent, error) {
	e := &domain.ScheduledEvent{}
	var selected, invited []byte
	var status, mode string
	err := row.Scan(
		&e.ID, &e.Details.StartTime, &e.Details.EndTime, &e.Details.Summary, &e.Details.Description, &e.Details.Location,
		&e.Details.Organizer.Name, &e.Details.Organizer.Email, &selected, &invited,
		&e.ScheduledTime, &status, &mode, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	e.DispatchMode = domain.DispatchMode(mode)
	if e.SelectedRecipients, err = decodeInvitees(selected); err != nil {
		return nil, &corruptRowError{id: e.ID, column: "selected_recipients", err: err}
	}
	if e.InvitedRecipients, err = decodeInvitees(invited); err != nil {
		return nil, &corruptRowError{id: e.ID, column: "invited_recipients", err: err}
	}
	return e, nil
}

type corruptRowError struct {
	id     string
	column string
	err    error
}

func (e *corruptRowError) Error() string {
	return fmt.Sprintf("decode %s for %s: %v", e.column, e.id, e.err)
}

func (e *corruptRowError) Unwrap() error { return e.err }

func encodeRecipients(e *domain.ScheduledEvent) (selected, invited string, err error) {
	s, err := encodeJSONList(e.SelectedRecipients)
	if err != nil {
		return "", "", fmt.Errorf("encode selected_recipients: %w", err)
	}
	i, err := encodeJSONList(e.InvitedRecipients)
	if err != nil {
		return "", "", fmt.Errorf("encode invited_recipients: %w", err)
	}
	return s, i, nil
}

// encodeJSONList marshals a slice for a JSONB column, writing [] for nil.
func encodeJSONList[T any](list []T) (string, error) {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeInvitees(raw []byte) ([]domain.Invitee, error) {
	out := []domain.Invitee{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Invitee{}
	}
	return out, nil
}
