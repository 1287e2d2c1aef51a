package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"stagholme/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, first_name, last_name, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	u := &domain.User{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) ListActive(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, email, first_name, last_name, is_active, created_at, updated_at
		FROM users
		WHERE is_active = TRUE
		ORDER BY created_at ASC
	`
	return r.list(ctx, query)
}

func (r *userRepository) ListActiveCreatedAfter(ctx context.Context, ts time.Time) ([]*domain.User, error) {
	query := `
		SELECT id, email, first_name, last_name, is_active, created_at, updated_at
		FROM users
		WHERE is_active = TRUE AND created_at > $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, ts)
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
