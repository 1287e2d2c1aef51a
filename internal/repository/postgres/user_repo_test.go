package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"stagholme/internal/domain"
)

var userColumns = []string{"id", "email", "first_name", "last_name", "is_active", "created_at", "updated_at"}

func TestUserRepository_ListActiveCreatedAfter(t *testing.T) {
	ctx := context.Background()
	since := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    []*domain.User
		wantErr bool
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, email, first_name, last_name, is_active, created_at, updated_at\s+FROM users\s+WHERE is_active = TRUE AND created_at > \$1`).
					WithArgs(since).
					WillReturnRows(sqlmock.NewRows(userColumns).
						AddRow("user-1", "alice@example.com", "Alice", "Ng", true, created, created))
			},
			want: []*domain.User{{
				ID: "user-1", Email: "alice@example.com", FirstName: "Alice", LastName: "Ng",
				Active: true, CreatedAt: created, UpdatedAt: created,
			}},
		},
		{
			name: "no rows returns empty slice",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users`).
					WithArgs(since).
					WillReturnRows(sqlmock.NewRows(userColumns))
			},
			want: []*domain.User{},
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewUserRepository(db)
			got, err := repo.ListActiveCreatedAfter(ctx, since)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE is_active = TRUE\s+ORDER BY created_at ASC`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("user-1", "a@example.com", "", "", true, created, created).
			AddRow("user-2", "b@example.com", "Bo", "", true, created, created))

	got, err := NewUserRepository(db).ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Bo", got[1].DisplayName())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM users\s+WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = NewUserRepository(db).GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
