package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// User is a platform user who can be invited to events.
// swagger:model User
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName is "first last", trimmed; empty when the user has no name.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Recipient is an invitation target derived from a user or an invitee.
type Recipient struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time // zero for explicitly selected invitees
}

// RecipientFromUser snapshots the user's current name and email.
func RecipientFromUser(u *User) Recipient {
	return Recipient{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.DisplayName(),
		CreatedAt: u.CreatedAt,
	}
}

// RecipientFromInvitee identifies an explicitly selected invitee by its normalised email.
func RecipientFromInvitee(inv Invitee) Recipient {
	email := NormalizeEmail(inv.Email)
	return Recipient{
		ID:    email,
		Email: email,
		Name:  strings.TrimSpace(inv.Name),
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRepository is the source of invitable users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	ListActive(ctx context.Context) ([]*User, error)
	// ListActiveCreatedAfter returns active users created strictly after ts, oldest first.
	ListActiveCreatedAfter(ctx context.Context, ts time.Time) ([]*User, error)
}

// TokenIssuer issues bearer tokens for admin API access.
type TokenIssuer interface {
	Issue(subject, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}
