package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stagholme/internal/domain"
)

// RoleAdmin is the role required to use the admin API.
const RoleAdmin = "admin"

// ErrMissingRole is returned for a valid token without the required role.
var ErrMissingRole = fmt.Errorf("%w: token lacks required role", domain.ErrForbidden)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type jwtIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewJWTIssuer returns a TokenIssuer that signs JWTs with HS256 using the given secret.
func NewJWTIssuer(secret string) domain.TokenIssuer {
	return &jwtIssuer{secret: []byte(secret), now: time.Now}
}

func (i *jwtIssuer) Issue(subject, email string, roles []string, expiry time.Duration) (string, error) {
	now := i.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email: email,
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

type jwtVerifier struct {
	secret       []byte
	requiredRole string
}

// NewJWTVerifier returns a TokenVerifier accepting HS256 tokens signed with secret
// that carry requiredRole. An empty requiredRole accepts any valid token.
func NewJWTVerifier(secret, requiredRole string) domain.TokenVerifier {
	return &jwtVerifier{secret: []byte(secret), requiredRole: requiredRole}
}

func (v *jwtVerifier) Verify(token string) (string, error) {
	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if v.requiredRole != "" && !slices.Contains(claims.Roles, v.requiredRole) {
		return "", ErrMissingRole
	}
	return claims.Subject, nil
}
