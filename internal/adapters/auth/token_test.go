package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("admin-1", "ops@example.com", []string{RoleAdmin}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "admin-1", claims.Subject)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, []string{RoleAdmin}, claims.Roles)
}

func TestJWTVerifier_Verify(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	adminToken, err := issuer.Issue("admin-1", "ops@example.com", []string{RoleAdmin}, time.Hour)
	require.NoError(t, err)
	userToken, err := issuer.Issue("user-1", "u@example.com", []string{"user"}, time.Hour)
	require.NoError(t, err)
	expired, err := issuer.Issue("admin-1", "ops@example.com", []string{RoleAdmin}, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewJWTIssuer("other-secret").Issue("admin-1", "ops@example.com", []string{RoleAdmin}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr error
	}{
		{name: "admin token", token: adminToken, want: "admin-1"},
		{name: "missing role", token: userToken, wantErr: ErrMissingRole},
		{name: "expired", token: expired},
		{name: "wrong secret", token: foreign},
		{name: "garbage", token: "not-a-jwt"},
	}
	v := NewJWTVerifier(secret, RoleAdmin)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Verify(tt.token)
			if tt.want == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
