package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := &User{ID: 42, Email: "amal@example.com", Role: shared.RoleServiceProvider, IsStaff: false}

	raw, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "amal@example.com", claims.Email)
	assert.Equal(t, shared.RoleServiceProvider, claims.Role)
	assert.False(t, claims.IsStaff)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	raw, err := NewTokenIssuer("secret-a", time.Hour).Issue(&User{ID: 1})
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestTokenRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)
	raw, err := issuer.Issue(&User{ID: 1})
	require.NoError(t, err)

	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestTokenRejectsGarbage(t *testing.T) {
	_, err := NewTokenIssuer("test-secret", time.Hour).Parse("not-a-token")
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)
}
