package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlift/chatlift/internal/shared"
)

func testTokenManager(ttl time.Duration) *TokenManager {
	return NewTokenManager("unit-test-secret", ttl)
}

func TestTokenRoundTrip(t *testing.T) {
	tm := testTokenManager(2 * time.Hour)
	user := &User{ID: 42, Email: "ops@acme.test", FullName: "Ops"}

	token, err := tm.Issue(user, []string{"editor", "support"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), subject)
}

func TestTokenExpiry(t *testing.T) {
	tm := testTokenManager(2 * time.Hour)
	user := &User{ID: 7, Email: "late@acme.test"}

	token, err := tm.Issue(user, nil)
	require.NoError(t, err)

	// Advance the clock past the TTL.
	tm.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := testTokenManager(time.Hour)
	verifier := NewTokenManager("a-different-secret", time.Hour)

	token, err := issuer.Issue(&User{ID: 1, Email: "a@b.test"}, nil)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestTokenGarbageInput(t *testing.T) {
	tm := testTokenManager(time.Hour)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := tm.Verify(raw)
		assert.ErrorIs(t, err, shared.ErrInvalidToken, "input %q", raw)
	}
}

func TestTokenPrimaryRoleSnapshot(t *testing.T) {
	tm := testTokenManager(time.Hour)
	user := &User{ID: 9, Email: "x@y.test"}

	// No roles: the snapshot falls back to the default role name.
	token, err := tm.Issue(user, nil)
	require.NoError(t, err)
	claims := decodeClaims(t, tm, token)
	assert.Equal(t, shared.RoleUser, claims.Role)
	assert.Empty(t, claims.Roles)

	// With roles: the first assigned role leads.
	token, err = tm.Issue(user, []string{"editor", "support"})
	require.NoError(t, err)
	claims = decodeClaims(t, tm, token)
	assert.Equal(t, "editor", claims.Role)
	assert.Equal(t, []string{"editor", "support"}, claims.Roles)
}

func decodeClaims(t *testing.T, tm *TokenManager, token string) Claims {
	t.Helper()
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return tm.secret, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	return claims
}
