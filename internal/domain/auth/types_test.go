package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClaims_String(t *testing.T) {
	claims := Claims{"sub": "user-1", "count": 3}

	assert.Equal(t, "user-1", claims.String("sub"))
	assert.Empty(t, claims.String("count"), "non-string claim reads as empty")
	assert.Empty(t, claims.String("missing"))
}

func TestClaims_StringSlice(t *testing.T) {
	claims := Claims{
		"scalar": "admin",
		"typed":  []string{"a", "b"},
		"json":   []any{"x", 2, "y"},
		"number": 7,
	}

	assert.Equal(t, []string{"admin"}, claims.StringSlice("scalar"))
	assert.Equal(t, []string{"a", "b"}, claims.StringSlice("typed"))
	assert.Equal(t, []string{"x", "y"}, claims.StringSlice("json"), "non-string members skipped")
	assert.Nil(t, claims.StringSlice("number"))
	assert.Nil(t, claims.StringSlice("missing"))
}

func TestUser_RoleChecks(t *testing.T) {
	user := User{Roles: []string{"admin", "viewer"}}

	assert.True(t, user.HasRole("admin"))
	assert.False(t, user.HasRole("editor"))

	assert.True(t, user.HasAnyRole("editor", "viewer"))
	assert.False(t, user.HasAnyRole("editor", "owner"))

	assert.True(t, user.HasAllRoles("admin", "viewer"))
	assert.False(t, user.HasAllRoles("admin", "editor"))
	assert.True(t, user.HasAllRoles(), "vacuously true with no roles required")
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	session := Session{ExpiresAt: now.Add(time.Minute).UnixMilli()}

	assert.False(t, session.Expired(now))
	assert.True(t, session.Expired(now.Add(2*time.Minute)))
	assert.True(t, session.Expired(session.ExpiresAtTime()), "boundary counts as expired")
}

func TestNewSessionExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ts := TokenSet{ExpiresAt: 1_900_000_000}
	assert.Equal(t, int64(1_900_000_000_000), NewSessionExpiry(ts, now), "seconds scale to milliseconds")

	assert.Equal(t, now.Add(time.Hour).UnixMilli(), NewSessionExpiry(TokenSet{}, now),
		"missing provider expiry defaults to one hour out")
}
