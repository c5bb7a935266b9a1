package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Claims is a bag of token/userinfo claims as decoded from JSON: values are
// strings, numbers, bools, arrays, or nested objects. Typed accessors below
// cover the shapes this module actually consumes.
type Claims map[string]any

// String returns the claim as a string, or "" when absent or not a string.
func (c Claims) String(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// StringSlice returns the claim as a string slice. Scalars become a
// one-element slice; non-string array members are skipped.
func (c Claims) StringSlice(key string) []string {
	switch v := c[key].(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// User is the normalized principal produced by the claims mapper at callback
// time. It is immutable once created and travels inside the Session.
type User struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	Name              string   `json:"name"`
	PreferredUsername string   `json:"preferredUsername,omitempty"`
	TenantID          string   `json:"tenantId,omitempty"`
	Roles             []string `json:"roles"`
	Claims            Claims   `json:"claims"`
}

// HasRole reports whether the user carries the given role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user carries at least one of the given roles.
func (u User) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether the user carries every one of the given roles.
func (u User) HasAllRoles(roles ...string) bool {
	for _, r := range roles {
		if !u.HasRole(r) {
			return false
		}
	}
	return true
}

// TokenSet is the provider's token endpoint response from a code exchange or
// refresh. It is never persisted raw; it is folded into a Session.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	// ExpiresAt is a seconds-epoch timestamp; zero means the provider did
	// not report one.
	ExpiresAt int64  `json:"expires_at,omitempty"`
	TokenType string `json:"token_type"`
	Scope     string `json:"scope,omitempty"`
}

// Session is the authenticated state carried inside the signed cookie.
// There is no server-side backing store: clearing the cookie or letting it
// expire destroys the session.
type Session struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	// ExpiresAt is a milliseconds-epoch timestamp, derived from the
	// TokenSet's seconds-epoch expires_at.
	ExpiresAt int64  `json:"expiresAt"`
	IDToken   string `json:"idToken,omitempty"`
}

// Expired reports whether the session's application-level expiry has passed.
func (s Session) Expired(now time.Time) bool {
	return now.UnixMilli() >= s.ExpiresAt
}

// ExpiresAtTime returns the expiry as a time.Time.
func (s Session) ExpiresAtTime() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}

// NewSessionExpiry derives a session expiry (ms epoch) from a TokenSet
// seconds-epoch expiry, defaulting to one hour from now when the provider
// did not report one.
func NewSessionExpiry(ts TokenSet, now time.Time) int64 {
	if ts.ExpiresAt > 0 {
		return ts.ExpiresAt * 1000
	}
	return now.Add(time.Hour).UnixMilli()
}

// ClaimMapping copies a claim from a dot-path in the combined claim set to a
// target key in the user's claims, optionally transformed. Static
// configuration, not per-request state.
type ClaimMapping struct {
	// Source is a dot-path into the combined id-token/userinfo claims.
	Source string
	// Target is the output key in User.Claims.
	Target string
	// Transform, when set, rewrites the resolved value before storing it.
	Transform func(any) any
}

// RoleMapping controls how roles are extracted from claims. Static
// configuration, not per-request state.
type RoleMapping struct {
	// ClaimName is the dot-path of the claim holding role values.
	ClaimName string
	// RolePrefix is prepended to every mapped role value.
	RolePrefix string
	// StaticRoles are always included.
	StaticRoles []string
	// RoleMap substitutes raw claim values before prefixing.
	RoleMap map[string]string
}
