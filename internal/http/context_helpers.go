package httpx

import (
	"context"

	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the session from context and a boolean indicating presence.
func GetSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// GetUserFromContext returns the authenticated user from context, if any.
func GetUserFromContext(ctx context.Context) (*domainauth.User, bool) {
	session, ok := GetSessionFromContext(ctx)
	if !ok {
		return nil, false
	}
	u := session.User
	return &u, true
}
