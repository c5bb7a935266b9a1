package httpx

import (
	"net/http"
	"reflect"

	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
)

// AuthHelpers provides request-scoped conveniences for handlers embedded in
// an existing application: session and user lookup, role and claim checks,
// and the action URLs. It prefers the session annotated by the middleware
// and falls back to decoding the cookie directly.
type AuthHelpers struct {
	Svc    SessionDecoder
	Cookie SessionCookie
}

// Session returns the current session, if any.
func (h AuthHelpers) Session(r *http.Request) (*domainauth.Session, bool) {
	if session, ok := GetSessionFromContext(r.Context()); ok {
		return session, true
	}
	return h.Svc.DecodeSession(h.Cookie.Read(r))
}

// User returns the current authenticated user, if any.
func (h AuthHelpers) User(r *http.Request) (*domainauth.User, bool) {
	session, ok := h.Session(r)
	if !ok {
		return nil, false
	}
	u := session.User
	return &u, true
}

// AccessToken returns the current session's access token, or empty string.
func (h AuthHelpers) AccessToken(r *http.Request) string {
	session, ok := h.Session(r)
	if !ok {
		return ""
	}
	return session.AccessToken
}

// IsAuthenticated reports whether the request carries a valid session.
func (h AuthHelpers) IsAuthenticated(r *http.Request) bool {
	_, ok := h.Session(r)
	return ok
}

// HasRole reports whether the current user holds the role.
func (h AuthHelpers) HasRole(r *http.Request, role string) bool {
	user, ok := h.User(r)
	return ok && user.HasRole(role)
}

// HasAnyRole reports whether the current user holds at least one of the roles.
func (h AuthHelpers) HasAnyRole(r *http.Request, roles ...string) bool {
	user, ok := h.User(r)
	return ok && user.HasAnyRole(roles...)
}

// HasAllRoles reports whether the current user holds every listed role.
func (h AuthHelpers) HasAllRoles(r *http.Request, roles ...string) bool {
	user, ok := h.User(r)
	return ok && user.HasAllRoles(roles...)
}

// HasClaim reports whether the current user's claim matches value exactly.
func (h AuthHelpers) HasClaim(r *http.Request, key string, value any) bool {
	user, ok := h.User(r)
	if !ok {
		return false
	}
	return reflect.DeepEqual(user.Claims[key], value)
}

// SignInURL returns the sign-in action path.
func (AuthHelpers) SignInURL() string { return SignInPath }

// SignOutURL returns the sign-out action path.
func (AuthHelpers) SignOutURL() string { return SignOutPath }

// CallbackURL returns the callback action path.
func (AuthHelpers) CallbackURL() string { return CallbackPath }

// MeURL returns the current-user action path.
func (AuthHelpers) MeURL() string { return MePath }

// RefreshURL returns the refresh action path.
func (AuthHelpers) RefreshURL() string { return RefreshPath }
