package httpx

import (
	"net/http"
	"time"
)

// Ephemeral cookie names used between sign-in and callback. All four are
// set at sign-in and cleared once the callback completes.
const (
	stateCookieName    = "oauth_state"
	verifierCookieName = "oauth_code_verifier"
	nonceCookieName    = "oauth_nonce"
	csrfCookieName     = "csrf_token"
)

// Ephemeral cookie lifetimes: the OAuth handshake values live for ten
// minutes; the CSRF token for one hour.
const (
	oauthCookieMaxAge = 600
	csrfCookieMaxAge  = 3600
)

// SessionCookie writes and reads the signed session cookie. The session
// cookie and every ephemeral cookie are httpOnly, Secure, SameSite=Lax,
// and scoped to path "/".
type SessionCookie struct {
	Name   string
	MaxAge time.Duration
	Domain string
}

// Read returns the raw session cookie value, or empty string when absent.
func (c SessionCookie) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Set writes the encoded session token as the session cookie.
func (c SessionCookie) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.MaxAge.Seconds()),
	})
}

// Clear expires the session cookie immediately, mirroring the attributes
// used when setting it so browsers reliably delete it.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

// setEphemeralCookie writes one of the short-lived handshake cookies.
func setEphemeralCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// clearEphemeralCookie expires a handshake cookie immediately.
func clearEphemeralCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

// clearOAuthCookies expires all four handshake cookies.
func clearOAuthCookies(w http.ResponseWriter) {
	clearEphemeralCookie(w, stateCookieName)
	clearEphemeralCookie(w, verifierCookieName)
	clearEphemeralCookie(w, nonceCookieName)
	clearEphemeralCookie(w, csrfCookieName)
}
