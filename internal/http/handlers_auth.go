package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
	"github.com/target/go-entraid-auth/internal/ports"
	"github.com/target/go-entraid-auth/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginSignIn(ctx context.Context) (*ports.AuthRequest, error)
	CompleteSignIn(ctx context.Context, input service.CompleteSignInInput) (*service.CompleteSignInResult, error)
	Refresh(ctx context.Context, session domainauth.Session) (*service.RefreshResult, error)
	DecodeSession(raw string) (*domainauth.Session, bool)
	LogoutURL(idToken string) string
}

// AuthHandlers provides HTTP handlers for the authentication actions.
// Each action is a single request/response transition; all flow state
// travels in cookies.
type AuthHandlers struct {
	Svc    AuthServiceInterface
	CSRF   *CSRFGuard
	Cookie SessionCookie
	IsDev  bool
	Logger *slog.Logger

	// BaseURL makes post-auth redirects absolute when set. Needed when the
	// app sits behind a proxy that rewrites relative Location headers.
	BaseURL string
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// SignIn handles the sign-in initiation endpoint.
// GET /auth/signin.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	if !h.IsDev && !isHTTPS(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "https_required",
			Err:     errors.New("sign-in requires HTTPS"),
		})
		return
	}

	result, err := h.Svc.BeginSignIn(r.Context())
	if err != nil {
		h.logger().ErrorContext(r.Context(), "sign-in initiation failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "signin_failed",
			Err:     errors.New("unable to start sign-in"),
		})
		return
	}

	csrfToken, err := h.CSRF.Generate()
	if err != nil {
		h.logger().ErrorContext(r.Context(), "csrf token generation failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "signin_failed",
			Err:     errors.New("unable to start sign-in"),
		})
		return
	}

	// Store the handshake values the callback will need.
	setEphemeralCookie(w, stateCookieName, result.State, oauthCookieMaxAge)
	setEphemeralCookie(w, verifierCookieName, result.CodeVerifier, oauthCookieMaxAge)
	setEphemeralCookie(w, nonceCookieName, result.Nonce, oauthCookieMaxAge)
	setEphemeralCookie(w, csrfCookieName, csrfToken, csrfCookieMaxAge)

	http.Redirect(w, r, result.URL, http.StatusFound)
}

// Callback handles the OAuth callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	// The identity provider reports user-facing errors (consent denied,
	// etc.) via the error query parameter; echo those home rather than
	// failing the request.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.redirectWithError(w, r, errParam)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	// Anti-replay check for the OAuth dance itself: the state echoed by
	// the provider must exactly match the value minted at sign-in.
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	verifierCookie, err := r.Cookie(verifierCookieName)
	if err != nil || verifierCookie.Value == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_verifier",
			Err:     errors.New("missing code verifier"),
		})
		return
	}

	result, err := h.Svc.CompleteSignIn(r.Context(), service.CompleteSignInInput{
		Code:         code,
		State:        state,
		CodeVerifier: verifierCookie.Value,
	})
	if err != nil {
		if errors.Is(err, service.ErrTenantNotAllowed) {
			h.redirectWithError(w, r, "tenant_not_allowed")
			return
		}
		// Never forward raw provider error text to the client.
		h.logger().ErrorContext(r.Context(), "sign-in completion failed", "error", err)
		h.redirectWithError(w, r, "authentication_failed")
		return
	}

	h.Cookie.Set(w, result.Token)
	clearOAuthCookies(w)
	http.Redirect(w, r, h.homeURL(), http.StatusFound)
}

// SignOut handles the sign-out endpoint.
// GET /auth/signout.
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	// Best-effort decode: sign-out works whether or not a valid session exists.
	session, ok := h.Svc.DecodeSession(h.Cookie.Read(r))

	h.Cookie.Clear(w)

	target := h.homeURL()
	if ok && session.IDToken != "" {
		// Sign out of the provider too; its end-session page redirects
		// back via post_logout_redirect_uri when configured.
		target = h.Svc.LogoutURL(session.IDToken)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Me returns the current authenticated user.
// GET /auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Svc.DecodeSession(h.Cookie.Read(r))
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "not_authenticated",
			Err:     errors.New("not authenticated"),
		})
		return
	}
	// DecodeSession already rejects elapsed sessions, so this branch is
	// unreachable today; it stays as a guard should the codec ever stop
	// enforcing expiry itself.
	if session.Expired(time.Now()) {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "session_expired",
			Err:     errors.New("session expired"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user":      session.User,
		"expiresAt": session.ExpiresAtTime().UTC().Format(time.RFC3339),
	})
}

// Refresh exchanges the session's refresh token for fresh tokens and
// rewrites the session cookie.
// POST /auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Svc.DecodeSession(h.Cookie.Read(r))
	if !ok {
		h.Cookie.Clear(w)
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "not_authenticated",
			Err:     errors.New("not authenticated"),
		})
		return
	}

	result, err := h.Svc.Refresh(r.Context(), *session)
	if err != nil {
		// A failed refresh always invalidates the local session rather
		// than leaving a stale one.
		if !service.IsNoRefreshToken(err) {
			h.logger().WarnContext(r.Context(), "token refresh failed", "error", err)
		}
		h.Cookie.Clear(w)
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "refresh_failed",
			Err:     errors.New("unable to refresh session"),
		})
		return
	}

	h.Cookie.Set(w, result.Token)
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Handle dispatches /auth/{action} requests to the matching handler.
// Unknown actions yield a 404 JSON body.
func (h *AuthHandlers) Handle(w http.ResponseWriter, r *http.Request) {
	switch path.Base(r.URL.Path) {
	case "signin":
		h.SignIn(w, r)
	case "callback":
		h.Callback(w, r)
	case "signout":
		h.SignOut(w, r)
	case "me":
		h.Me(w, r)
	case "refresh":
		h.Refresh(w, r)
	default:
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "unknown_action",
			Err:     errors.New("unknown authentication action"),
		})
	}
}

// homeURL returns the application landing URL, absolute when BaseURL is
// configured.
func (h *AuthHandlers) homeURL() string {
	if h.BaseURL == "" {
		return "/"
	}
	return strings.TrimSuffix(h.BaseURL, "/") + "/"
}

// redirectWithError sends the client home with the error echoed as a query
// parameter.
func (h *AuthHandlers) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	q := url.Values{}
	q.Set("error", code)
	http.Redirect(w, r, h.homeURL()+"?"+q.Encode(), http.StatusFound)
}

// isHTTPS reports whether the request arrived over HTTPS, accounting for
// proxies via X-Forwarded-Proto (comma-separated values tolerated).
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
