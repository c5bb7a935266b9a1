package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
)

// SessionDecoder is the slice of the auth service the middleware needs.
type SessionDecoder interface {
	DecodeSession(raw string) (*domainauth.Session, bool)
}

// AuthorizeConfig holds configuration for the per-request authorization gate.
type AuthorizeConfig struct {
	// Svc decodes the session cookie.
	Svc SessionDecoder
	// CSRF verifies anti-forgery tokens on mutating methods.
	CSRF *CSRFGuard
	// Cookie reads and clears the session cookie.
	Cookie SessionCookie
	// IsDev disables HTTPS enforcement.
	IsDev bool
	// BypassPrefixes lists path prefixes skipped entirely. The auth action
	// paths are always bypassed in addition to these.
	BypassPrefixes []string
	// RequireAuth rejects anonymous requests when true.
	RequireAuth bool
	// RequiredRoles grants access when the user holds ANY listed role.
	RequiredRoles []string
	// RequiredClaims must ALL match the user's claims exactly.
	RequiredClaims map[string]any
	// OnUnauthorized overrides the default redirect-to-sign-in response.
	OnUnauthorized http.HandlerFunc
	// OnForbidden overrides the default 403 response.
	OnForbidden http.HandlerFunc
}

// Authorize returns the per-request authorization middleware: HTTPS
// enforcement, CSRF enforcement on mutating methods, session lookup, and
// auth/role/claim requirement evaluation. Requests that pass with a session
// are annotated with the x-user-authenticated and x-user-id headers and
// carry the session in context.
func Authorize(cfg AuthorizeConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypassed(r.URL.Path, cfg.BypassPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			if !cfg.IsDev && !isHTTPS(r) {
				redirectToHTTPS(w, r)
				return
			}

			if mutating(r.Method) {
				token := cfg.CSRF.FromRequest(r)
				if !cfg.CSRF.Validate(token) {
					WriteError(w, ErrorParams{
						Code:    http.StatusForbidden,
						ErrCode: "invalid_csrf_token",
						Err:     errors.New("CSRF token validation failed"),
					})
					return
				}
			}

			raw := cfg.Cookie.Read(r)
			session, ok := cfg.Svc.DecodeSession(raw)

			if !cfg.RequireAuth {
				if ok {
					annotate(w, r, session)
					r = r.WithContext(SetSessionInContext(r.Context(), session))
				}
				next.ServeHTTP(w, r)
				return
			}

			if !ok {
				// An unreadable cookie (expired, tampered, wrong key) is
				// cleared so the client does not keep presenting it.
				if raw != "" {
					cfg.Cookie.Clear(w)
				}
				unauthorized(w, r, cfg)
				return
			}

			if len(cfg.RequiredRoles) > 0 && !session.User.HasAnyRole(cfg.RequiredRoles...) {
				forbidden(w, r, cfg)
				return
			}

			for key, want := range cfg.RequiredClaims {
				if !reflect.DeepEqual(session.User.Claims[key], want) {
					forbidden(w, r, cfg)
					return
				}
			}

			annotate(w, r, session)
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), session)))
		})
	}
}

// WithAuth wraps a single handler with the authorization gate.
func WithAuth(h http.HandlerFunc, cfg AuthorizeConfig) http.Handler {
	return Authorize(cfg)(h)
}

// mutating reports whether the method requires CSRF validation.
func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// bypassed reports whether the path skips authorization entirely: the auth
// action paths themselves plus any configured prefixes.
func bypassed(path string, prefixes []string) bool {
	if strings.HasPrefix(path, authPathPrefix) {
		return true
	}
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// redirectToHTTPS permanently redirects the request to its HTTPS equivalent.
func redirectToHTTPS(w http.ResponseWriter, r *http.Request) {
	target := url.URL{
		Scheme:   "https",
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
	http.Redirect(w, r, target.String(), http.StatusMovedPermanently)
}

func unauthorized(w http.ResponseWriter, r *http.Request, cfg AuthorizeConfig) {
	if cfg.OnUnauthorized != nil {
		cfg.OnUnauthorized(w, r)
		return
	}
	http.Redirect(w, r, SignInPath, http.StatusFound)
}

func forbidden(w http.ResponseWriter, r *http.Request, cfg AuthorizeConfig) {
	if cfg.OnForbidden != nil {
		cfg.OnForbidden(w, r)
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusForbidden,
		ErrCode: "insufficient_permissions",
		Err:     errors.New("insufficient permissions"),
	})
}

// annotate marks the response for downstream consumption.
func annotate(w http.ResponseWriter, _ *http.Request, session *domainauth.Session) {
	w.Header().Set("x-user-authenticated", "true")
	w.Header().Set("x-user-id", session.User.ID)
}
