package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/go-entraid-auth/config"
	"github.com/target/go-entraid-auth/internal/adapters/sessionjwt"
	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
)

func newAuthorizeConfig(t *testing.T) (AuthorizeConfig, *sessionjwt.Codec) {
	t.Helper()
	cfg := config.EntraIDConfig{CookieSecret: strings.Repeat("s", 32)}
	codec, err := sessionjwt.NewCodec(cfg)
	require.NoError(t, err)

	return AuthorizeConfig{
		Svc:    codecDecoder{codec},
		CSRF:   NewCSRFGuard(cfg.CookieSecret),
		Cookie: SessionCookie{Name: "entraid-session", MaxAge: 24 * time.Hour},
		IsDev:  true,
	}, codec
}

// codecDecoder adapts the codec to the SessionDecoder slice used by the middleware.
type codecDecoder struct {
	codec *sessionjwt.Codec
}

func (d codecDecoder) DecodeSession(raw string) (*domainauth.Session, bool) {
	return d.codec.Decode(raw)
}

func encodeTestSession(t *testing.T, codec *sessionjwt.Codec, user domainauth.User) string {
	t.Helper()
	token, err := codec.Encode(domainauth.Session{
		User:      user,
		ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
	})
	require.NoError(t, err)
	return token
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthorize_BypassesAuthPaths(t *testing.T) {
	cfg, _ := newAuthorizeConfig(t)
	cfg.RequireAuth = true
	cfg.IsDev = false

	var hit bool
	handler := Authorize(cfg)(okHandler(&hit))

	// Plain-HTTP, anonymous, but an auth action path: must pass untouched.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, SignInPath, nil))

	assert.True(t, hit)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthorize_BypassPrefixes(t *testing.T) {
	cfg, _ := newAuthorizeConfig(t)
	cfg.RequireAuth = true
	cfg.BypassPrefixes = []string{"/static/"}

	var hit bool
	handler := Authorize(cfg)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.True(t, hit)
}

func TestAuthorize_HTTPSRedirectOutsideDev(t *testing.T) {
	cfg, _ := newAuthorizeConfig(t)
	cfg.IsDev = false

	var hit bool
	handler := Authorize(cfg)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://app.example.com/page?x=1", nil))

	assert.False(t, hit)
	require.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "https://app.example.com/page?x=1", w.Header().Get("Location"))
}

func TestAuthorize_CSRFOnMutatingMethods(t *testing.T) {
	cfg, _ := newAuthorizeConfig(t)

	var hit bool
	handler := Authorize(cfg)(okHandler(&hit))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		hit = false
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(method, "/submit", nil))
		assert.Equal(t, http.StatusForbidden, w.Code, method)
		assert.False(t, hit, method)
	}

	// GET is exempt.
	hit = false
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))
	assert.True(t, hit)

	// A freshly minted token passes, via header or query fallback.
	token, err := cfg.CSRF.Generate()
	require.NoError(t, err)

	hit = false
	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/submit", nil)
	r.Header.Set("x-csrf-token", token)
	handler.ServeHTTP(w, r)
	assert.True(t, hit)

	hit = false
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/submit?_csrf="+token, nil))
	assert.True(t, hit)
}

func TestAuthorize_AnonymousAllowedWithoutRequireAuth(t *testing.T) {
	cfg, _ := newAuthorizeConfig(t)

	var hit bool
	handler := Authorize(cfg)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))

	assert.True(t, hit)
	assert.Empty(t, w.Header().Get("x-user-authenticated"))
	assert.Empty(t, w.Header().Get("x-user-id"))
}

func TestAuthorize_AnnotatesSessionWithoutRequireAuth(t *testing.T) {
	cfg, codec := newAuthorizeConfig(t)
	token := encodeTestSession(t, codec, domainauth.User{ID: "u1"})

	var gotUser *domainauth.User
	handler := Authorize(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/page", nil)
	r.AddCookie(&http.Cookie{Name: cfg.Cookie.Name, Value: token})
	handler.ServeHTTP(w, r)

	assert.Equal(t, "true", w.Header().Get("x-user-authenticated"))
	assert.Equal(t, "u1", w.Header().Get("x-user-id"))
	require.NotNil(t, gotUser)
	assert.Equal(t, "u1", gotUser.ID)
}

func TestAuthorize_RequireAuth_RedirectsAnonymous(t *testing.T) {
	cfg, _ := newAuthorizeConfig(t)
	cfg.RequireAuth = true

	var hit bool
	handler := Authorize(cfg)(okHandler(&hit))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.False(t, hit)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, SignInPath, w.Header().Get("Location"))
}

func TestAuthorize_RequireAuth_ClearsBadCookie(t *testing.T) {
	cfg, _ := newAuthorizeConfig(t)
	cfg.RequireAuth = true

	handler := Authorize(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: cfg.Cookie.Name, Value: "tampered"})
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	cleared := findCookie(t, w, cfg.Cookie.Name)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestAuthorize_RequireAuth_OnUnauthorizedHook(t *testing.T) {
	cfg, _ := newAuthorizeConfig(t)
	cfg.RequireAuth = true
	cfg.OnUnauthorized = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}

	w := httptest.NewRecorder()
	Authorize(cfg)(okHandler(new(bool))).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestAuthorize_RequiredRoles(t *testing.T) {
	cfg, codec := newAuthorizeConfig(t)
	cfg.RequireAuth = true
	cfg.RequiredRoles = []string{"Admin"}

	var hit bool
	handler := Authorize(cfg)(okHandler(&hit))

	// Viewer only: forbidden, no annotation headers.
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(&http.Cookie{
		Name:  cfg.Cookie.Name,
		Value: encodeTestSession(t, codec, domainauth.User{ID: "u1", Roles: []string{"Viewer"}}),
	})
	handler.ServeHTTP(w, r)

	assert.False(t, hit)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("x-user-authenticated"))
	assert.Empty(t, w.Header().Get("x-user-id"))

	// Any required role suffices (OR semantics).
	cfg.RequiredRoles = []string{"Admin", "Viewer"}
	handler = Authorize(cfg)(okHandler(&hit))
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(&http.Cookie{
		Name:  cfg.Cookie.Name,
		Value: encodeTestSession(t, codec, domainauth.User{ID: "u1", Roles: []string{"Viewer"}}),
	})
	handler.ServeHTTP(w, r)
	assert.True(t, hit)
	assert.Equal(t, "u1", w.Header().Get("x-user-id"))
}

func TestAuthorize_RequiredClaims(t *testing.T) {
	cfg, codec := newAuthorizeConfig(t)
	cfg.RequireAuth = true
	cfg.RequiredClaims = map[string]any{"department": "engineering", "level": "senior"}

	var hit bool
	handler := Authorize(cfg)(okHandler(&hit))

	// One claim mismatching fails (AND semantics).
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/eng", nil)
	r.AddCookie(&http.Cookie{
		Name: cfg.Cookie.Name,
		Value: encodeTestSession(t, codec, domainauth.User{
			ID:     "u1",
			Claims: domainauth.Claims{"department": "engineering", "level": "junior"},
		}),
	})
	handler.ServeHTTP(w, r)
	assert.False(t, hit)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// All claims matching passes.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/eng", nil)
	r.AddCookie(&http.Cookie{
		Name: cfg.Cookie.Name,
		Value: encodeTestSession(t, codec, domainauth.User{
			ID:     "u1",
			Claims: domainauth.Claims{"department": "engineering", "level": "senior"},
		}),
	})
	handler.ServeHTTP(w, r)
	assert.True(t, hit)
}

func TestAuthorize_OnForbiddenHook(t *testing.T) {
	cfg, codec := newAuthorizeConfig(t)
	cfg.RequireAuth = true
	cfg.RequiredRoles = []string{"Admin"}
	cfg.OnForbidden = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(&http.Cookie{
		Name:  cfg.Cookie.Name,
		Value: encodeTestSession(t, codec, domainauth.User{ID: "u1", Roles: []string{"Viewer"}}),
	})
	Authorize(cfg)(okHandler(new(bool))).ServeHTTP(w, r)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestWithAuth(t *testing.T) {
	cfg, codec := newAuthorizeConfig(t)
	cfg.RequireAuth = true

	var hit bool
	handler := WithAuth(func(w http.ResponseWriter, _ *http.Request) { hit = true }, cfg)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{
		Name:  cfg.Cookie.Name,
		Value: encodeTestSession(t, codec, domainauth.User{ID: "u1"}),
	})
	handler.ServeHTTP(w, r)
	assert.True(t, hit)
}
