package httpx

import "net/http"

// Authentication action paths. The prefix is always bypassed by the
// authorization middleware so the handshake can complete anonymously.
const (
	authPathPrefix = "/auth/"

	SignInPath   = "/auth/signin"
	CallbackPath = "/auth/callback"
	SignOutPath  = "/auth/signout"
	MePath       = "/auth/me"
	RefreshPath  = "/auth/refresh"
)

// RegisterAuthRoutes mounts the authentication actions on the mux. Unknown
// /auth/ actions fall through to the dispatcher's 404 JSON response.
func RegisterAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET "+SignInPath, h.SignIn)
	mux.HandleFunc("GET "+CallbackPath, h.Callback)
	mux.HandleFunc("GET "+SignOutPath, h.SignOut)
	mux.HandleFunc("GET "+MePath, h.Me)
	mux.HandleFunc("POST "+RefreshPath, h.Refresh)
	mux.HandleFunc(authPathPrefix, h.Handle)
}
