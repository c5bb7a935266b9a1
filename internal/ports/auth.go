package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
)

// AuthRequest carries everything the sign-in handler must stash in cookies
// before redirecting the browser to the provider.
type AuthRequest struct {
	// URL is the provider authorization URL the browser is redirected to.
	URL string
	// State is the opaque anti-replay value echoed back at callback.
	State string
	// Nonce binds the eventual ID token to this sign-in attempt.
	Nonce string
	// CodeVerifier is the PKCE verifier whose S256 challenge is embedded in URL.
	CodeVerifier string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code         string
	State        string
	CodeVerifier string
}

// IdentityProvider performs the OAuth2/OIDC protocol against an external IdP.
// Implementations cache discovered issuer metadata for the process lifetime;
// every method may trigger a one-time discovery fetch.
type IdentityProvider interface {
	// BeginAuth builds the authorization redirect with fresh state, nonce,
	// and PKCE verifier.
	BeginAuth(ctx context.Context) (AuthRequest, error)

	// Exchange redeems an authorization code (plus PKCE verifier) for tokens.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.TokenSet, error)

	// Refresh redeems a refresh token for a fresh token set.
	Refresh(ctx context.Context, refreshToken string) (domainauth.TokenSet, error)

	// UserInfo fetches the userinfo document with a bearer access token.
	UserInfo(ctx context.Context, accessToken string) (domainauth.Claims, error)

	// LogoutURL builds the provider end-session URL, carrying an
	// id_token_hint when idToken is non-empty.
	LogoutURL(idToken string) string
}

// UserMapper turns a raw ID token plus optional userinfo claims into a
// normalized user.
type UserMapper interface {
	MapUser(idToken string, userInfo domainauth.Claims) (domainauth.User, error)
}

// SessionCodec signs sessions into compact tokens and verifies them back.
// Decode is fail-closed: any verification failure is indistinguishable from
// "never logged in".
type SessionCodec interface {
	Encode(s domainauth.Session) (string, error)
	Decode(raw string) (*domainauth.Session, bool)
}
