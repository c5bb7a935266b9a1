// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
	"github.com/target/go-entraid-auth/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.IdentityProvider = (*FakeIdentityProvider)(nil)

// FakeIdentityProvider simulates an IdP for tests with deterministic
// state/nonce/verifier values and a configurable identity.
type FakeIdentityProvider struct {
	// AuthURL is the authorization endpoint embedded in BeginAuth results.
	AuthURL string
	// IDTokenClaims become the payload of the unsigned ID token returned by
	// Exchange and Refresh.
	IDTokenClaims map[string]any
	// UserInfoClaims are returned verbatim from UserInfo.
	UserInfoClaims domainauth.Claims
	// ExpiresAt (seconds epoch) stamps the issued token sets. Zero leaves
	// the token set without an expiry.
	ExpiresAt int64
	// EndSessionURL is returned from LogoutURL with an id_token_hint appended.
	EndSessionURL string

	// Error overrides for failure-path tests.
	BeginErr    error
	ExchangeErr error
	RefreshErr  error
	UserInfoErr error

	// Internal state tracking for deterministic behavior.
	callCount int
}

// NewFakeIdentityProvider creates a provider with sensible defaults.
func NewFakeIdentityProvider() *FakeIdentityProvider {
	return &FakeIdentityProvider{
		AuthURL:       "https://fake-idp/authorize",
		EndSessionURL: "https://fake-idp/logout",
		IDTokenClaims: map[string]any{
			"sub":   "fake-user-1",
			"email": "fake.user@example.com",
			"name":  "Fake User",
			"tid":   "fake-tenant",
		},
	}
}

// BeginAuth returns deterministic handshake values: state-1, nonce-1,
// verifier-1 on the first call, incrementing per call.
func (p *FakeIdentityProvider) BeginAuth(_ context.Context) (ports.AuthRequest, error) {
	if p.BeginErr != nil {
		return ports.AuthRequest{}, p.BeginErr
	}
	p.callCount++
	state := fmt.Sprintf("state-%d", p.callCount)
	return ports.AuthRequest{
		URL:          p.AuthURL + "?state=" + state,
		State:        state,
		Nonce:        fmt.Sprintf("nonce-%d", p.callCount),
		CodeVerifier: fmt.Sprintf("verifier-%d", p.callCount),
	}, nil
}

// Exchange returns a token set carrying an unsigned ID token built from
// IDTokenClaims.
func (p *FakeIdentityProvider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.TokenSet, error) {
	if p.ExchangeErr != nil {
		return domainauth.TokenSet{}, p.ExchangeErr
	}
	return p.tokenSet("fake-access-token", "fake-refresh-token"), nil
}

// Refresh reissues the identity with rotated token values.
func (p *FakeIdentityProvider) Refresh(_ context.Context, refreshToken string) (domainauth.TokenSet, error) {
	if p.RefreshErr != nil {
		return domainauth.TokenSet{}, p.RefreshErr
	}
	if refreshToken == "" {
		return domainauth.TokenSet{}, fmt.Errorf("refresh token is required")
	}
	return p.tokenSet("refreshed-access-token", "rotated-refresh-token"), nil
}

// UserInfo returns the configured userinfo claims.
func (p *FakeIdentityProvider) UserInfo(_ context.Context, _ string) (domainauth.Claims, error) {
	if p.UserInfoErr != nil {
		return nil, p.UserInfoErr
	}
	return p.UserInfoClaims, nil
}

// LogoutURL appends the id_token_hint to the configured end-session URL.
func (p *FakeIdentityProvider) LogoutURL(idToken string) string {
	if idToken == "" {
		return p.EndSessionURL
	}
	return p.EndSessionURL + "?id_token_hint=" + idToken
}

func (p *FakeIdentityProvider) tokenSet(access, refresh string) domainauth.TokenSet {
	return domainauth.TokenSet{
		AccessToken:  access,
		RefreshToken: refresh,
		IDToken:      UnsignedIDToken(p.IDTokenClaims),
		ExpiresAt:    p.ExpiresAt,
		TokenType:    "Bearer",
	}
}

// UnsignedIDToken builds a JWT-shaped token (alg none, empty signature) from
// the given payload claims. Only the payload segment is decoded by the
// claims mapper, so no signing key is needed in tests.
func UnsignedIDToken(claims map[string]any) string {
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	if err != nil {
		panic(err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		panic(err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "."
}
