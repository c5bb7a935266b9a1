package devauth

// Package devauth provides a simple, config-driven IdentityProvider for
// local development. It short-circuits the OAuth flow by redirecting back
// to our own callback with locally generated state and PKCE material, and
// fabricates an unsigned ID token carrying the configured identity.

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
	apperrors "github.com/target/go-entraid-auth/internal/errors"
	"github.com/target/go-entraid-auth/internal/ports"
)

// Config controls the dev auth provider behavior.
// UserID and Email are required; Roles may be empty.
type Config struct {
	UserID          string
	Email           string
	Name            string
	Roles           []string
	SessionDuration time.Duration // default 8h when zero
}

// Provider implements ports.IdentityProvider for local development.
// Exchange ignores the code and returns tokens for the configured identity.
type Provider struct {
	cfg Config
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, apperrors.Configuration("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, apperrors.Configuration("dev auth: Email is required")
	}
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = 8 * time.Hour
	}
	return &Provider{cfg: cfg}, nil
}

// BeginAuth returns a local callback URL with fresh state and PKCE material.
// The standard callback handler expects GET /auth/callback?code=...&state=...
func (p *Provider) BeginAuth(_ context.Context) (ports.AuthRequest, error) {
	state := uuid.NewString()
	return ports.AuthRequest{
		URL:          "/auth/callback?code=dev&state=" + state,
		State:        state,
		Nonce:        uuid.NewString(),
		CodeVerifier: oauth2.GenerateVerifier(),
	}, nil
}

// Exchange ignores the provided code and returns a token set for the
// configured identity, with an unsigned ID token the claims mapper can decode.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.TokenSet, error) {
	return p.tokenSet()
}

// Refresh behaves like Exchange: it reissues the dev identity with a fresh expiry.
func (p *Provider) Refresh(_ context.Context, refreshToken string) (domainauth.TokenSet, error) {
	if refreshToken == "" {
		return domainauth.TokenSet{}, apperrors.Protocol("refresh token is required")
	}
	return p.tokenSet()
}

// UserInfo returns no additional claims; everything lives in the ID token.
func (p *Provider) UserInfo(_ context.Context, _ string) (domainauth.Claims, error) {
	return nil, nil
}

// LogoutURL returns the application root; there is no provider to sign out of.
func (p *Provider) LogoutURL(_ string) string {
	return "/"
}

func (p *Provider) tokenSet() (domainauth.TokenSet, error) {
	expiresAt := time.Now().Add(p.cfg.SessionDuration)
	idToken, err := unsignedIDToken(p.cfg, expiresAt)
	if err != nil {
		return domainauth.TokenSet{}, err
	}
	return domainauth.TokenSet{
		AccessToken:  "dev-access-token",
		RefreshToken: "dev-refresh-token",
		IDToken:      idToken,
		ExpiresAt:    expiresAt.Unix(),
		TokenType:    "Bearer",
	}, nil
}

// unsignedIDToken fabricates a JWT-shaped token (alg none, empty signature)
// whose payload carries the configured identity. Only the payload segment is
// ever decoded by the claims mapper; nothing verifies the signature.
func unsignedIDToken(cfg Config, expiresAt time.Time) (string, error) {
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	if err != nil {
		return "", fmt.Errorf("marshal header: %w", err)
	}
	payload, err := json.Marshal(map[string]any{
		"sub":   cfg.UserID,
		"email": cfg.Email,
		"name":  cfg.Name,
		"roles": cfg.Roles,
		"exp":   expiresAt.Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + ".", nil
}
