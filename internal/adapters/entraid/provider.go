package entraid

// Package entraid implements the IdentityProvider port against Microsoft
// Entra ID using OIDC discovery and the OAuth 2.0 authorization code flow
// with PKCE.

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/target/go-entraid-auth/config"
	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
	apperrors "github.com/target/go-entraid-auth/internal/errors"
	"github.com/target/go-entraid-auth/internal/ports"
)

// defaultHTTPTimeout bounds every outbound provider call (discovery, token
// exchange, refresh, userinfo).
const defaultHTTPTimeout = 30 * time.Second

// Provider implements ports.IdentityProvider using go-oidc discovery and
// golang.org/x/oauth2 for the token grants.
//
// Discovery is lazy and happens at most once per process: the first call
// that needs issuer metadata runs it under a sync.Once, and every later
// call reuses the cached result.
type Provider struct {
	cfg        config.EntraIDConfig
	httpClient *http.Client

	initOnce sync.Once
	initErr  error

	oidcProvider  *gooidc.Provider
	oauthCfg      *oauth2.Config
	endSessionURL string
}

// NewProvider constructs a Provider from validated configuration.
func NewProvider(cfg config.EntraIDConfig) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "invalid Entra ID configuration")
	}
	return &Provider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

// init runs OIDC discovery once and caches the issuer metadata.
func (p *Provider) init(ctx context.Context) error {
	p.initOnce.Do(func() {
		issuer := p.cfg.IssuerURL()
		ctx = gooidc.ClientContext(ctx, p.httpClient)
		if p.cfg.IsMultiTenant {
			// The common endpoint advertises the templated issuer
			// https://login.microsoftonline.com/{tenantid}/v2.0, which can
			// never equal the common URL, so strict issuer matching has to
			// be relaxed for discovery to succeed.
			ctx = gooidc.InsecureIssuerURLContext(ctx, issuer)
		}
		op, err := gooidc.NewProvider(ctx, issuer)
		if err != nil {
			p.initErr = apperrors.Wrap(err, apperrors.ErrCodeProvider, "oidc discovery failed")
			return
		}
		p.oidcProvider = op
		p.oauthCfg = &oauth2.Config{
			ClientID:     p.cfg.ClientID,
			ClientSecret: p.cfg.ClientSecret,
			RedirectURL:  p.cfg.RedirectURI,
			Scopes:       p.cfg.Scopes,
			Endpoint:     op.Endpoint(),
		}
		p.endSessionURL = p.discoverEndSessionURL(op)
	})
	return p.initErr
}

// discoverEndSessionURL reads the end_session_endpoint from the discovery
// document, falling back to the well-known Microsoft logout URL.
func (p *Provider) discoverEndSessionURL(op *gooidc.Provider) string {
	var extra struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := op.Claims(&extra); err == nil && extra.EndSessionEndpoint != "" {
		return extra.EndSessionEndpoint
	}
	return p.cfg.FallbackLogoutURL()
}

// BeginAuth builds the authorization redirect URL with fresh state, nonce,
// and a PKCE S256 challenge.
func (p *Provider) BeginAuth(ctx context.Context) (ports.AuthRequest, error) {
	if err := p.init(ctx); err != nil {
		return ports.AuthRequest{}, err
	}

	state := uuid.NewString()
	nonce := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	authURL := p.oauthCfg.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
	)

	return ports.AuthRequest{
		URL:          authURL,
		State:        state,
		Nonce:        nonce,
		CodeVerifier: verifier,
	}, nil
}

// Exchange redeems an authorization code plus PKCE verifier for a token set.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.TokenSet, error) {
	if err := p.init(ctx); err != nil {
		return domainauth.TokenSet{}, err
	}
	if in.Code == "" {
		return domainauth.TokenSet{}, apperrors.Protocol("authorization code is required")
	}
	if in.CodeVerifier == "" {
		return domainauth.TokenSet{}, apperrors.Protocol("code verifier is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.oauthCfg.Exchange(ctx, in.Code, oauth2.VerifierOption(in.CodeVerifier))
	if err != nil {
		return domainauth.TokenSet{}, apperrors.Wrap(err, apperrors.ErrCodeProvider, "code exchange failed")
	}

	return tokenSetFromOAuth(tok), nil
}

// Refresh redeems a refresh token for a fresh token set.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (domainauth.TokenSet, error) {
	if err := p.init(ctx); err != nil {
		return domainauth.TokenSet{}, err
	}
	if refreshToken == "" {
		return domainauth.TokenSet{}, apperrors.Protocol("refresh token is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	ts := p.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return domainauth.TokenSet{}, apperrors.Wrap(err, apperrors.ErrCodeProvider, "token refresh failed")
	}

	return tokenSetFromOAuth(tok), nil
}

// UserInfo fetches the userinfo document with a bearer access token.
func (p *Provider) UserInfo(ctx context.Context, accessToken string) (domainauth.Claims, error) {
	if err := p.init(ctx); err != nil {
		return nil, err
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeProvider, "userinfo fetch failed")
	}

	var claims domainauth.Claims
	if err := ui.Claims(&claims); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeProvider, "userinfo decode failed")
	}
	return claims, nil
}

// LogoutURL builds the provider end-session URL. When discovery has not run
// yet the configured fallback endpoint is used, so sign-out never blocks on
// a network call.
func (p *Provider) LogoutURL(idToken string) string {
	endpoint := p.endSessionURL
	if endpoint == "" {
		endpoint = p.cfg.FallbackLogoutURL()
	}

	q := url.Values{}
	if p.cfg.PostLogoutRedirectURI != "" {
		q.Set("post_logout_redirect_uri", p.cfg.PostLogoutRedirectURI)
	}
	if idToken != "" {
		q.Set("id_token_hint", idToken)
	}
	if len(q) == 0 {
		return endpoint
	}
	return endpoint + "?" + q.Encode()
}

// tokenSetFromOAuth maps an oauth2.Token into the domain TokenSet shape.
func tokenSetFromOAuth(tok *oauth2.Token) domainauth.TokenSet {
	ts := domainauth.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		ts.ExpiresAt = tok.Expiry.Unix()
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		ts.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		ts.Scope = scope
	}
	return ts
}
