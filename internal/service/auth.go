package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/target/go-entraid-auth/config"
	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
	apperrors "github.com/target/go-entraid-auth/internal/errors"
	"github.com/target/go-entraid-auth/internal/ports"
)

// ErrTenantNotAllowed is returned from CompleteSignIn when multi-tenant
// restrictions reject the user's tenant. No session is created.
var ErrTenantNotAllowed = apperrors.Forbidden("tenant not allowed")

// errNoRefreshToken marks a refresh attempt on a session without one.
var errNoRefreshToken = errors.New("no refresh token available")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.IdentityProvider
	Mapper   ports.UserMapper
	Codec    ports.SessionCodec
	Config   config.EntraIDConfig
}

// AuthService orchestrates the sign-in, callback, and refresh transitions by
// coordinating the identity provider, claims mapper, and session codec. It
// holds no per-request state; everything a transition needs arrives in its
// inputs or travels in cookies managed by the HTTP layer.
type AuthService struct {
	provider ports.IdentityProvider
	mapper   ports.UserMapper
	codec    ports.SessionCodec
	cfg      config.EntraIDConfig
	now      func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	return &AuthService{
		provider: opts.Provider,
		mapper:   opts.Mapper,
		codec:    opts.Codec,
		cfg:      opts.Config,
		now:      time.Now,
	}
}

// BeginSignIn initiates an authentication flow and returns the provider
// redirect plus the values the handler must stash in cookies.
func (s *AuthService) BeginSignIn(ctx context.Context) (*ports.AuthRequest, error) {
	req, err := s.provider.BeginAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &req, nil
}

// CompleteSignInInput groups parameters for completing a sign-in flow.
type CompleteSignInInput struct {
	Code         string
	State        string
	CodeVerifier string
}

// CompleteSignInResult contains the session built at callback time and its
// encoded cookie value.
type CompleteSignInResult struct {
	Session domainauth.Session
	Token   string
}

// CompleteSignIn exchanges the authorization code for tokens, fetches
// userinfo, maps the user, enforces tenant restrictions, and encodes the
// resulting session.
func (s *AuthService) CompleteSignIn(ctx context.Context, input CompleteSignInInput) (*CompleteSignInResult, error) {
	if input.Code == "" {
		return nil, apperrors.Protocol("authorization code is required")
	}
	if input.State == "" {
		return nil, apperrors.Protocol("state parameter is required")
	}

	tokenSet, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:         input.Code,
		State:        input.State,
		CodeVerifier: input.CodeVerifier,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	userInfo, err := s.provider.UserInfo(ctx, tokenSet.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}

	user, err := s.mapper.MapUser(tokenSet.IDToken, userInfo)
	if err != nil {
		return nil, fmt.Errorf("map user claims: %w", err)
	}

	if !s.cfg.TenantAllowed(user.TenantID) {
		return nil, ErrTenantNotAllowed
	}

	session := domainauth.Session{
		User:         user,
		AccessToken:  tokenSet.AccessToken,
		RefreshToken: tokenSet.RefreshToken,
		ExpiresAt:    domainauth.NewSessionExpiry(tokenSet, s.now()),
		IDToken:      tokenSet.IDToken,
	}

	token, err := s.codec.Encode(session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	return &CompleteSignInResult{Session: session, Token: token}, nil
}

// RefreshResult contains the updated session and its encoded cookie value.
type RefreshResult struct {
	Session domainauth.Session
	Token   string
}

// Refresh exchanges the session's refresh token for a fresh token set and
// re-encodes the session. The prior refresh token and ID token are reused
// when the provider does not return fresh ones.
func (s *AuthService) Refresh(ctx context.Context, session domainauth.Session) (*RefreshResult, error) {
	if session.RefreshToken == "" {
		return nil, errNoRefreshToken
	}

	tokenSet, err := s.provider.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh tokens: %w", err)
	}

	updated := session
	updated.AccessToken = tokenSet.AccessToken
	updated.ExpiresAt = domainauth.NewSessionExpiry(tokenSet, s.now())
	if tokenSet.RefreshToken != "" {
		updated.RefreshToken = tokenSet.RefreshToken
	}
	if tokenSet.IDToken != "" {
		updated.IDToken = tokenSet.IDToken
	}

	token, err := s.codec.Encode(updated)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	return &RefreshResult{Session: updated, Token: token}, nil
}

// DecodeSession verifies a raw cookie value. Fail-closed: any verification
// failure reads as "no session".
func (s *AuthService) DecodeSession(raw string) (*domainauth.Session, bool) {
	return s.codec.Decode(raw)
}

// LogoutURL builds the provider end-session URL for the given ID token.
func (s *AuthService) LogoutURL(idToken string) string {
	return s.provider.LogoutURL(idToken)
}

// IsNoRefreshToken reports whether the error marks a refresh attempt on a
// session without a refresh token.
func IsNoRefreshToken(err error) bool {
	return errors.Is(err, errNoRefreshToken)
}
