package sessionjwt

// Package sessionjwt implements the SessionCodec port as an HS256-signed JWT
// keyed by the configured cookie secret. The full session travels inside the
// token, so no server-side session store exists: verification failure,
// malformed input, and expiry all degrade to "no session".

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/target/go-entraid-auth/config"
	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
	apperrors "github.com/target/go-entraid-auth/internal/errors"
)

// sessionClaims wraps the session payload with registered JWT claims so the
// token carries its own expiry alongside the session's application-level one.
type sessionClaims struct {
	Session domainauth.Session `json:"session"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a symmetric key.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec constructs a Codec. Only the cookie secret is consumed; the rest
// of the configuration belongs to the identity provider adapter.
func NewCodec(cfg config.EntraIDConfig) (*Codec, error) {
	if cfg.CookieSecret == "" {
		return nil, apperrors.Configuration("missing required configuration: cookieSecret")
	}
	return &Codec{secret: []byte(cfg.CookieSecret), now: time.Now}, nil
}

// Encode signs the session into a compact token whose JWT expiry mirrors the
// session's own expiresAt.
func (c *Codec) Encode(s domainauth.Session) (string, error) {
	now := c.now()
	claims := sessionClaims{
		Session: s,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(time.UnixMilli(s.ExpiresAt)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "sign session token")
	}
	return token, nil
}

// Decode verifies the token and returns the embedded session. Any failure
// (bad signature, malformed structure, elapsed token expiry) returns
// (nil, false); callers cannot distinguish it from "never logged in".
//
// After signature verification the session's own expiresAt is re-checked
// against wall-clock time, independent of the token's exp claim.
func (c *Codec) Decode(raw string) (*domainauth.Session, bool) {
	if raw == "" {
		return nil, false
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, false
	}

	if claims.Session.Expired(c.now()) {
		return nil, false
	}

	s := claims.Session
	return &s, true
}
