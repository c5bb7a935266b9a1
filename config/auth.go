package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeEntraID uses Microsoft Entra ID (OIDC) for authentication.
	AuthModeEntraID AuthMode = "entraid"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "entraid", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: entraid, mock)", v)
	}
}

// minCookieSecretLen is the minimum length of the session cookie signing secret.
const minCookieSecretLen = 32

// defaultAuthority is the public Entra ID authority.
const defaultAuthority = "https://login.microsoftonline.com"

// EntraIDConfig contains the Entra ID (OIDC relying party) configuration.
// It is constructed once at startup, validated via Validate, and treated as
// immutable thereafter.
type EntraIDConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	TenantID     string `env:"TENANT_ID"`
	RedirectURI  string `env:"REDIRECT_URI"`

	// Authority is the Entra ID authority base URL. Override it for
	// national clouds (e.g. login.microsoftonline.us).
	Authority string `env:"AUTHORITY" envDefault:"https://login.microsoftonline.com"`

	// PostLogoutRedirectURI is where the provider sends the browser after
	// its own logout page. Optional.
	PostLogoutRedirectURI string `env:"POST_LOGOUT_REDIRECT_URI"`

	// Scopes requested during sign-in, in order.
	Scopes []string `env:"SCOPES" envDefault:"openid,profile,email,User.Read" envSeparator:","`

	// CookieSecret signs session and CSRF tokens. Must carry at least 32
	// bytes of entropy.
	CookieSecret string `env:"COOKIE_SECRET"`

	// CookieName is the session cookie name.
	CookieName string `env:"COOKIE_NAME" envDefault:"entraid-session"`

	// CookieMaxAge bounds the session cookie lifetime.
	CookieMaxAge time.Duration `env:"COOKIE_MAX_AGE" envDefault:"24h"`

	// IsMultiTenant switches discovery to the common endpoint so users from
	// any tenant can sign in. AllowedTenants then restricts which tenants
	// are accepted at callback time.
	IsMultiTenant  bool     `env:"MULTI_TENANT" envDefault:"false"`
	AllowedTenants []string `env:"ALLOWED_TENANTS" envSeparator:","`
}

// Validate checks the invariants that must hold before any other component
// consumes this configuration. A violation is a fatal construction-time error.
func (c *EntraIDConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"clientId", c.ClientID},
		{"clientSecret", c.ClientSecret},
		{"tenantId", c.TenantID},
		{"redirectUri", c.RedirectURI},
		{"cookieSecret", c.CookieSecret},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("missing required configuration: %s", f.name)
		}
	}

	if len(c.CookieSecret) < minCookieSecretLen {
		return fmt.Errorf("cookieSecret must be at least %d characters long", minCookieSecretLen)
	}

	return nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *EntraIDConfig) Sanitize() {
	if len(c.Scopes) == 0 {
		c.Scopes = []string{"openid", "profile", "email", "User.Read"}
	}
	if c.CookieName == "" {
		c.CookieName = "entraid-session"
	}
	if c.CookieMaxAge <= 0 {
		c.CookieMaxAge = 24 * time.Hour
	}
	if c.Authority == "" {
		c.Authority = defaultAuthority
	}
	c.Authority = strings.TrimSuffix(c.Authority, "/")
}

// authority returns the authority base URL, tolerating unsanitized configs.
func (c *EntraIDConfig) authority() string {
	if c.Authority == "" {
		return defaultAuthority
	}
	return strings.TrimSuffix(c.Authority, "/")
}

// IssuerURL returns the OIDC issuer for discovery. Multi-tenant apps
// discover against the common endpoint; single-tenant apps against their
// tenant-specific endpoint.
func (c *EntraIDConfig) IssuerURL() string {
	if c.IsMultiTenant {
		return c.authority() + "/common/v2.0"
	}
	return fmt.Sprintf("%s/%s/v2.0", c.authority(), c.TenantID)
}

// FallbackLogoutURL returns the provider logout endpoint used when discovery
// did not advertise an end_session_endpoint.
func (c *EntraIDConfig) FallbackLogoutURL() string {
	if c.IsMultiTenant {
		return c.authority() + "/common/oauth2/v2.0/logout"
	}
	return fmt.Sprintf("%s/%s/oauth2/v2.0/logout", c.authority(), c.TenantID)
}

// TenantAllowed reports whether the given tenant may complete sign-in.
// An empty allow-list, or single-tenant mode, allows every tenant (the
// provider already scoped sign-in to the configured tenant).
func (c *EntraIDConfig) TenantAllowed(tenantID string) bool {
	if !c.IsMultiTenant || len(c.AllowedTenants) == 0 || tenantID == "" {
		return true
	}
	for _, t := range c.AllowedTenants {
		if t == tenantID {
			return true
		}
	}
	return false
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Email  string   `env:"EMAIL"   envDefault:"dev@example.com"`
	Name   string   `env:"NAME"    envDefault:"Dev User"`
	Roles  []string `env:"ROLES"   envDefault:"admin"           envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"entraid"`

	// EntraID configuration (used when Mode=entraid).
	EntraID EntraIDConfig `envPrefix:"ENTRAID_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}
