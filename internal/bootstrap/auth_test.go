package bootstrap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/go-entraid-auth/config"
)

func TestBuildAuthService_MockMode(t *testing.T) {
	cfg := config.AuthConfig{
		Mode: config.AuthModeMock,
		EntraID: config.EntraIDConfig{
			CookieSecret: strings.Repeat("s", 32),
		},
		DevAuth: config.DevAuthConfig{
			UserID: "dev-user",
			Email:  "dev@example.com",
		},
	}

	svc, err := BuildAuthService(cfg)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestBuildAuthService_MockMode_MissingIdentity(t *testing.T) {
	cfg := config.AuthConfig{
		Mode:    config.AuthModeMock,
		EntraID: config.EntraIDConfig{CookieSecret: strings.Repeat("s", 32)},
	}

	_, err := BuildAuthService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dev auth")
}

func TestBuildAuthService_EntraIDMode_InvalidConfig(t *testing.T) {
	cfg := config.AuthConfig{
		Mode: config.AuthModeEntraID,
		EntraID: config.EntraIDConfig{
			ClientID: "client-id",
			// everything else missing
		},
	}

	_, err := BuildAuthService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required configuration")
}

func TestBuildAuthService_EntraIDMode(t *testing.T) {
	cfg := config.AuthConfig{
		Mode: config.AuthModeEntraID,
		EntraID: config.EntraIDConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			TenantID:     "tenant-id",
			RedirectURI:  "https://app.example.com/auth/callback",
			CookieSecret: strings.Repeat("s", 32),
		},
	}
	cfg.EntraID.Sanitize()

	// Construction must not reach the network; discovery is lazy.
	svc, err := BuildAuthService(cfg)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestBuildAuthService_UnknownMode(t *testing.T) {
	_, err := BuildAuthService(config.AuthConfig{Mode: "saml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown auth mode")
}
