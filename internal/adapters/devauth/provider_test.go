package devauth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
	"github.com/target/go-entraid-auth/internal/ports"
	"github.com/target/go-entraid-auth/internal/service"
)

func TestNewProvider_RequiredFields(t *testing.T) {
	_, err := NewProvider(Config{Email: "dev@example.com"})
	require.Error(t, err)

	_, err = NewProvider(Config{UserID: "dev-user"})
	require.Error(t, err)

	p, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, p.cfg.SessionDuration)
}

func TestProvider_BeginAuth(t *testing.T) {
	p, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	require.NoError(t, err)

	req, err := p.BeginAuth(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(req.URL, "/auth/callback?code=dev&state="))
	assert.NotEmpty(t, req.State)
	assert.NotEmpty(t, req.Nonce)
	assert.NotEmpty(t, req.CodeVerifier)
	assert.Contains(t, req.URL, req.State)
}

func TestProvider_ExchangeMapsToConfiguredIdentity(t *testing.T) {
	p, err := NewProvider(Config{
		UserID: "dev-user",
		Email:  "dev@example.com",
		Name:   "Dev User",
		Roles:  []string{"admin", "viewer"},
	})
	require.NoError(t, err)

	ts, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "dev"})
	require.NoError(t, err)
	assert.NotEmpty(t, ts.IDToken)
	assert.Positive(t, ts.ExpiresAt)

	// The fabricated ID token must decode through the real claims mapper.
	mapper := service.NewClaimsMapper(nil, domainauth.RoleMapping{})
	user, err := mapper.MapUser(ts.IDToken, nil)
	require.NoError(t, err)
	assert.Equal(t, "dev-user", user.ID)
	assert.Equal(t, "dev@example.com", user.Email)
	assert.Equal(t, "Dev User", user.Name)
	assert.ElementsMatch(t, []string{"admin", "viewer"}, user.Roles)
}

func TestProvider_Refresh(t *testing.T) {
	p, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	require.NoError(t, err)

	_, err = p.Refresh(context.Background(), "")
	require.Error(t, err)

	ts, err := p.Refresh(context.Background(), "dev-refresh-token")
	require.NoError(t, err)
	assert.NotEmpty(t, ts.AccessToken)
}

func TestProvider_LogoutURL(t *testing.T) {
	p, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "/", p.LogoutURL("anything"))
}
