package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/go-entraid-auth/internal/ports"
)

func TestFakeIdentityProvider_BeginAuth_Deterministic(t *testing.T) {
	provider := NewFakeIdentityProvider()
	ctx := context.Background()

	req, err := provider.BeginAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "state-1", req.State)
	assert.Equal(t, "nonce-1", req.Nonce)
	assert.Equal(t, "verifier-1", req.CodeVerifier)
	assert.Equal(t, "https://fake-idp/authorize?state=state-1", req.URL)

	// Second call should increment counters.
	req2, err := provider.BeginAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "state-2", req2.State)
}

func TestFakeIdentityProvider_Exchange(t *testing.T) {
	provider := NewFakeIdentityProvider()

	ts, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c"})
	require.NoError(t, err)
	assert.Equal(t, "fake-access-token", ts.AccessToken)
	assert.Equal(t, "fake-refresh-token", ts.RefreshToken)
	assert.NotEmpty(t, ts.IDToken)

	provider.ExchangeErr = assert.AnError
	_, err = provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c"})
	require.Error(t, err)
}

func TestFakeIdentityProvider_Refresh(t *testing.T) {
	provider := NewFakeIdentityProvider()

	_, err := provider.Refresh(context.Background(), "")
	require.Error(t, err)

	ts, err := provider.Refresh(context.Background(), "fake-refresh-token")
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access-token", ts.AccessToken)
	assert.Equal(t, "rotated-refresh-token", ts.RefreshToken)
}

func TestFakeIdentityProvider_LogoutURL(t *testing.T) {
	provider := NewFakeIdentityProvider()
	assert.Equal(t, "https://fake-idp/logout", provider.LogoutURL(""))
	assert.Equal(t, "https://fake-idp/logout?id_token_hint=idt", provider.LogoutURL("idt"))
}

func TestUnsignedIDToken(t *testing.T) {
	token := UnsignedIDToken(map[string]any{"sub": "u1"})
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	assert.Empty(t, parts[2], "unsigned token has an empty signature segment")

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))
	assert.Equal(t, "u1", claims["sub"])
}
