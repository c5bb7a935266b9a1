package bootstrap

import (
	"fmt"

	"github.com/target/go-entraid-auth/config"
	"github.com/target/go-entraid-auth/internal/adapters/devauth"
	"github.com/target/go-entraid-auth/internal/adapters/entraid"
	"github.com/target/go-entraid-auth/internal/adapters/sessionjwt"
	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
	"github.com/target/go-entraid-auth/internal/ports"
	"github.com/target/go-entraid-auth/internal/service"
)

// BuildAuthService wires an AuthService for the configured auth mode.
// Invalid configuration fails loudly here rather than at first request.
func BuildAuthService(cfg config.AuthConfig) (*service.AuthService, error) {
	return BuildAuthServiceWithMappings(cfg, service.DefaultClaimMappings(), domainauth.RoleMapping{})
}

// BuildAuthServiceWithMappings wires an AuthService with caller-supplied
// claim and role mappings.
func BuildAuthServiceWithMappings(
	cfg config.AuthConfig,
	mappings []domainauth.ClaimMapping,
	roleMapping domainauth.RoleMapping,
) (*service.AuthService, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	codec, err := sessionjwt.NewCodec(cfg.EntraID)
	if err != nil {
		return nil, fmt.Errorf("build session codec: %w", err)
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Mapper:   service.NewClaimsMapper(mappings, roleMapping),
		Codec:    codec,
		Config:   cfg.EntraID,
	}), nil
}

func buildProvider(cfg config.AuthConfig) (ports.IdentityProvider, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID: cfg.DevAuth.UserID,
			Email:  cfg.DevAuth.Email,
			Name:   cfg.DevAuth.Name,
			Roles:  cfg.DevAuth.Roles,
		})
		if err != nil {
			return nil, fmt.Errorf("build dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeEntraID:
		prov, err := entraid.NewProvider(cfg.EntraID)
		if err != nil {
			return nil, fmt.Errorf("build Entra ID provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unknown auth mode: %q", cfg.Mode)
	}
}
