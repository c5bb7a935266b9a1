package service

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/target/go-entraid-auth/internal/domain/auth"
	apperrors "github.com/target/go-entraid-auth/internal/errors"
)

// ClaimsMapper turns a raw ID token plus optional userinfo claims into a
// normalized user with roles. Mapping rules are static configuration; the
// mapper itself is stateless and safe for concurrent use.
type ClaimsMapper struct {
	mappings []domainauth.ClaimMapping
	roles    domainauth.RoleMapping
}

// NewClaimsMapper constructs a mapper. A zero-value roleMapping defaults to
// reading the "roles" claim.
func NewClaimsMapper(mappings []domainauth.ClaimMapping, roleMapping domainauth.RoleMapping) *ClaimsMapper {
	if roleMapping.ClaimName == "" {
		roleMapping.ClaimName = "roles"
	}
	return &ClaimsMapper{mappings: mappings, roles: roleMapping}
}

// DefaultClaimMappings copies the common Entra ID profile claims into
// friendlier keys.
func DefaultClaimMappings() []domainauth.ClaimMapping {
	return []domainauth.ClaimMapping{
		{Source: "given_name", Target: "firstName"},
		{Source: "family_name", Target: "lastName"},
		{Source: "upn", Target: "userPrincipalName"},
		{Source: "unique_name", Target: "uniqueName"},
		{Source: "jobTitle", Target: "jobTitle"},
		{Source: "department", Target: "department"},
	}
}

// MapUser decodes the ID token payload, folds in userinfo (userinfo wins on
// key collision), applies the configured claim mappings, and extracts roles.
// A malformed ID token fails with a protocol error; no partial user is ever
// returned.
func (m *ClaimsMapper) MapUser(idToken string, userInfo domainauth.Claims) (domainauth.User, error) {
	decoded, err := decodeIDTokenClaims(idToken)
	if err != nil {
		return domainauth.User{}, err
	}

	combined := make(domainauth.Claims, len(decoded)+len(userInfo))
	for k, v := range decoded {
		combined[k] = v
	}
	for k, v := range userInfo {
		combined[k] = v
	}

	user := domainauth.User{
		ID:                firstNonEmpty(combined.String("sub"), combined.String("oid")),
		Email:             firstNonEmpty(combined.String("email"), combined.String("preferred_username")),
		Name:              displayName(combined),
		PreferredUsername: combined.String("preferred_username"),
		TenantID:          combined.String("tid"),
		Claims:            combined,
	}

	// Custom mappings take precedence over identically-named raw claims.
	for _, mapping := range m.mappings {
		value := resolvePath(combined, mapping.Source)
		if value == nil {
			continue
		}
		if mapping.Transform != nil {
			value = mapping.Transform(value)
		}
		user.Claims[mapping.Target] = value
	}

	user.Roles = m.extractRoles(combined)

	return user, nil
}

// extractRoles builds the deduplicated role set: static roles, the mapped
// role claim values, any app_roles, and any groups rendered as
// "group:<value>". Output order is not guaranteed.
func (m *ClaimsMapper) extractRoles(claims domainauth.Claims) []string {
	seen := make(map[string]struct{})
	roles := make([]string, 0, len(m.roles.StaticRoles))

	add := func(role string) {
		if _, ok := seen[role]; ok {
			return
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}

	for _, r := range m.roles.StaticRoles {
		add(r)
	}

	for _, raw := range toStringSlice(resolvePath(claims, m.roles.ClaimName)) {
		mapped := raw
		if substitute, ok := m.roles.RoleMap[raw]; ok {
			mapped = substitute
		}
		add(m.roles.RolePrefix + mapped)
	}

	for _, r := range claims.StringSlice("app_roles") {
		add(r)
	}

	for _, g := range claims.StringSlice("groups") {
		add("group:" + g)
	}

	return roles
}

// decodeIDTokenClaims decodes the payload segment of a JWT-shaped ID token.
// The signature is not verified here; the provider adapter already received
// the token over a direct TLS channel from the token endpoint.
func decodeIDTokenClaims(idToken string) (domainauth.Claims, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, apperrors.Protocol("invalid ID token format")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeProtocol, "invalid ID token format")
	}

	var claims domainauth.Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeProtocol, "invalid ID token format")
	}
	return claims, nil
}

// displayName derives the user's display name: the name claim, falling back
// to joining given_name and family_name. When every source is absent the
// result is empty rather than a degenerate placeholder.
func displayName(claims domainauth.Claims) string {
	if name := claims.String("name"); name != "" {
		return name
	}
	parts := make([]string, 0, 2)
	if given := claims.String("given_name"); given != "" {
		parts = append(parts, given)
	}
	if family := claims.String("family_name"); family != "" {
		parts = append(parts, family)
	}
	return strings.Join(parts, " ")
}

// resolvePath resolves a dot-path against the claim set. Dot-paths are valid
// JMESPath expressions, so arbitrary nesting works.
func resolvePath(claims domainauth.Claims, path string) any {
	if path == "" {
		return nil
	}
	value, err := jmespath.Search(path, map[string]any(claims))
	if err != nil {
		return nil
	}
	return value
}

// toStringSlice renders a resolved claim value (scalar or array) as strings.
func toStringSlice(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
