// Package mocks provides mock implementations for testing the authentication core.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// port interfaces. The mocks are generated using go:generate directives and provide
// a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	provider := mocks.NewMockIdentityProvider(ctrl)
//	provider.EXPECT().Exchange(gomock.Any(), gomock.Any()).Return(tokenSet, nil)
package mocks

// Generate mock for IdentityProvider interface from internal/ports.
// This creates MockIdentityProvider with methods:
// BeginAuth, Exchange, Refresh, UserInfo, LogoutURL
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=identity_provider_mock.go github.com/target/go-entraid-auth/internal/ports IdentityProvider

// Generate mock for UserMapper interface from internal/ports.
// This creates MockUserMapper with the MapUser method.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=user_mapper_mock.go github.com/target/go-entraid-auth/internal/ports UserMapper

// Generate mock for SessionCodec interface from internal/ports.
// This creates MockSessionCodec with Encode and Decode methods.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_codec_mock.go github.com/target/go-entraid-auth/internal/ports SessionCodec
