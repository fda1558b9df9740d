package service

import (
	"context"
	"time"

	"stampauth/internal/domain/entity"
)

// OAuthIdentity is what a provider tells us about the user after a code exchange.
type OAuthIdentity struct {
	ProviderAccountID string // The provider's 'sub' claim.
	Email             string
	EmailVerified     bool // Only true when the provider asserted email_verified.
	Name              string
	GivenName         string
	FamilyName        string
	AvatarURL         string

	AccessToken          string
	RefreshToken         string
	AccessTokenExpiresAt *time.Time
	IDToken              string
}

// OAuthProvider drives the authorization-code-with-PKCE flow for one identity provider.
type OAuthProvider interface {
	// Name returns the provider type used in routes and link records.
	Name() entity.ProviderType

	// AuthorizationURL builds the provider redirect, carrying state and the S256 challenge of codeVerifier.
	AuthorizationURL(state, codeVerifier string) string

	// ExchangeCode trades an authorization code and its verifier for a verified identity.
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*OAuthIdentity, error)
}

// OAuthProviderRegistry resolves configured providers by route name.
type OAuthProviderRegistry interface {
	Get(name string) (OAuthProvider, bool)
	Names() []entity.ProviderType
}

// PKCEGenerator produces code verifiers for new OAuth attempts.
type PKCEGenerator interface {
	GenerateVerifier() string
}
