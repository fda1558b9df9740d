// Package oauth implements the authorization-code-with-PKCE flow for the supported identity providers.
package oauth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"stampauth/internal/domain/entity"
	"stampauth/internal/domain/service"
)

var defaultScopes = []string{"openid", "email", "profile"}

// claimsVerifier turns a raw ID token into its claim set. Implementations decide how much to trust it.
type claimsVerifier func(ctx context.Context, rawIDToken string) (map[string]any, error)

// provider is the shared oauth2 plumbing behind every concrete identity provider.
type provider struct {
	name        entity.ProviderType
	config      *oauth2.Config
	authOptions []oauth2.AuthCodeOption
	timeout     time.Duration
	httpClient  *http.Client
	verify      claimsVerifier
}

func newProvider(name entity.ProviderType, cfg *oauth2.Config, timeout time.Duration, verify claimsVerifier, opts ...oauth2.AuthCodeOption) *provider {
	return &provider{
		name:        name,
		config:      cfg,
		authOptions: opts,
		timeout:     timeout,
		httpClient:  &http.Client{Timeout: timeout},
		verify:      verify,
	}
}

func (p *provider) Name() entity.ProviderType {
	return p.name
}

// AuthorizationURL carries state and the S256 challenge derived from codeVerifier.
func (p *provider) AuthorizationURL(state, codeVerifier string) string {
	opts := append([]oauth2.AuthCodeOption{oauth2.S256ChallengeOption(codeVerifier)}, p.authOptions...)

	return p.config.AuthCodeURL(state, opts...)
}

// ExchangeCode redeems the code at the token endpoint and reads the identity from the returned ID token.
func (p *provider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*service.OAuthIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, errors.Wrapf(err, "%s token exchange", p.name)
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, errors.Errorf("%s token response has no id_token", p.name)
	}

	claims, err := p.verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrapf(err, "%s id token", p.name)
	}

	identity := identityFromClaims(claims)
	if identity.ProviderAccountID == "" {
		return nil, errors.Errorf("%s id token has no subject", p.name)
	}

	identity.AccessToken = token.AccessToken
	identity.RefreshToken = token.RefreshToken
	identity.IDToken = rawIDToken
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		identity.AccessTokenExpiresAt = &expiry
	}

	return identity, nil
}

func identityFromClaims(claims map[string]any) *service.OAuthIdentity {
	identity := &service.OAuthIdentity{
		ProviderAccountID: stringClaim(claims, "sub"),
		Email:             stringClaim(claims, "email"),
		EmailVerified:     boolClaim(claims, "email_verified"),
		Name:              stringClaim(claims, "name"),
		GivenName:         stringClaim(claims, "given_name"),
		FamilyName:        stringClaim(claims, "family_name"),
		AvatarURL:         stringClaim(claims, "picture"),
	}

	if identity.Name == "" {
		identity.Name = strings.TrimSpace(identity.GivenName + " " + identity.FamilyName)
	}

	return identity
}

func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)

	return strings.TrimSpace(s)
}

// boolClaim accepts both JSON booleans and the string form some issuers emit.
func boolClaim(claims map[string]any, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}
