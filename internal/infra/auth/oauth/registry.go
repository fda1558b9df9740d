package oauth

import (
	"log/slog"
	"slices"

	"golang.org/x/oauth2"

	"stampauth/config"
	"stampauth/internal/domain/entity"
	"stampauth/internal/domain/service"
)

type registry struct {
	providers map[entity.ProviderType]service.OAuthProvider
}

// NewRegistry registers every provider whose client credentials are configured.
func NewRegistry(cfg *config.Config, logger *slog.Logger) service.OAuthProviderRegistry {
	oc := cfg.OAuth
	providers := make([]service.OAuthProvider, 0, 2)

	if oc.Google.Enabled() {
		providers = append(providers, NewGoogleProvider(
			oc.Google.ClientID, oc.Google.ClientSecret,
			CallbackURL(oc.BaseURL, entity.ProviderTypeGoogle), oc.ExchangeTimeout, nil,
		))
	}
	if oc.Microsoft.Enabled() {
		providers = append(providers, NewMicrosoftProvider(
			oc.Microsoft.TenantID, oc.Microsoft.ClientID, oc.Microsoft.ClientSecret,
			CallbackURL(oc.BaseURL, entity.ProviderTypeMicrosoft), oc.ExchangeTimeout,
		))
	}

	r := NewStaticRegistry(providers...)
	logger.Info("oauth providers registered", slog.Any("providers", r.Names()))

	return r
}

// NewStaticRegistry wraps an explicit provider list.
func NewStaticRegistry(providers ...service.OAuthProvider) service.OAuthProviderRegistry {
	r := &registry{providers: make(map[entity.ProviderType]service.OAuthProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}

	return r
}

func (r *registry) Get(name string) (service.OAuthProvider, bool) {
	p, ok := r.providers[entity.ProviderType(name)]

	return p, ok
}

// Names returns registered providers in a stable order.
func (r *registry) Names() []entity.ProviderType {
	names := make([]entity.ProviderType, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// CallbackURL is the redirect URI registered with the provider.
func CallbackURL(baseURL string, provider entity.ProviderType) string {
	return baseURL + "/api/auth/callback/" + string(provider)
}

type pkceGenerator struct{}

// NewPKCEGenerator returns a generator of RFC 7636 code verifiers.
func NewPKCEGenerator() service.PKCEGenerator {
	return pkceGenerator{}
}

func (pkceGenerator) GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}
