package oauth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	googleendpoint "golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"stampauth/internal/domain/entity"
	"stampauth/internal/domain/service"
)

// IDTokenValidator checks a Google ID token's signature, issuer, expiry and audience.
type IDTokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// NewGoogleProvider builds the Google provider. validate may be nil, in which case idtoken.Validate is used.
func NewGoogleProvider(clientID, clientSecret, redirectURL string, timeout time.Duration, validate IDTokenValidator) service.OAuthProvider {
	return newGoogleProvider(googleendpoint.Endpoint, clientID, clientSecret, redirectURL, timeout, validate)
}

func newGoogleProvider(endpoint oauth2.Endpoint, clientID, clientSecret, redirectURL string, timeout time.Duration, validate IDTokenValidator) *provider {
	if validate == nil {
		validate = idtoken.Validate
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirectURL,
		Scopes:       defaultScopes,
	}

	verify := func(ctx context.Context, rawIDToken string) (map[string]any, error) {
		payload, err := validate(ctx, rawIDToken, clientID)
		if err != nil {
			return nil, errors.Wrap(err, "validate")
		}

		claims := make(map[string]any, len(payload.Claims)+1)
		for k, v := range payload.Claims {
			claims[k] = v
		}
		claims["sub"] = payload.Subject

		return claims, nil
	}

	return newProvider(entity.ProviderTypeGoogle, cfg, timeout, verify, oauth2.AccessTypeOffline)
}
