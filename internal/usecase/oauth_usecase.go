package usecase

import "context"

// OAuthInitiateInput starts an authorization-code flow. A non-empty LinkToken
// links the resulting identity to the token's user instead of logging in.
type OAuthInitiateInput struct {
	Provider  string
	LinkToken string
}

// OAuthCallbackInput is what the provider sends back to the redirect URI.
type OAuthCallbackInput struct {
	Provider      string
	Code          string
	State         string
	ProviderError string
}

// OAuthUsecase brokers OAuth2 logins and account linking.
type OAuthUsecase interface {
	// Initiate returns the provider authorization URL.
	Initiate(ctx context.Context, input *OAuthInitiateInput) (string, error)

	// Callback finishes the flow and always returns a relative redirect target.
	Callback(ctx context.Context, input *OAuthCallbackInput) string
}
