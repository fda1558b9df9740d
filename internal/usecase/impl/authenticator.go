package impl

import (
	"context"
	"log/slog"

	deliverycontext "stampauth/internal/delivery/context"
	"stampauth/internal/domain/entity"
	"stampauth/internal/domain/service"
	"stampauth/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authenticator implements usecase.Authenticator. It stores nothing itself.
type authenticator struct {
	apiKeys      usecase.APIKeyUsecase
	generator    service.APIKeyGenerator
	tokenService service.TokenService
	logger       *slog.Logger
}

// AuthenticatorParams holds dependencies for the authenticator, injected by Fx.
type AuthenticatorParams struct {
	fx.In

	APIKeys      usecase.APIKeyUsecase
	Generator    service.APIKeyGenerator
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewAuthenticator is the constructor for authenticator.
func NewAuthenticator(params AuthenticatorParams) usecase.Authenticator {
	return &authenticator{
		apiKeys:      params.APIKeys,
		generator:    params.Generator,
		tokenService: params.TokenService,
		logger:       params.Logger,
	}
}

// Authenticate dispatches on the bearer prefix. It returns either a fully
// populated identity or usecase.ErrUnauthenticated; infrastructure failures
// are logged and reported as unauthenticated too.
func (a *authenticator) Authenticate(ctx context.Context, bearer string) (*entity.Identity, error) {
	if bearer == "" {
		return nil, usecase.ErrUnauthenticated
	}

	if a.generator.Matches(bearer) {
		identity, err := a.apiKeys.Verify(ctx, bearer)
		if err != nil {
			if !errors.Is(err, usecase.ErrUnauthenticated) {
				deliverycontext.GetLoggerOrDefault(ctx, a.logger).Error("API key verification failed", slog.Any("error", err))
			}

			return nil, usecase.ErrUnauthenticated
		}

		return identity, nil
	}

	claims, err := a.tokenService.ValidateToken(bearer)
	if err != nil {
		return nil, usecase.ErrUnauthenticated
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, usecase.ErrUnauthenticated
	}

	scopes := []string{entity.ScopeAll}
	if claims.Type == service.TokenPurposeExtension {
		scopes = []string{entity.ScopeExtension}
	}

	return &entity.Identity{
		Method: entity.AuthMethodSession,
		UserID: userID,
		Scopes: scopes,
	}, nil
}
