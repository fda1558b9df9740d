package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "stampauth/internal/delivery/context"
	"stampauth/internal/domain/entity"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/domain/repository"
	"stampauth/internal/domain/service"
	"stampauth/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	apiKeyNameMaxLength = 100
	apiKeyMaxExpiryDays = 3650
)

// apiKeyService implements the APIKeyUsecase interface.
type apiKeyService struct {
	apiKeyRepo repository.APIKeyRepository
	generator  service.APIKeyGenerator
	metrics    service.AuthMetrics
	now        func() time.Time
	logger     *slog.Logger
}

// APIKeyServiceParams holds dependencies for APIKeyService, injected by Fx.
type APIKeyServiceParams struct {
	fx.In

	APIKeyRepo repository.APIKeyRepository
	Generator  service.APIKeyGenerator
	Metrics    service.AuthMetrics `optional:"true"`
	Logger     *slog.Logger
}

// NewAPIKeyService is the constructor for apiKeyService.
func NewAPIKeyService(params APIKeyServiceParams) usecase.APIKeyUsecase {
	return &apiKeyService{
		apiKeyRepo: params.APIKeyRepo,
		generator:  params.Generator,
		metrics:    metricsOrNoop(params.Metrics),
		now:        time.Now,
		logger:     params.Logger,
	}
}

func (srv *apiKeyService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Create mints a key. The plaintext is only ever present in the returned output.
func (srv *apiKeyService) Create(ctx context.Context, input *usecase.CreateAPIKeyInput) (*usecase.CreateAPIKeyOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > apiKeyNameMaxLength {
		return nil, domainerrors.ErrValidationFailed.WithDetails("name is required and must be at most 100 characters")
	}

	scopes := input.Scopes
	if len(scopes) == 0 {
		scopes = append([]string(nil), entity.DefaultAPIKeyScopes...)
	}

	var expiresAt *time.Time
	if input.ExpiresInDays != nil {
		days := *input.ExpiresInDays
		if days < 1 || days > apiKeyMaxExpiryDays {
			return nil, domainerrors.ErrValidationFailed.WithDetails("expiresInDays must be between 1 and 3650")
		}
		at := srv.now().AddDate(0, 0, days)
		expiresAt = &at
	}

	generated, err := srv.generator.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate api key")
	}

	key := &entity.APIKey{
		UserID:    input.UserID,
		KeyPrefix: generated.Prefix,
		KeyHash:   generated.Hash,
		Name:      name,
		Scopes:    scopes,
		ExpiresAt: expiresAt,
		IsActive:  true,
	}
	if err := srv.apiKeyRepo.Create(ctx, key); err != nil {
		return nil, errors.Wrap(err, "failed to store api key")
	}

	srv.log(ctx).Info("API key created", slog.Any("userID", input.UserID), slog.Any("keyID", key.ID), slog.Any("scopes", scopes))

	return &usecase.CreateAPIKeyOutput{
		Key:    generated.Key,
		ID:     key.ID,
		Prefix: generated.Prefix,
		Name:   name,
	}, nil
}

// Verify resolves a presented key to an identity.
func (srv *apiKeyService) Verify(ctx context.Context, presented string) (*entity.Identity, error) {
	if !srv.generator.Matches(presented) {
		srv.metrics.APIKeyVerification(outcomeInvalid)

		return nil, usecase.ErrUnauthenticated
	}

	key, err := srv.apiKeyRepo.FindByHash(ctx, srv.generator.Hash(presented))
	if err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			srv.metrics.APIKeyVerification(outcomeInvalid)

			return nil, usecase.ErrUnauthenticated
		}

		return nil, errors.Wrap(err, "failed to look up api key")
	}

	now := srv.now()
	if !key.IsActive || key.Expired(now) {
		srv.metrics.APIKeyVerification(outcomeExpired)

		return nil, usecase.ErrUnauthenticated
	}

	if err := srv.apiKeyRepo.TouchLastUsed(ctx, key.ID, now); err != nil {
		srv.log(ctx).Warn("Failed to record api key usage", slog.Any("keyID", key.ID), slog.Any("error", err))
	}
	srv.metrics.APIKeyVerification(outcomeSuccess)

	keyID := key.ID

	return &entity.Identity{
		Method:   entity.AuthMethodAPIKey,
		UserID:   key.UserID,
		Scopes:   key.Scopes,
		APIKeyID: &keyID,
	}, nil
}

func (srv *apiKeyService) List(ctx context.Context, userID uuid.UUID) ([]*entity.APIKey, error) {
	keys, err := srv.apiKeyRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list api keys")
	}

	return keys, nil
}

// Revoke deactivates a key owned by userID. The row is kept.
func (srv *apiKeyService) Revoke(ctx context.Context, id, userID uuid.UUID) error {
	if err := srv.apiKeyRepo.Deactivate(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return domainerrors.ErrAPIKeyNotFound
		}

		return errors.Wrap(err, "failed to revoke api key")
	}

	srv.log(ctx).Info("API key revoked", slog.Any("userID", userID), slog.Any("keyID", id))

	return nil
}
