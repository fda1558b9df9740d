package usecase

import (
	"context"

	"stampauth/internal/domain/entity"

	"github.com/google/uuid"
)

// CreateAPIKeyInput requests a new API key. Nil Scopes means the default set.
type CreateAPIKeyInput struct {
	UserID        uuid.UUID
	Name          string
	Scopes        []string
	ExpiresInDays *int
}

// CreateAPIKeyOutput holds the only copy of the plaintext key.
type CreateAPIKeyOutput struct {
	Key    string
	ID     uuid.UUID
	Prefix string
	Name   string
}

// APIKeyUsecase manages the lifecycle of API keys.
type APIKeyUsecase interface {
	Create(ctx context.Context, input *CreateAPIKeyInput) (*CreateAPIKeyOutput, error)

	// Verify resolves a presented key. Every rejection is ErrUnauthenticated.
	Verify(ctx context.Context, key string) (*entity.Identity, error)

	List(ctx context.Context, userID uuid.UUID) ([]*entity.APIKey, error)
	Revoke(ctx context.Context, id, userID uuid.UUID) error
}
