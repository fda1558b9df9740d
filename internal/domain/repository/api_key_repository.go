package repository

import (
	"context"
	"errors"
	"time"

	"stampauth/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrAPIKeyNotFound is returned when no API key matches.
var ErrAPIKeyNotFound = errors.New("api key not found")

// APIKeyRepository persists API keys. Keys are never hard-deleted.
type APIKeyRepository interface {
	// Create stores a new key record.
	Create(ctx context.Context, key *entity.APIKey) error

	// FindByHash looks up a key by the SHA-256 hex of its secret.
	FindByHash(ctx context.Context, keyHash string) (*entity.APIKey, error)

	// ListByUserID returns a user's keys, newest first.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.APIKey, error)

	// TouchLastUsed stamps the key's last use.
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error

	// Deactivate sets is_active=false when the key belongs to userID.
	Deactivate(ctx context.Context, id, userID uuid.UUID) error
}
