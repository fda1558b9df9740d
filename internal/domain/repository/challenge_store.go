package repository

import (
	"context"
	"errors"
	"time"

	"stampauth/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrChallengeNotFound covers absent, expired and already consumed challenges alike.
var ErrChallengeNotFound = errors.New("challenge not found")

// ChallengeStore keeps one-time protocol state between the two halves of a handshake.
type ChallengeStore interface {
	// Create stores payload under a fresh random id and returns that id.
	Create(ctx context.Context, challengeType entity.ChallengeType, payload []byte, ttl time.Duration, boundUserID *uuid.UUID) (string, error)

	// Consume atomically reads and deletes the challenge. Concurrent callers with the same id
	// see exactly one success; everyone else gets ErrChallengeNotFound.
	Consume(ctx context.Context, id string) (*entity.Challenge, error)

	// PurgeExpired removes challenges past their expiry and reports how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
}
