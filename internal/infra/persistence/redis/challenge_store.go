package redis

import (
	"context"
	"encoding/json"
	"time"

	"stampauth/internal/domain/entity"
	"stampauth/internal/domain/repository"
	"stampauth/internal/errors"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const challengeKeyPrefix = "challenge:"

type challengeRecord struct {
	Type      entity.ChallengeType `json:"type"`
	Payload   json.RawMessage      `json:"payload"`
	UserID    *uuid.UUID           `json:"userId,omitempty"`
	ExpiresAt time.Time            `json:"expiresAt"`
	CreatedAt time.Time            `json:"createdAt"`
}

type challengeStore struct {
	client goredis.UniversalClient
	now    func() time.Time
}

// NewChallengeStore returns a ChallengeStore that keeps each challenge in its own key with a TTL.
func NewChallengeStore(client *goredis.Client) repository.ChallengeStore {
	return &challengeStore{client: client, now: time.Now}
}

func challengeKey(id string) string {
	return challengeKeyPrefix + id
}

func (s *challengeStore) Create(ctx context.Context, challengeType entity.ChallengeType, payload []byte, ttl time.Duration, boundUserID *uuid.UUID) (string, error) {
	id, err := entity.NewChallengeID()
	if err != nil {
		return "", errors.Wrap(err, "failed to generate challenge id")
	}

	now := s.now()
	raw, err := json.Marshal(challengeRecord{
		Type:      challengeType,
		Payload:   payload,
		UserID:    boundUserID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode challenge")
	}

	if err := s.client.Set(ctx, challengeKey(id), raw, ttl).Err(); err != nil {
		return "", errors.Wrap(err, "failed to store challenge")
	}

	return id, nil
}

// Consume relies on GETDEL so that only one caller ever reads a given key.
func (s *challengeStore) Consume(ctx context.Context, id string) (*entity.Challenge, error) {
	raw, err := s.client.GetDel(ctx, challengeKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrChallengeNotFound
		}

		return nil, errors.Wrap(err, "failed to consume challenge")
	}

	var record challengeRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, errors.Wrap(err, "failed to decode challenge")
	}

	challenge := &entity.Challenge{
		ID:        id,
		Type:      record.Type,
		Payload:   []byte(record.Payload),
		UserID:    record.UserID,
		ExpiresAt: record.ExpiresAt,
		CreatedAt: record.CreatedAt,
	}
	if challenge.Expired(s.now()) {
		return nil, repository.ErrChallengeNotFound
	}

	return challenge, nil
}

// PurgeExpired is a no-op: Redis evicts keys on their TTL.
func (s *challengeStore) PurgeExpired(_ context.Context) (int64, error) {
	return 0, nil
}
