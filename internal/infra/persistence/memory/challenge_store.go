// Package memory provides a process-local challenge store for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"stampauth/internal/domain/entity"
	"stampauth/internal/domain/repository"
	"stampauth/internal/errors"

	"github.com/google/uuid"
)

// ChallengeStore keeps challenges in a map. It does not survive restarts
// and is not shared between replicas.
type ChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]entity.Challenge
	now        func() time.Time
}

// NewChallengeStore returns an empty in-memory store.
func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		challenges: make(map[string]entity.Challenge),
		now:        time.Now,
	}
}

var _ repository.ChallengeStore = (*ChallengeStore)(nil)

func (s *ChallengeStore) Create(_ context.Context, challengeType entity.ChallengeType, payload []byte, ttl time.Duration, boundUserID *uuid.UUID) (string, error) {
	id, err := entity.NewChallengeID()
	if err != nil {
		return "", errors.Wrap(err, "failed to generate challenge id")
	}

	now := s.now()
	challenge := entity.Challenge{
		ID:        id,
		Type:      challengeType,
		Payload:   append([]byte(nil), payload...),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if boundUserID != nil {
		userID := *boundUserID
		challenge.UserID = &userID
	}

	s.mu.Lock()
	s.challenges[id] = challenge
	s.mu.Unlock()

	return id, nil
}

func (s *ChallengeStore) Consume(_ context.Context, id string) (*entity.Challenge, error) {
	s.mu.Lock()
	challenge, ok := s.challenges[id]
	delete(s.challenges, id)
	s.mu.Unlock()

	if !ok || challenge.Expired(s.now()) {
		return nil, repository.ErrChallengeNotFound
	}

	return &challenge, nil
}

func (s *ChallengeStore) PurgeExpired(_ context.Context) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for id, challenge := range s.challenges {
		if challenge.Expired(now) {
			delete(s.challenges, id)
			purged++
		}
	}

	return purged, nil
}
