package postgres

import (
	"context"
	"time"

	"stampauth/internal/domain/entity"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/domain/repository"
	"stampauth/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type challengeStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewChallengeStore returns a ChallengeStore backed by the auth_challenges table.
func NewChallengeStore(db *gorm.DB) repository.ChallengeStore {
	return &challengeStore{db: db, now: time.Now}
}

func (s *challengeStore) Create(ctx context.Context, challengeType entity.ChallengeType, payload []byte, ttl time.Duration, boundUserID *uuid.UUID) (string, error) {
	id, err := entity.NewChallengeID()
	if err != nil {
		return "", errors.Wrap(err, "failed to generate challenge id")
	}

	now := s.now()
	challengeM := &model.ChallengeModel{
		ID:        id,
		Type:      string(challengeType),
		Payload:   payload,
		UserID:    boundUserID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(challengeM).Error; err != nil {
		return "", domainerrors.NewDatabaseExecuteError(err, "failed to create challenge")
	}

	return id, nil
}

// Consume deletes the row and reads it back in one statement, so only one caller can win.
func (s *challengeStore) Consume(ctx context.Context, id string) (*entity.Challenge, error) {
	var rows []model.ChallengeModel
	result := s.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Delete(&rows)
	if result.Error != nil {
		return nil, domainerrors.NewDatabaseExecuteError(result.Error, "failed to consume challenge")
	}

	return consumedChallenge(rows, s.now())
}

// consumedChallenge maps the rows returned by the consuming delete. A row that
// expired before it was consumed is reported the same as a missing one.
func consumedChallenge(rows []model.ChallengeModel, now time.Time) (*entity.Challenge, error) {
	if len(rows) == 0 {
		return nil, repository.ErrChallengeNotFound
	}

	challenge := toChallengeDomain(&rows[0])
	if challenge.Expired(now) {
		return nil, repository.ErrChallengeNotFound
	}

	return challenge, nil
}

func (s *challengeStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.now()).
		Delete(&model.ChallengeModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to purge challenges")
	}

	return result.RowsAffected, nil
}

func toChallengeDomain(data *model.ChallengeModel) *entity.Challenge {
	if data == nil {
		return nil
	}

	return &entity.Challenge{
		ID:        data.ID,
		Type:      entity.ChallengeType(data.Type),
		Payload:   []byte(data.Payload),
		UserID:    data.UserID,
		ExpiresAt: data.ExpiresAt,
		CreatedAt: data.CreatedAt,
	}
}
