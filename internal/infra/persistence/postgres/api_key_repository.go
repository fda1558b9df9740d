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
)

type apiKeyRepository struct {
	db *gorm.DB
}

// NewAPIKeyRepository is the constructor for apiKeyRepository.
func NewAPIKeyRepository(db *gorm.DB) repository.APIKeyRepository {
	return &apiKeyRepository{db: db}
}

func (repo *apiKeyRepository) Create(ctx context.Context, key *entity.APIKey) error {
	keyM := fromAPIKeyDomain(key)

	if err := repo.db.WithContext(ctx).Create(keyM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("api key hash collision")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound.WrapMessage("invalid user reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create api key")
	}

	key.ID = keyM.ID
	key.CreatedAt = keyM.CreatedAt

	return nil
}

func (repo *apiKeyRepository) FindByHash(ctx context.Context, keyHash string) (*entity.APIKey, error) {
	var keyM model.APIKeyModel
	if err := repo.db.WithContext(ctx).Where("key_hash = ?", keyHash).First(&keyM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAPIKeyNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toAPIKeyDomain(&keyM), nil
}

func (repo *apiKeyRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.APIKey, error) {
	var keysM []model.APIKeyModel
	if err := repo.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&keysM).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list api keys")
	}

	keys := make([]*entity.APIKey, 0, len(keysM))
	for i := range keysM {
		keys = append(keys, toAPIKeyDomain(&keysM[i]))
	}

	return keys, nil
}

func (repo *apiKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := repo.db.WithContext(ctx).
		Model(&model.APIKeyModel{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to touch api key")
	}

	return nil
}

// Deactivate soft-revokes a key. Revoking an already inactive key still succeeds.
func (repo *apiKeyRepository) Deactivate(ctx context.Context, id, userID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.APIKeyModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_active", false)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to revoke api key")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAPIKeyNotFound
	}

	return nil
}

// --- Mapper Functions ---

func toAPIKeyDomain(data *model.APIKeyModel) *entity.APIKey {
	if data == nil {
		return nil
	}

	return &entity.APIKey{
		ID:         data.ID,
		UserID:     data.UserID,
		KeyPrefix:  data.KeyPrefix,
		KeyHash:    data.KeyHash,
		Name:       data.Name,
		Scopes:     []string(data.Scopes),
		CreatedAt:  data.CreatedAt,
		LastUsedAt: data.LastUsedAt,
		ExpiresAt:  data.ExpiresAt,
		IsActive:   data.IsActive,
	}
}

func fromAPIKeyDomain(data *entity.APIKey) *model.APIKeyModel {
	if data == nil {
		return nil
	}

	return &model.APIKeyModel{
		ID:         data.ID,
		UserID:     data.UserID,
		KeyPrefix:  data.KeyPrefix,
		KeyHash:    data.KeyHash,
		Name:       data.Name,
		Scopes:     data.Scopes,
		CreatedAt:  data.CreatedAt,
		LastUsedAt: data.LastUsedAt,
		ExpiresAt:  data.ExpiresAt,
		IsActive:   data.IsActive,
	}
}
