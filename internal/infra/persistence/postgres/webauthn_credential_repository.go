package postgres

import (
	"context"

	"stampauth/internal/domain/entity"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/domain/repository"
	"stampauth/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type webAuthnCredentialRepository struct {
	db *gorm.DB
}

// NewWebAuthnCredentialRepository is the constructor for webAuthnCredentialRepository.
func NewWebAuthnCredentialRepository(db *gorm.DB) repository.WebAuthnCredentialRepository {
	return &webAuthnCredentialRepository{db: db}
}

func (repo *webAuthnCredentialRepository) Create(ctx context.Context, credential *entity.WebAuthnCredential) error {
	credentialM := fromWebAuthnCredentialDomain(credential)

	if err := repo.db.WithContext(ctx).Create(credentialM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrCredentialAlreadyRegistered
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound.WrapMessage("invalid user reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create webauthn credential")
	}

	credential.ID = credentialM.ID
	credential.CreatedAt = credentialM.CreatedAt

	return nil
}

func (repo *webAuthnCredentialRepository) FindByCredentialID(ctx context.Context, credentialID string) (*entity.WebAuthnCredential, error) {
	var credentialM model.WebAuthnCredentialModel
	if err := repo.db.WithContext(ctx).Where("credential_id = ?", credentialID).First(&credentialM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toWebAuthnCredentialDomain(&credentialM), nil
}

func (repo *webAuthnCredentialRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.WebAuthnCredential, error) {
	var credentialsM []model.WebAuthnCredentialModel
	if err := repo.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&credentialsM).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list webauthn credentials")
	}

	credentials := make([]*entity.WebAuthnCredential, 0, len(credentialsM))
	for i := range credentialsM {
		credentials = append(credentials, toWebAuthnCredentialDomain(&credentialsM[i]))
	}

	return credentials, nil
}

// UpdateUsage persists the counter, backup state and last-used time.
func (repo *webAuthnCredentialRepository) UpdateUsage(ctx context.Context, credential *entity.WebAuthnCredential) error {
	result := repo.db.WithContext(ctx).
		Model(&model.WebAuthnCredentialModel{}).
		Where("id = ?", credential.ID).
		Updates(map[string]any{
			"counter":      int64(credential.Counter),
			"backed_up":    credential.BackedUp,
			"last_used_at": credential.LastUsedAt,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update webauthn credential")
	}
	if result.RowsAffected == 0 {
		return repository.ErrCredentialNotFound
	}

	return nil
}

func (repo *webAuthnCredentialRepository) DeleteByIDAndUserID(ctx context.Context, id, userID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.WebAuthnCredentialModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete webauthn credential")
	}
	if result.RowsAffected == 0 {
		return repository.ErrCredentialNotFound
	}

	return nil
}

// --- Mapper Functions ---

func toWebAuthnCredentialDomain(data *model.WebAuthnCredentialModel) *entity.WebAuthnCredential {
	if data == nil {
		return nil
	}

	return &entity.WebAuthnCredential{
		ID:              data.ID,
		UserID:          data.UserID,
		CredentialID:    data.CredentialID,
		PublicKey:       data.PublicKey,
		Counter:         uint32(data.Counter), //nolint:gosec // stored from a uint32
		DeviceType:      data.DeviceType,
		BackupEligible:  data.BackupEligible,
		BackedUp:        data.BackedUp,
		Transports:      []string(data.Transports),
		AttestationType: data.AttestationType,
		AAGUID:          data.AAGUID,
		DeviceName:      data.DeviceName,
		LastUsedAt:      data.LastUsedAt,
		CreatedAt:       data.CreatedAt,
	}
}

func fromWebAuthnCredentialDomain(data *entity.WebAuthnCredential) *model.WebAuthnCredentialModel {
	if data == nil {
		return nil
	}

	transports := data.Transports
	if transports == nil {
		transports = []string{}
	}

	return &model.WebAuthnCredentialModel{
		ID:              data.ID,
		UserID:          data.UserID,
		CredentialID:    data.CredentialID,
		PublicKey:       data.PublicKey,
		Counter:         int64(data.Counter),
		DeviceType:      data.DeviceType,
		BackupEligible:  data.BackupEligible,
		BackedUp:        data.BackedUp,
		Transports:      transports,
		AttestationType: data.AttestationType,
		AAGUID:          data.AAGUID,
		DeviceName:      data.DeviceName,
		LastUsedAt:      data.LastUsedAt,
		CreatedAt:       data.CreatedAt,
	}
}
