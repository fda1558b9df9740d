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

type oauthAccountRepository struct {
	db *gorm.DB
}

// NewOAuthAccountRepository is the constructor for oauthAccountRepository.
func NewOAuthAccountRepository(db *gorm.DB) repository.OAuthAccountRepository {
	return &oauthAccountRepository{db: db}
}

func (repo *oauthAccountRepository) Create(ctx context.Context, account *entity.OAuthAccount) error {
	accountM := fromOAuthAccountDomain(account)

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrOAuthAccountLinkedToOther.WrapMessage("provider identity already linked")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound.WrapMessage("invalid user reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create oauth account")
	}

	account.ID = accountM.ID
	account.CreatedAt = accountM.CreatedAt
	account.UpdatedAt = accountM.UpdatedAt

	return nil
}

func (repo *oauthAccountRepository) FindByProviderAccount(ctx context.Context, provider entity.ProviderType, providerAccountID string) (*entity.OAuthAccount, error) {
	var accountM model.OAuthAccountModel
	err := repo.db.WithContext(ctx).
		Where("provider = ? AND provider_account_id = ?", string(provider), providerAccountID).
		First(&accountM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOAuthAccountNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toOAuthAccountDomain(&accountM), nil
}

// UpdateTokens overwrites tokens and the profile snapshot. A nil refresh token keeps the stored one.
func (repo *oauthAccountRepository) UpdateTokens(ctx context.Context, account *entity.OAuthAccount) error {
	updates := map[string]any{
		"access_token":            account.AccessToken,
		"access_token_expires_at": account.AccessTokenExpiresAt,
		"id_token":                account.IDToken,
		"provider_email":          account.ProviderEmail,
		"provider_name":           account.ProviderName,
		"provider_avatar_url":     account.ProviderAvatarURL,
	}
	if account.RefreshToken != nil {
		updates["refresh_token"] = *account.RefreshToken
	}

	result := repo.db.WithContext(ctx).
		Model(&model.OAuthAccountModel{}).
		Where("id = ?", account.ID).
		Updates(updates)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update oauth tokens")
	}
	if result.RowsAffected == 0 {
		return repository.ErrOAuthAccountNotFound
	}

	return nil
}

func (repo *oauthAccountRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.OAuthAccount, error) {
	var accountsM []model.OAuthAccountModel
	if err := repo.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&accountsM).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list oauth accounts")
	}

	accounts := make([]*entity.OAuthAccount, 0, len(accountsM))
	for i := range accountsM {
		accounts = append(accounts, toOAuthAccountDomain(&accountsM[i]))
	}

	return accounts, nil
}

func (repo *oauthAccountRepository) DeleteByIDAndUserID(ctx context.Context, id, userID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.OAuthAccountModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete oauth account")
	}
	if result.RowsAffected == 0 {
		return repository.ErrOAuthAccountNotFound
	}

	return nil
}

// --- Mapper Functions ---

func toOAuthAccountDomain(data *model.OAuthAccountModel) *entity.OAuthAccount {
	if data == nil {
		return nil
	}

	return &entity.OAuthAccount{
		ID:                   data.ID,
		UserID:               data.UserID,
		Provider:             entity.ProviderType(data.Provider),
		ProviderAccountID:    data.ProviderAccountID,
		AccessToken:          data.AccessToken,
		RefreshToken:         data.RefreshToken,
		AccessTokenExpiresAt: data.AccessTokenExpiresAt,
		IDToken:              data.IDToken,
		ProviderEmail:        data.ProviderEmail,
		ProviderName:         data.ProviderName,
		ProviderAvatarURL:    data.ProviderAvatarURL,
		CreatedAt:            data.CreatedAt,
		UpdatedAt:            data.UpdatedAt,
	}
}

func fromOAuthAccountDomain(data *entity.OAuthAccount) *model.OAuthAccountModel {
	if data == nil {
		return nil
	}

	return &model.OAuthAccountModel{
		ID:                   data.ID,
		UserID:               data.UserID,
		Provider:             string(data.Provider),
		ProviderAccountID:    data.ProviderAccountID,
		AccessToken:          data.AccessToken,
		RefreshToken:         data.RefreshToken,
		AccessTokenExpiresAt: data.AccessTokenExpiresAt,
		IDToken:              data.IDToken,
		ProviderEmail:        data.ProviderEmail,
		ProviderName:         data.ProviderName,
		ProviderAvatarURL:    data.ProviderAvatarURL,
		CreatedAt:            data.CreatedAt,
		UpdatedAt:            data.UpdatedAt,
	}
}
