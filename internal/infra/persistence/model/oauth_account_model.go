package model

import (
	"time"

	"github.com/google/uuid"
)

// OAuthAccountModel mirrors the 'oauth_accounts' table. (provider, provider_account_id) is unique.
type OAuthAccountModel struct {
	ID                   uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID               uuid.UUID `gorm:"type:uuid;not null;index"`
	Provider             string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_oauth_provider_account"`
	ProviderAccountID    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_oauth_provider_account"`
	AccessToken          string    `gorm:"type:text;not null"`
	RefreshToken         *string   `gorm:"type:text"`
	AccessTokenExpiresAt *time.Time
	IDToken              *string `gorm:"type:text"`
	ProviderEmail        *string `gorm:"type:varchar(255)"`
	ProviderName         *string `gorm:"type:varchar(255)"`
	ProviderAvatarURL    *string `gorm:"type:text"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName explicitly sets the table name for GORM.
func (OAuthAccountModel) TableName() string {
	return "oauth_accounts"
}
