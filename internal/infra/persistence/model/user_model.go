package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via gen_random_uuid().
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	FirstName    string    `gorm:"type:varchar(100);not null"`
	LastName     string    `gorm:"type:varchar(100);not null;default:''"`
	Phone        *string   `gorm:"type:varchar(50)"`
	AvatarURL    *string   `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time

	OAuthAccounts       []OAuthAccountModel       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	WebAuthnCredentials []WebAuthnCredentialModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	APIKeys             []APIKeyModel             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
