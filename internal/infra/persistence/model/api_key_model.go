package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// APIKeyModel mirrors the 'api_keys' table. Only the SHA-256 of the secret is stored.
type APIKeyModel struct {
	ID         uuid.UUID                   `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID     uuid.UUID                   `gorm:"type:uuid;not null;index"`
	KeyPrefix  string                      `gorm:"type:varchar(32);not null"`
	KeyHash    string                      `gorm:"type:char(64);uniqueIndex;not null"`
	Name       string                      `gorm:"type:varchar(100);not null"`
	Scopes     datatypes.JSONSlice[string] `gorm:"not null"`
	CreatedAt  time.Time
	LastUsedAt *time.Time
	ExpiresAt  *time.Time
	IsActive   bool `gorm:"not null;default:true"`
}

// TableName explicitly sets the table name for GORM.
func (APIKeyModel) TableName() string {
	return "api_keys"
}
