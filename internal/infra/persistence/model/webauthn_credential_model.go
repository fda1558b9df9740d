package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WebAuthnCredentialModel mirrors the 'webauthn_credentials' table.
type WebAuthnCredentialModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index"`
	CredentialID    string    `gorm:"type:varchar(1024);uniqueIndex;not null"`
	PublicKey       string    `gorm:"type:text;not null"`
	Counter         int64     `gorm:"not null;default:0"`
	DeviceType      string    `gorm:"type:varchar(32);not null"`
	BackupEligible  bool      `gorm:"not null;default:false"`
	BackedUp        bool      `gorm:"not null;default:false"`
	Transports      datatypes.JSONSlice[string]
	AttestationType string  `gorm:"type:varchar(64)"`
	AAGUID          []byte  `gorm:"column:aaguid;type:bytea"`
	DeviceName      *string `gorm:"type:varchar(255)"`
	LastUsedAt      *time.Time
	CreatedAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (WebAuthnCredentialModel) TableName() string {
	return "webauthn_credentials"
}
