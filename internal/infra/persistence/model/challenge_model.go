package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChallengeModel mirrors the 'auth_challenges' table.
type ChallengeModel struct {
	ID        string         `gorm:"type:varchar(64);primary_key"`
	Type      string         `gorm:"column:challenge_type;type:varchar(32);not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	UserID    *uuid.UUID     `gorm:"type:uuid"`
	ExpiresAt time.Time      `gorm:"not null;index"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (ChallengeModel) TableName() string {
	return "auth_challenges"
}
