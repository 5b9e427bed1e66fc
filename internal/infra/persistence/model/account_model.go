package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountModel mirrors the 'accounts' table. PostgreSQL generates UUIDs via
// uuid_generate_v4(). Username and email each carry a unique constraint; the
// reset token columns are nullable and cleared on consumption.
type AccountModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Username          string    `gorm:"type:varchar(100);unique;not null"`
	Email             string    `gorm:"type:varchar(255);unique;not null"`
	PasswordHash      string    `gorm:"type:varchar(255);not null"`
	AvatarURL         string    `gorm:"type:varchar(512)"`
	ResetToken        *string   `gorm:"type:varchar(128);index"`
	ResetTokenExpires *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName explicitly sets the table name for GORM.
func (AccountModel) TableName() string {
	return "accounts"
}
