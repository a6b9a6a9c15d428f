package model

import (
	"time"

	"startupconnect/api/pkg/util"

	"gorm.io/gorm"
)

// EmailVerificationToken is a single use credential mailed to the user
type EmailVerificationToken struct {
	ID        string     `gorm:"primaryKey;size:16"`
	UserID    string     `gorm:"size:16;not null;index"`
	Token     string     `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	Used      bool       `gorm:"not null;default:false"`
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (t *EmailVerificationToken) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = util.NewID()
	}
	return nil
}
