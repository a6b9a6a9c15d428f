package model

import (
	"time"

	"startupconnect/api/pkg/util"

	"gorm.io/gorm"
)

type MentorshipStatus string

const (
	MentorshipPending  MentorshipStatus = "PENDING"
	MentorshipAccepted MentorshipStatus = "ACCEPTED"
	MentorshipRejected MentorshipStatus = "REJECTED"
)

type MentorshipRequest struct {
	ID             string           `gorm:"primaryKey;size:16" json:"id"`
	EntrepreneurID string           `gorm:"size:16;not null;index:idx_mentorship_pair" json:"entrepreneurId"`
	MentorID       string           `gorm:"size:16;not null;index:idx_mentorship_pair" json:"mentorId"`
	Message        string           `json:"message"`
	Status         MentorshipStatus `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func (m *MentorshipRequest) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = util.NewID()
	}
	if m.Status == "" {
		m.Status = MentorshipPending
	}
	return nil
}
