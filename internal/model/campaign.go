package model

import (
	"time"

	"startupconnect/api/pkg/util"

	"gorm.io/gorm"
)

type CampaignStatus string

const (
	CampaignActive CampaignStatus = "ACTIVE"
	CampaignClosed CampaignStatus = "CLOSED"
)

type Campaign struct {
	ID          string         `gorm:"primaryKey;size:16" json:"id"`
	OwnerID     string         `gorm:"size:16;not null;index" json:"ownerId"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Industry    string         `gorm:"index" json:"industry"`
	FundingGoal int64          `gorm:"not null" json:"fundingGoal"`
	Status      CampaignStatus `gorm:"type:varchar(16);not null;default:'ACTIVE';index" json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (c *Campaign) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = util.NewID()
	}
	if c.Status == "" {
		c.Status = CampaignActive
	}
	return nil
}

type PitchStatus string

const (
	PitchPending  PitchStatus = "PENDING"
	PitchReviewed PitchStatus = "REVIEWED"
)

type Pitch struct {
	ID             string      `gorm:"primaryKey;size:16" json:"id"`
	EntrepreneurID string      `gorm:"size:16;not null;index" json:"entrepreneurId"`
	InvestorID     string      `gorm:"size:16;not null;index" json:"investorId"`
	CampaignID     *string     `gorm:"size:16" json:"campaignId,omitempty"`
	Title          string      `gorm:"not null" json:"title"`
	Summary        string      `json:"summary"`
	Status         PitchStatus `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
}

func (p *Pitch) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = util.NewID()
	}
	if p.Status == "" {
		p.Status = PitchPending
	}
	return nil
}
