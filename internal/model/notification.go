package model

import (
	"time"

	"startupconnect/api/pkg/util"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotifyNewCampaign          NotificationType = "NEW_CAMPAIGN"
	NotifyNewPitch             NotificationType = "NEW_PITCH"
	NotifyMentorshipRequest    NotificationType = "MENTORSHIP_REQUEST"
	NotifyMentorshipAccepted   NotificationType = "MENTORSHIP_ACCEPTED"
	NotifyMentorshipRejected   NotificationType = "MENTORSHIP_REJECTED"
	NotifyPartnershipRequest   NotificationType = "PARTNERSHIP_REQUEST"
	NotifyPartnershipAccepted  NotificationType = "PARTNERSHIP_ACCEPTED"
	NotifyEventInvitation      NotificationType = "EVENT_INVITATION"
	NotifySessionScheduled     NotificationType = "SESSION_SCHEDULED"
	NotifyVerificationApproved NotificationType = "VERIFICATION_APPROVED"
	NotifyVerificationRejected NotificationType = "VERIFICATION_REJECTED"
	NotifySystem               NotificationType = "SYSTEM"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotifyNewCampaign, NotifyNewPitch, NotifyMentorshipRequest, NotifyMentorshipAccepted,
		NotifyMentorshipRejected, NotifyPartnershipRequest, NotifyPartnershipAccepted,
		NotifyEventInvitation, NotifySessionScheduled, NotifyVerificationApproved,
		NotifyVerificationRejected, NotifySystem:
		return true
	}
	return false
}

type Notification struct {
	ID              string           `gorm:"primaryKey;size:16" json:"id"`
	RecipientID     string           `gorm:"size:16;not null;index:idx_recipient_read" json:"recipientId"`
	Type            NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Message         string           `gorm:"not null" json:"message"`
	RelatedLinkID   *string          `json:"relatedLinkId,omitempty"`
	RelatedLinkType *string          `json:"relatedLinkType,omitempty"`
	IsRead          bool             `gorm:"not null;default:false;index:idx_recipient_read" json:"isRead"`
	CreatedAt       time.Time        `gorm:"index" json:"createdAt"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = util.NewID()
	}
	return nil
}
