// Package model defines database models
package model

import (
	"strings"
	"time"

	"startupconnect/api/pkg/util"

	"gorm.io/gorm"
)

type Role string

const (
	RoleEntrepreneur Role = "ENTREPRENEUR"
	RoleInvestor     Role = "INVESTOR"
	RoleMentor       Role = "MENTOR"
	RoleAdmin        Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEntrepreneur, RoleInvestor, RoleMentor, RoleAdmin:
		return true
	}
	return false
}

// CanSubmitVerification reports whether the role may hold a DOMAIN or
// DOCUMENT verification method.
func (r Role) CanSubmitVerification() bool {
	return r == RoleEntrepreneur || r == RoleInvestor
}

type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "UNVERIFIED"
	StatusPending    VerificationStatus = "PENDING"
	StatusVerified   VerificationStatus = "VERIFIED"
	StatusRejected   VerificationStatus = "REJECTED"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case StatusUnverified, StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

type VerificationMethod string

const (
	MethodNone     VerificationMethod = "NONE"
	MethodDomain   VerificationMethod = "DOMAIN"
	MethodDocument VerificationMethod = "DOCUMENT"
	MethodEmail    VerificationMethod = "EMAIL"
)

type User struct {
	ID           string `gorm:"primaryKey;size:16" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `gorm:"not null" json:"name"`
	Role         Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	VerificationStatus          VerificationStatus `gorm:"type:varchar(20);not null;default:'UNVERIFIED';index" json:"verificationStatus"`
	VerificationMethod          VerificationMethod `gorm:"type:varchar(20);not null;default:'NONE'" json:"verificationMethod"`
	VerificationRejectionReason *string            `json:"verificationRejectionReason"`

	// Document currently waiting for an admin decision. Set on every
	// submission, cleared once the queue decides.
	PendingDocumentID *string               `gorm:"size:16" json:"pendingDocumentId,omitempty"`
	PendingDocument   *VerificationDocument `gorm:"foreignKey:PendingDocumentID" json:"pendingDocument,omitempty"`

	IsActive       bool    `gorm:"not null;default:true" json:"isActive"`
	IsDuplicate    bool    `gorm:"not null;default:false" json:"isDuplicate"`
	DuplicateOfID  *string `gorm:"size:16" json:"duplicateOf"`
	DuplicateNotes *string `json:"duplicateNotes"`

	Profile Profile `gorm:"type:text" json:"profile"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = util.NewID()
	}
	u.Email = NormalizeEmail(u.Email)

	if u.VerificationStatus == "" {
		u.VerificationStatus = StatusUnverified
	}
	if u.VerificationMethod == "" {
		u.VerificationMethod = MethodNone
	}
	if u.Profile.Role == "" {
		u.Profile = NewProfile(u.Role)
	}

	return u.Profile.Validate()
}

// NormalizeEmail is applied before every write and lookup by email.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
