package model

import (
	"errors"
	"time"

	"startupconnect/api/pkg/util"

	"gorm.io/gorm"
)

type DocumentType string

const (
	DocBusinessLicense    DocumentType = "BUSINESS_LICENSE"
	DocIDProof            DocumentType = "ID_PROOF"
	DocDomainVerification DocumentType = "DOMAIN_VERIFICATION"
)

var (
	ErrDocumentDomainRequired = errors.New("domain is required for domain verification")
	ErrDocumentFileRequired   = errors.New("file is required for document verification")
	ErrDocumentBothSet        = errors.New("a verification document can't carry both a file and a domain")
)

// VerificationDocument is one submission event. Reviewed* fields are set
// when an admin decides on the submission.
type VerificationDocument struct {
	ID           string       `gorm:"primaryKey;size:16" json:"id"`
	UserID       string       `gorm:"size:16;not null;index" json:"userId"`
	DocumentType DocumentType `gorm:"type:varchar(32);not null" json:"documentType"`
	FileURL      *string      `json:"fileUrl"`
	Domain       *string      `json:"domain"`
	ReviewedAt   *time.Time   `json:"reviewedAt"`
	ReviewedByID *string      `gorm:"size:16" json:"reviewedBy"`
	CreatedAt    time.Time    `gorm:"index" json:"createdAt"`
}

func (d *VerificationDocument) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = util.NewID()
	}
	return d.check()
}

func (d *VerificationDocument) check() error {
	hasFile := d.FileURL != nil && *d.FileURL != ""
	hasDomain := d.Domain != nil && *d.Domain != ""

	if hasFile && hasDomain {
		return ErrDocumentBothSet
	}

	if d.DocumentType == DocDomainVerification {
		if !hasDomain {
			return ErrDocumentDomainRequired
		}
		return nil
	}

	if !hasFile {
		return ErrDocumentFileRequired
	}

	return nil
}
