// Package service contains the business logic shared by the HTTP handlers
// and the background jobs of the application
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/util"
	"startupconnect/api/pkg/validators"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Verification owns the verification status of users and the documents
// they submit as proof.
type Verification struct {
	db         *gorm.DB
	storage    Storage
	dispatcher *Dispatcher
	now        func() time.Time
}

type VerificationOption func(*Verification)

// WithClock replaces time.Now, used by tests
func WithClock(now func() time.Time) VerificationOption {
	return func(v *Verification) {
		v.now = now
	}
}

// WithDispatcher enables notifications about admin decisions
func WithDispatcher(d *Dispatcher) VerificationOption {
	return func(v *Verification) {
		v.dispatcher = d
	}
}

func NewVerification(db *gorm.DB, storage Storage, opts ...VerificationOption) *Verification {
	v := &Verification{
		db:      db,
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, o := range opts {
		o(v)
	}

	return v
}

type SubmissionResult struct {
	VerificationStatus model.VerificationStatus `json:"verificationStatus"`
	VerificationMethod model.VerificationMethod `json:"verificationMethod"`
	VerificationID     string                   `json:"verificationId"`
	FileURL            string                   `json:"fileUrl,omitempty"`
}

// DocumentUpload is a file already checked by the upload layer
type DocumentUpload struct {
	Body         io.Reader
	Size         int64
	ContentType  string
	Extension    string
	DocumentType string
}

func findUser(tx *gorm.DB, id string) (*model.User, error) {
	var u model.User

	err := tx.Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Server(err)
	}

	return &u, nil
}

func checkSubmitter(u *model.User) error {
	if !u.Role.CanSubmitVerification() {
		return apperr.Authorization("Only entrepreneurs and investors can submit verification")
	}

	if u.VerificationStatus == model.StatusVerified {
		return apperr.Conflict("Your account is already verified")
	}

	return nil
}

// SubmitDomain records a domain claim and moves the user to PENDING
func (v *Verification) SubmitDomain(ctx context.Context, userID, rawDomain string) (*SubmissionResult, error) {
	u, err := findUser(v.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	if err := checkSubmitter(u); err != nil {
		return nil, err
	}

	domain := validators.NormalizeDomain(rawDomain)
	if err := validators.DomainValidator(domain); err != nil {
		msg := "Invalid domain format"
		if errors.Is(err, validators.ErrDomainEmpty) {
			msg = "Domain is required"
		}
		return nil, apperr.ValidationFields(msg, map[string]string{"domain": err.Error()})
	}

	doc := &model.VerificationDocument{
		UserID:       u.ID,
		DocumentType: model.DocDomainVerification,
		Domain:       &domain,
	}

	if err := v.submit(ctx, u, doc, model.MethodDomain); err != nil {
		return nil, err
	}

	zap.L().Info("Domain verification submitted", zap.String("user_id", u.ID), zap.String("domain", domain))

	return &SubmissionResult{
		VerificationStatus: u.VerificationStatus,
		VerificationMethod: u.VerificationMethod,
		VerificationID:     doc.ID,
	}, nil
}

// SubmitDocument stores the uploaded file and moves the user to PENDING.
// The stored file is removed again if the database work fails.
func (v *Verification) SubmitDocument(ctx context.Context, userID string, up DocumentUpload) (*SubmissionResult, error) {
	u, err := findUser(v.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	if err := checkSubmitter(u); err != nil {
		return nil, err
	}

	if up.Body == nil {
		return nil, apperr.ValidationFields("No file provided", map[string]string{"file": "is required"})
	}

	docType := model.DocumentType(strings.ToUpper(strings.TrimSpace(up.DocumentType)))
	if docType == "" {
		docType = model.DocBusinessLicense
	}
	if docType != model.DocBusinessLicense && docType != model.DocIDProof {
		return nil, apperr.ValidationFields("Invalid document type", map[string]string{
			"documentType": "must be one of: BUSINESS_LICENSE ID_PROOF",
		})
	}

	key := path.Join("verification", u.ID, util.NewID()+up.Extension)
	if err := v.storage.Save(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		return nil, apperr.Server(fmt.Errorf("failed to store verification document, %w", err))
	}

	doc := &model.VerificationDocument{
		UserID:       u.ID,
		DocumentType: docType,
		FileURL:      &key,
	}

	if err := v.submit(ctx, u, doc, model.MethodDocument); err != nil {
		if delErr := v.storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			zap.L().Error("Failed to remove orphaned verification file", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	zap.L().Info("Document verification submitted", zap.String("user_id", u.ID), zap.String("document_type", string(docType)))

	return &SubmissionResult{
		VerificationStatus: u.VerificationStatus,
		VerificationMethod: u.VerificationMethod,
		VerificationID:     doc.ID,
		FileURL:            key,
	}, nil
}

// submit creates the document and points the user at it in one transaction.
// Earlier unreviewed documents are kept for the audit trail.
func (v *Verification) submit(ctx context.Context, u *model.User, doc *model.VerificationDocument, method model.VerificationMethod) error {
	err := v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}

		return tx.Model(&model.User{}).
			Where("id = ?", u.ID).
			Updates(map[string]any{
				"verification_status": model.StatusPending,
				"verification_method": method,
				"pending_document_id": doc.ID,
			}).
			Error
	})
	if err != nil {
		return apperr.Server(err)
	}

	u.VerificationStatus = model.StatusPending
	u.VerificationMethod = method
	u.PendingDocumentID = &doc.ID

	return nil
}

// Decide is the review queue path. Only PENDING users can be decided on and
// a rejection resets the method so the user can pick a new one.
func (v *Verification) Decide(ctx context.Context, adminID, userID string, decision model.VerificationStatus, reason string) (*model.User, error) {
	if decision != model.StatusVerified && decision != model.StatusRejected {
		return nil, apperr.ValidationFields("Invalid decision", map[string]string{
			"decision": "must be one of: VERIFIED REJECTED",
		})
	}

	reason = strings.TrimSpace(reason)
	var decided *model.User

	err := v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := findUser(tx, userID)
		if err != nil {
			return err
		}

		if u.VerificationStatus != model.StatusPending {
			return apperr.Conflict(fmt.Sprintf("User verification status is %s, only PENDING users can be decided on", u.VerificationStatus))
		}

		if decision == model.StatusRejected && reason == "" {
			return apperr.ValidationFields("Rejection reason is required", map[string]string{
				"rejectionReason": "is required when rejecting",
			})
		}

		updates := map[string]any{
			"verification_status": decision,
			"pending_document_id": nil,
		}
		if decision == model.StatusRejected {
			updates["verification_rejection_reason"] = reason
			updates["verification_method"] = model.MethodNone
		} else {
			updates["verification_rejection_reason"] = nil
		}

		// A concurrent decision may have landed since the read above
		res := tx.Model(&model.User{}).
			Where("id = ? AND verification_status = ?", u.ID, model.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return apperr.Server(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("User verification status changed during review")
		}

		doc, err := documentUnderReview(tx, u)
		if err != nil {
			return err
		}

		if doc != nil {
			now := v.now()
			err := tx.Model(doc).Updates(map[string]any{
				"reviewed_at":    now,
				"reviewed_by_id": adminID,
			}).Error
			if err != nil {
				return apperr.Server(err)
			}
		}

		decided, err = findUser(tx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Verification decided",
		zap.String("admin_id", adminID),
		zap.String("user_id", userID),
		zap.String("decision", string(decision)))

	v.notifyDecision(decided)

	return decided, nil
}

// documentUnderReview prefers the document the user points at and falls back
// to the newest one for rows written before the pointer existed. Users that
// never submitted anything return nil.
func documentUnderReview(tx *gorm.DB, u *model.User) (*model.VerificationDocument, error) {
	var doc model.VerificationDocument

	if u.PendingDocumentID != nil {
		err := tx.Where("id = ? AND user_id = ?", *u.PendingDocumentID, u.ID).First(&doc).Error
		if err == nil {
			return &doc, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Server(err)
		}
	}

	err := tx.Where("user_id = ?", u.ID).Order("created_at desc").First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Server(err)
	}

	return &doc, nil
}

func (v *Verification) notifyDecision(u *model.User) {
	if v.dispatcher == nil || u == nil {
		return
	}

	spec := NotificationSpec{
		RecipientID:     u.ID,
		Type:            model.NotifyVerificationApproved,
		Message:         "Your account has been verified",
		RelatedLinkID:   u.ID,
		RelatedLinkType: "user",
	}

	if u.VerificationStatus == model.StatusRejected {
		spec.Type = model.NotifyVerificationRejected
		spec.Message = "Your verification request was rejected"
		if u.VerificationRejectionReason != nil {
			spec.Message += ": " + *u.VerificationRejectionReason
		}
	}

	v.dispatcher.Dispatch(spec)
}

// SetVerification is the management path. It works from any status but never
// touches the verification method.
func (v *Verification) SetVerification(ctx context.Context, adminID, userID string, status model.VerificationStatus, reason string) (*model.User, error) {
	if adminID == userID {
		return nil, apperr.Validation("You cannot change your own verification status")
	}

	switch status {
	case model.StatusVerified, model.StatusRejected, model.StatusUnverified:
	default:
		return nil, apperr.ValidationFields("Invalid verification status", map[string]string{
			"verificationStatus": "must be one of: VERIFIED REJECTED UNVERIFIED",
		})
	}

	tx := v.db.WithContext(ctx)

	u, err := findUser(tx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"verification_status": status}

	reason = strings.TrimSpace(reason)
	if status == model.StatusRejected && reason != "" {
		updates["verification_rejection_reason"] = reason
	}
	if status == model.StatusVerified {
		updates["verification_rejection_reason"] = nil
	}

	if err := tx.Model(&model.User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
		return nil, apperr.Server(err)
	}

	zap.L().Info("Verification status set by admin",
		zap.String("admin_id", adminID),
		zap.String("user_id", userID),
		zap.String("from", string(u.VerificationStatus)),
		zap.String("to", string(status)))

	return findUser(tx, u.ID)
}

type DuplicateInput struct {
	IsDuplicate    bool
	DuplicateOf    string
	DuplicateEmail string
	Notes          string
}

// SetDuplicate flags userID as a duplicate of another account, resolved by ID
// or by email, or clears the flag.
func (v *Verification) SetDuplicate(ctx context.Context, adminID, userID string, in DuplicateInput) (*model.User, error) {
	tx := v.db.WithContext(ctx)

	u, err := findUser(tx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"is_duplicate":    false,
		"duplicate_of_id": nil,
		"duplicate_notes": nil,
	}

	if in.IsDuplicate {
		target, err := resolveDuplicateTarget(tx, in)
		if err != nil {
			return nil, err
		}

		if target.ID == u.ID {
			return nil, apperr.Validation("A user cannot be marked as a duplicate of itself")
		}

		updates["is_duplicate"] = true
		updates["duplicate_of_id"] = target.ID
		if notes := strings.TrimSpace(in.Notes); notes != "" {
			updates["duplicate_notes"] = notes
		}
	}

	if err := tx.Model(&model.User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
		return nil, apperr.Server(err)
	}

	zap.L().Info("Duplicate flag updated",
		zap.String("admin_id", adminID),
		zap.String("user_id", userID),
		zap.Bool("is_duplicate", in.IsDuplicate))

	return findUser(tx, u.ID)
}

func resolveDuplicateTarget(tx *gorm.DB, in DuplicateInput) (*model.User, error) {
	var target model.User
	var err error

	switch {
	case strings.TrimSpace(in.DuplicateOf) != "":
		err = tx.Where("id = ?", strings.TrimSpace(in.DuplicateOf)).First(&target).Error
	case strings.TrimSpace(in.DuplicateEmail) != "":
		err = tx.Where("email = ? AND is_active = ?", model.NormalizeEmail(in.DuplicateEmail), true).First(&target).Error
	default:
		return nil, apperr.ValidationFields("Duplicate user reference is required", map[string]string{
			"duplicateOf": "duplicateOf or duplicateEmail is required",
		})
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Validation("Duplicate user reference not found")
	}
	if err != nil {
		return nil, apperr.Server(err)
	}

	return &target, nil
}

// SetActive toggles whether the account can sign in
func (v *Verification) SetActive(ctx context.Context, adminID, userID string, active bool) (*model.User, error) {
	if adminID == userID {
		return nil, apperr.Validation("You cannot change your own account status")
	}

	tx := v.db.WithContext(ctx)

	u, err := findUser(tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Model(&model.User{}).Where("id = ?", u.ID).Update("is_active", active).Error; err != nil {
		return nil, apperr.Server(err)
	}

	zap.L().Info("Account status updated", zap.String("admin_id", adminID), zap.String("user_id", userID), zap.Bool("active", active))

	return findUser(tx, u.ID)
}

// Status returns the user with the document currently under review, or the
// newest one if nothing is pending.
func (v *Verification) Status(ctx context.Context, userID string) (*model.User, *model.VerificationDocument, error) {
	tx := v.db.WithContext(ctx)

	u, err := findUser(tx, userID)
	if err != nil {
		return nil, nil, err
	}

	doc, err := documentUnderReview(tx, u)
	if err != nil {
		return nil, nil, err
	}

	return u, doc, nil
}

// PendingQueue lists PENDING users, oldest first, with their document
func (v *Verification) PendingQueue(ctx context.Context, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	users := []model.User{}
	err := v.db.WithContext(ctx).
		Preload("PendingDocument").
		Where("verification_status = ?", model.StatusPending).
		Order("updated_at asc").
		Limit(limit).
		Find(&users).
		Error
	if err != nil {
		return nil, apperr.Server(err)
	}

	return users, nil
}

// History returns every document a user submitted, newest first
func (v *Verification) History(ctx context.Context, userID string) (*model.User, []model.VerificationDocument, error) {
	tx := v.db.WithContext(ctx)

	u, err := findUser(tx, userID)
	if err != nil {
		return nil, nil, err
	}

	docs := []model.VerificationDocument{}
	if err := tx.Where("user_id = ?", u.ID).Order("created_at desc").Find(&docs).Error; err != nil {
		return nil, nil, apperr.Server(err)
	}

	return u, docs, nil
}

// Document looks up a single document, used to serve stored files to admins
func (v *Verification) Document(ctx context.Context, id string) (*model.VerificationDocument, error) {
	var doc model.VerificationDocument

	err := v.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Verification document not found")
	}
	if err != nil {
		return nil, apperr.Server(err)
	}

	return &doc, nil
}

// OpenDocument opens the stored file behind a document
func (v *Verification) OpenDocument(ctx context.Context, doc *model.VerificationDocument) (io.ReadCloser, error) {
	if doc.FileURL == nil {
		return nil, apperr.NotFound("Verification document has no file")
	}

	rc, err := v.storage.Open(ctx, *doc.FileURL)
	if err != nil {
		return nil, apperr.Server(err)
	}

	return rc, nil
}
