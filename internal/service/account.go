package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/security"
	"startupconnect/api/pkg/validators"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Accounts handles registration, sign in and the email verification channel
type Accounts struct {
	db    *gorm.DB
	argon *security.Argon2id
	now   func() time.Time
}

func NewAccounts(db *gorm.DB, argon *security.Argon2id, now func() time.Time) *Accounts {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Accounts{db: db, argon: argon, now: now}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     model.Role
}

// Register creates an UNVERIFIED user together with its first email token
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*model.User, *model.EmailVerificationToken, error) {
	email := model.NormalizeEmail(in.Email)
	fields := map[string]string{}

	if err := validators.EmailValidator(email); err != nil {
		fields["email"] = err.Error()
	}
	if err := validators.PasswordValidator(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}
	if !in.Role.Valid() || in.Role == model.RoleAdmin {
		fields["role"] = "must be one of: ENTREPRENEUR INVESTOR MENTOR"
	}
	if len(fields) > 0 {
		return nil, nil, apperr.ValidationFields("Invalid registration details", fields)
	}

	var existing int64
	err := a.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Count(&existing).
		Error
	if err != nil {
		return nil, nil, apperr.Server(err)
	}

	if existing > 0 {
		return nil, nil, apperr.Conflict("This email is already registered. Please login or use a different email")
	}

	hash, err := a.argon.Hash(in.Password)
	if err != nil {
		return nil, nil, apperr.Server(err)
	}

	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         in.Role,
		IsActive:     true,
	}

	var tok *model.EmailVerificationToken

	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}

		var err error
		tok, err = issueEmailToken(tx, u.ID, a.now())
		return err
	})
	if err != nil {
		return nil, nil, apperr.Server(err)
	}

	return u, tok, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords fail
// the same way.
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	var u model.User

	err := a.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Authentication("Invalid credentials")
	}
	if err != nil {
		return nil, apperr.Server(err)
	}

	ok, err := a.argon.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, apperr.Server(err)
	}
	if !ok {
		return nil, apperr.Authentication("Invalid credentials")
	}

	if !u.IsActive {
		return nil, apperr.Authorization("This account has been deactivated")
	}

	return &u, nil
}

// UpdateProfile replaces the profile of a user. The profile must be the
// variant matching the user's role.
func (a *Accounts) UpdateProfile(ctx context.Context, userID string, p model.Profile) (*model.User, error) {
	tx := a.db.WithContext(ctx)

	u, err := findUser(tx, userID)
	if err != nil {
		return nil, err
	}

	if p.Role == "" {
		p.Role = u.Role
	}
	if p.Role != u.Role {
		return nil, apperr.ValidationFields("Invalid profile", map[string]string{"role": "must match the account role"})
	}
	if err := p.Validate(); err != nil {
		return nil, apperr.Validation("Invalid profile: " + err.Error())
	}

	if err := tx.Model(&model.User{}).Where("id = ?", u.ID).Update("profile", p).Error; err != nil {
		return nil, apperr.Server(err)
	}

	return findUser(tx, u.ID)
}

// IssueEmailToken invalidates every unused token of the user and creates a
// fresh one.
func (a *Accounts) IssueEmailToken(ctx context.Context, userID string) (*model.User, *model.EmailVerificationToken, error) {
	var u *model.User
	var tok *model.EmailVerificationToken

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		u, err = findUser(tx, userID)
		if err != nil {
			return err
		}

		if u.VerificationStatus == model.StatusVerified {
			return apperr.Conflict("Your account is already verified")
		}

		tok, err = issueEmailToken(tx, u.ID, a.now())
		if err != nil {
			return apperr.Server(err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return u, tok, nil
}

func issueEmailToken(tx *gorm.DB, userID string, now time.Time) (*model.EmailVerificationToken, error) {
	err := tx.Model(&model.EmailVerificationToken{}).
		Where("user_id = ? AND used = ?", userID, false).
		Updates(map[string]any{
			"used":    true,
			"used_at": now,
		}).
		Error
	if err != nil {
		return nil, err
	}

	tok, err := security.MakeEmailToken(userID, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Create(tok).Error; err != nil {
		return nil, err
	}

	return tok, nil
}

// ConsumeEmailToken verifies the owner of token through the EMAIL channel.
// This overrides any DOMAIN or DOCUMENT state the user was in.
func (a *Accounts) ConsumeEmailToken(ctx context.Context, token string) (*model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.ValidationFields("Verification token is required", map[string]string{"token": "is required"})
	}

	now := a.now()
	var verified *model.User

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.EmailVerificationToken

		err := tx.Where("token = ?", token).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Verification token not found")
		}
		if err != nil {
			return apperr.Server(err)
		}

		if t.Used {
			return apperr.Validation("Verification token is invalid or expired")
		}

		if now.After(t.ExpiresAt) {
			return apperr.Validation("Verification token has expired")
		}

		res := tx.Model(&model.EmailVerificationToken{}).
			Where("id = ? AND used = ?", t.ID, false).
			Updates(map[string]any{
				"used":    true,
				"used_at": now,
			})
		if res.Error != nil {
			return apperr.Server(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Validation("Verification token is invalid or expired")
		}

		err = tx.Model(&model.User{}).
			Where("id = ?", t.UserID).
			Updates(map[string]any{
				"verification_status":           model.StatusVerified,
				"verification_method":           model.MethodEmail,
				"verification_rejection_reason": nil,
				"pending_document_id":           nil,
			}).
			Error
		if err != nil {
			return apperr.Server(err)
		}

		verified, err = findUser(tx, t.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Email verified", zap.String("user_id", verified.ID))

	return verified, nil
}
