package security

import (
	"errors"
	"time"

	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/util"
)

const (
	tokenSize = 32

	// EmailTokenTTL is how long a mailed verification link stays valid
	EmailTokenTTL = 24 * time.Hour
)

func MakeEmailToken(userID string, issuedAt time.Time) (*model.EmailVerificationToken, error) {
	if userID == "" {
		return nil, errors.New("no user ID provided")
	}

	token, err := util.GenerateToken(tokenSize)
	if err != nil {
		return nil, err
	}

	return &model.EmailVerificationToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: issuedAt.Add(EmailTokenTTL),
		CreatedAt: issuedAt,
	}, nil
}
