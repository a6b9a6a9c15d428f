package service

import (
	"time"

	"startupconnect/api/internal/model"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CleanupTokens removes email verification tokens that can no longer be
// consumed
func CleanupTokens(db *gorm.DB, now time.Time) (int64, error) {
	res := db.
		Where("expires_at < ?", now).
		Delete(&model.EmailVerificationToken{})

	return res.RowsAffected, res.Error
}

// ScheduleTokenCleanup runs CleanupTokens on the given cron spec. The
// returned scheduler is already started.
func ScheduleTokenCleanup(spec string, db *gorm.DB) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		n, err := CleanupTokens(db, time.Now().UTC())
		if err != nil {
			zap.L().Error("Failed to cleanup expired tokens", zap.Error(err))
			return
		}

		if n > 0 {
			zap.L().Debug("Cleaned up expired tokens", zap.Int64("count", n))
		}
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Token cleanup attached", zap.String("schedule", spec))

	c.Start()
	return c, nil
}
