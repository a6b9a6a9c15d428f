package auth

import (
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/middleware"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResendVerification mails a fresh token. Every earlier token stops working.
func ResendVerification(c *gin.Context, d *internal.Deps) {
	userID := c.GetString("userID")

	if d.ResendCooldown != nil {
		if _, err := d.ResendCooldown.Get(userID); err == nil {
			respond.Abort(c, http.StatusTooManyRequests, "Please wait before requesting another verification email")
			return
		}
	}

	u, tok, err := d.Accounts.IssueEmailToken(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	if err := d.Mailer.SendVerification(tok, u.Email); err != nil {
		zap.L().Error("Failed to send verification mail", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		respond.Error(c, apperr.Server(err))
		return
	}

	if d.ResendCooldown != nil {
		d.ResendCooldown.Set(userID, struct{}{})
	}

	respond.OK(c, http.StatusOK, "Verification email sent", gin.H{"email": middleware.CurrentUser(c).Email})
}
