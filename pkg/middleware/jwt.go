package middleware

import (
	"errors"
	"strings"

	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/respond"
	"startupconnect/api/pkg/security"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthCookie is set on login next to the token returned in the body
const AuthCookie = "auth_token"

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	token, err := c.Cookie(AuthCookie)
	if err != nil {
		return ""
	}
	return token
}

// NewJWTMiddleware authenticates the request and loads the caller. The user
// row is read on every request so deactivation takes effect immediately.
func NewJWTMiddleware(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearer(c)
		if tokenStr == "" {
			respond.Error(c, apperr.Authentication("Authorization token missing"))
			return
		}

		claims, err := security.ParseAuthToken(tokenStr)
		if err != nil {
			respond.Error(c, apperr.Authentication("Authorization token invalid or expired. Please log in again"))
			return
		}

		var user model.User
		err = d.WithContext(c.Request.Context()).Where("id = ?", claims.UserID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.Error(c, apperr.Authentication("User no longer exists"))
			return
		}
		if err != nil {
			respond.Error(c, apperr.Server(err))
			return
		}

		if !user.IsActive {
			respond.Error(c, apperr.Authorization("This account has been deactivated"))
			return
		}

		c.Set("userID", user.ID)
		c.Set("role", user.Role)
		c.Set("user", &user)
		c.Next()
	}
}

// CurrentUser returns the user loaded by the JWT middleware
func CurrentUser(c *gin.Context) *model.User {
	u, _ := c.MustGet("user").(*model.User)
	return u
}
