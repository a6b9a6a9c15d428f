package middleware

import (
	"slices"

	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

// RequireRoles lets the request through only for the given roles. It must run
// after the JWT middleware.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")

		r, ok := role.(model.Role)
		if !ok || !slices.Contains(roles, r) {
			respond.Error(c, apperr.Authorization("You don't have permission to access this resource"))
			return
		}

		c.Next()
	}
}
