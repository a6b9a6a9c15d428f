package middleware

import (
	"net/http"

	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter rejects requests whose body is larger than maxBytes.
// Bodies without a declared length are cut off while being read.
func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast reject for legit requests
		if c.Request.ContentLength > maxBytes {
			respond.Abort(c, http.StatusRequestEntityTooLarge, "Request body size exceeds limit")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
