// Package root contains endpoints that aren't tied to a resource
package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Heartbeat is used by load balancers to check if the server is alive
func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}
