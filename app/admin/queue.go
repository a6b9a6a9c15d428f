// Package admin contains the endpoints of the verification review screens
package admin

import (
	"net/http"
	"strconv"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

func PendingQueue(c *gin.Context, d *internal.Deps) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	users, err := d.Verification.PendingQueue(c.Request.Context(), limit)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "", gin.H{"users": users, "count": len(users)})
}

type historyResponse struct {
	User      *model.User                  `json:"user"`
	Documents []model.VerificationDocument `json:"documents"`
}

// History returns a user with every document they ever submitted
func History(c *gin.Context, d *internal.Deps) {
	u, docs, err := d.Verification.History(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "", historyResponse{User: u, Documents: docs})
}
