package admin

import (
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

type statusBody struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// SetStatus activates or deactivates an account
func SetStatus(c *gin.Context, d *internal.Deps) {
	var data statusBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	u, err := d.Verification.SetActive(c.Request.Context(), c.GetString("userID"), c.Param("userId"), *data.IsActive)
	if err != nil {
		respond.Error(c, err)
		return
	}

	msg := "Account deactivated"
	if u.IsActive {
		msg = "Account activated"
	}

	respond.OK(c, http.StatusOK, msg, u)
}
