package admin

import (
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

type decideBody struct {
	Decision        string `json:"decision" binding:"required"`
	RejectionReason string `json:"rejectionReason"`
}

// Decide accepts or rejects a user waiting in the review queue
func Decide(c *gin.Context, d *internal.Deps) {
	var data decideBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	u, err := d.Verification.Decide(
		c.Request.Context(),
		c.GetString("userID"),
		c.Param("userId"),
		model.VerificationStatus(data.Decision),
		data.RejectionReason,
	)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "Verification "+string(u.VerificationStatus), u)
}
