package admin

import (
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

type setVerificationBody struct {
	VerificationStatus string `json:"verificationStatus" binding:"required"`
	RejectionReason    string `json:"rejectionReason"`
}

// SetVerification overrides a user's status outside of the review queue
func SetVerification(c *gin.Context, d *internal.Deps) {
	var data setVerificationBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	u, err := d.Verification.SetVerification(
		c.Request.Context(),
		c.GetString("userID"),
		c.Param("userId"),
		model.VerificationStatus(data.VerificationStatus),
		data.RejectionReason,
	)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "Verification status updated", u)
}
