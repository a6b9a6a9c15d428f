package verification

import (
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

type statusResponse struct {
	VerificationStatus          model.VerificationStatus    `json:"verificationStatus"`
	VerificationMethod          model.VerificationMethod    `json:"verificationMethod"`
	VerificationRejectionReason *string                     `json:"verificationRejectionReason"`
	Document                    *model.VerificationDocument `json:"document"`
}

func Status(c *gin.Context, d *internal.Deps) {
	u, doc, err := d.Verification.Status(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "", statusResponse{
		VerificationStatus:          u.VerificationStatus,
		VerificationMethod:          u.VerificationMethod,
		VerificationRejectionReason: u.VerificationRejectionReason,
		Document:                    doc,
	})
}
