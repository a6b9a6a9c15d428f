package auth

import (
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

type verifyEmailBody struct {
	Token string `json:"token" binding:"required"`
}

func VerifyEmail(c *gin.Context, d *internal.Deps) {
	var data verifyEmailBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	u, err := d.Accounts.ConsumeEmailToken(c.Request.Context(), data.Token)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "Email verified successfully", u)
}
