// Package verification contains the endpoints users call to prove who they are
package verification

import (
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

type domainBody struct {
	Domain string `json:"domain"`
}

func SubmitDomain(c *gin.Context, d *internal.Deps) {
	var data domainBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	res, err := d.Verification.SubmitDomain(c.Request.Context(), c.GetString("userID"), data.Domain)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "Domain verification submitted. An admin will review it shortly", res)
}
