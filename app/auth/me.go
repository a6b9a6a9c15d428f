package auth

import (
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/middleware"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

func Me(c *gin.Context) {
	respond.OK(c, http.StatusOK, "", middleware.CurrentUser(c))
}

func UpdateProfile(c *gin.Context, d *internal.Deps) {
	var p model.Profile
	if err := respond.Bind(c, &p); err != nil {
		respond.Error(c, err)
		return
	}

	u, err := d.Accounts.UpdateProfile(c.Request.Context(), c.GetString("userID"), p)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "Profile updated", u)
}
