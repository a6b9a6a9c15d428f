package auth

import (
	"net/http"
	"time"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/middleware"
	"startupconnect/api/pkg/respond"
	"startupconnect/api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func Login(c *gin.Context, d *internal.Deps) {
	var data loginBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	u, err := d.Accounts.Authenticate(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		respond.Error(c, err)
		return
	}

	token, err := security.SignAuthToken(u.ID, string(u.Role), time.Now())
	if err != nil {
		respond.Error(c, apperr.Server(err))
		return
	}

	maxAge := viper.GetInt("jwt.ttl_hours") * 60 * 60
	c.SetCookie(middleware.AuthCookie, token, maxAge, "/", "", viper.GetBool("host.ssl.enabled"), true)

	respond.OK(c, http.StatusOK, "Login successful", loginResponse{Token: token, User: u})
}
