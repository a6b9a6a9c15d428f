package auth

import (
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/internal/service"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=ENTREPRENEUR INVESTOR MENTOR"`
}

func Register(c *gin.Context, d *internal.Deps) {
	var data registerBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	u, tok, err := d.Accounts.Register(c.Request.Context(), service.RegisterInput{
		Email:    data.Email,
		Password: data.Password,
		Name:     data.Name,
		Role:     model.Role(data.Role),
	})
	if err != nil {
		respond.Error(c, err)
		return
	}

	// The account exists either way, the user can ask for another mail
	if err := d.Mailer.SendVerification(tok, u.Email); err != nil {
		zap.L().Error("Failed to send verification mail", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	}

	respond.OK(c, http.StatusCreated, "Registration successful. Please check your email to verify your account", u)
}
