package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const turnstileURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

var turnstileClient = &http.Client{Timeout: 10 * time.Second}

// NewTurnstileMiddleware checks the TurnstileToken header against
// Cloudflare when turnstile.enabled is set
func NewTurnstileMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !viper.GetBool("turnstile.enabled") {
			c.Next()
			return
		}

		token := c.GetHeader("TurnstileToken")
		if token == "" {
			respond.Error(c, apperr.Validation("Missing or invalid turnstile token"))
			return
		}

		payload, _ := json.Marshal(gin.H{
			"secret":   viper.GetString("turnstile.secret_token"),
			"response": token,
			"remoteip": c.ClientIP(),
		})

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, turnstileURL, bytes.NewReader(payload))
		if err != nil {
			respond.Error(c, apperr.Server(err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := turnstileClient.Do(req)
		if err != nil {
			zap.L().Warn("Turnstile verification failed", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
			respond.Error(c, apperr.Authentication("Unauthorized"))
			return
		}
		defer resp.Body.Close()

		var res turnstileResponse
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil || !res.Success {
			respond.Error(c, apperr.Authentication("Unauthorized"))
			return
		}

		c.Next()
	}
}
