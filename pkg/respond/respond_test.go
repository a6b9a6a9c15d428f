package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"startupconnect/api/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodedEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
	Detail  string            `json:"detail"`
}

func run(t *testing.T, h gin.HandlerFunc, body string) (*httptest.ResponseRecorder, decodedEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h(c)

	var env decodedEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestErrorMapsKinds(t *testing.T) {
	w, env := run(t, func(c *gin.Context) { Error(c, apperr.Authorization("not yours")) }, "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "not yours", env.Message)
}

func TestErrorHidesDetailInProduction(t *testing.T) {
	t.Cleanup(func() { viper.Set("app.env", "") })

	viper.Set("app.env", "production")
	w, env := run(t, func(c *gin.Context) { Error(c, errors.New("connection refused")) }, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, env.Detail)

	viper.Set("app.env", "development")
	_, env = run(t, func(c *gin.Context) { Error(c, errors.New("connection refused")) }, "")
	assert.Equal(t, "connection refused", env.Detail)
}

func TestBindItemisesFields(t *testing.T) {
	type body struct {
		Decision string `json:"decision" binding:"required,oneof=VERIFIED REJECTED"`
	}

	w, env := run(t, func(c *gin.Context) {
		var b body
		if err := Bind(c, &b); err != nil {
			Error(c, err)
			return
		}
		OK(c, http.StatusOK, "", b)
	}, `{"decision":"MAYBE"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be one of: VERIFIED REJECTED", env.Errors["decision"])
}
