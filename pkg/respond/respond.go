// Package respond writes the JSON envelope shared by every endpoint
package respond

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"startupconnect/api/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type envelope struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	Data      any               `json:"data,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	RequestID string            `json:"requestID,omitempty"`
}

var registerTagsOnce sync.Once

// OK writes a successful response
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: c.GetString("requestID"),
	})
}

// Error aborts the request with the envelope matching err. Server errors are
// logged and only carry their detail outside of production.
func Error(c *gin.Context, err error) {
	e := apperr.From(err)
	requestID := c.GetString("requestID")

	body := envelope{
		Success:   false,
		Message:   e.Message,
		Errors:    e.Fields,
		RequestID: requestID,
	}

	if e.Kind == apperr.KindServer {
		zap.L().Error("Request failed", zap.Error(e.Err), zap.String("requestID", requestID), zap.String("path", c.FullPath()))

		if viper.GetString("app.env") != "production" && e.Err != nil {
			body.Detail = e.Err.Error()
		}
	}

	c.AbortWithStatusJSON(e.Status(), body)
}

// Abort writes a failed envelope with an explicit status, for limits
// enforced outside of the services
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{
		Success:   false,
		Message:   message,
		RequestID: c.GetString("requestID"),
	})
}

// Bind decodes the request body into obj and turns binding failures into
// itemised validation errors keyed by JSON field name.
func Bind(c *gin.Context, obj any) error {
	registerTagsOnce.Do(registerJSONTagNames)

	err := c.ShouldBind(obj)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = describe(fe)
		}
		return apperr.ValidationFields("Invalid request body", fields)
	}

	if errors.Is(err, io.EOF) {
		return apperr.Validation("Request body is empty")
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Validation("Request body size exceeds limit")
	}

	return apperr.Validation("Malformed or invalid request body")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}

func registerJSONTagNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
}
