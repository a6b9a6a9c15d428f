package verification

import (
	"errors"
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/internal/service"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/respond"
	"startupconnect/api/pkg/validators"

	"github.com/gin-gonic/gin"
)

func UploadDocument(c *gin.Context, d *internal.Deps) {
	fh, err := c.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		respond.Error(c, apperr.Validation("Malformed multipart form"))
		return
	}

	up := service.DocumentUpload{DocumentType: c.PostForm("documentType")}

	// Role and status checks come before file checks, so a missing file is
	// passed through and reported by the service
	if fh != nil {
		status, f, mime, err := validators.DocumentValidator(fh)
		if err != nil {
			if status == http.StatusInternalServerError {
				respond.Error(c, apperr.Server(err))
				return
			}
			if status == http.StatusRequestEntityTooLarge {
				respond.Abort(c, status, "File too large")
				return
			}
			respond.Error(c, apperr.ValidationFields("Invalid document", map[string]string{"file": err.Error()}))
			return
		}
		defer f.Close()

		up.Body = f
		up.Size = fh.Size
		up.ContentType = mime.String()
		up.Extension = mime.Extension()
	}

	res, err := d.Verification.SubmitDocument(c.Request.Context(), c.GetString("userID"), up)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "Document uploaded. An admin will review it shortly", res)
}
