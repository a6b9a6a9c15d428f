package admin

import (
	"io"
	"net/http"
	"path"

	"startupconnect/api/internal"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/respond"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// DocumentFile serves the stored file of a verification document. Files are
// bounded by upload.max_size so they are read whole.
func DocumentFile(c *gin.Context, d *internal.Deps) {
	doc, err := d.Verification.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	rc, err := d.Verification.OpenDocument(c.Request.Context(), doc)
	if err != nil {
		respond.Error(c, err)
		return
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		respond.Error(c, apperr.Server(err))
		return
	}

	c.Header("Content-Disposition", "inline; filename=\""+path.Base(*doc.FileURL)+"\"")
	c.Data(http.StatusOK, mimetype.Detect(b).String(), b)
}
