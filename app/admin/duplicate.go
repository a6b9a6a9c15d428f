package admin

import (
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/internal/service"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

type duplicateBody struct {
	IsDuplicate    *bool  `json:"isDuplicate" binding:"required"`
	DuplicateOf    string `json:"duplicateOf"`
	DuplicateEmail string `json:"duplicateEmail"`
	DuplicateNotes string `json:"duplicateNotes"`
}

func SetDuplicate(c *gin.Context, d *internal.Deps) {
	var data duplicateBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	u, err := d.Verification.SetDuplicate(c.Request.Context(), c.GetString("userID"), c.Param("userId"), service.DuplicateInput{
		IsDuplicate:    *data.IsDuplicate,
		DuplicateOf:    data.DuplicateOf,
		DuplicateEmail: data.DuplicateEmail,
		Notes:          data.DuplicateNotes,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "Duplicate flag updated", u)
}
