package notification

import (
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

func MarkRead(c *gin.Context, d *internal.Deps) {
	n, err := d.Notifier.MarkRead(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "Notification marked as read", n)
}

func MarkAllRead(c *gin.Context, d *internal.Deps) {
	updated, err := d.Notifier.MarkAllRead(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated})
}
