// Package notification contains the endpoints of the in-app inbox
package notification

import (
	"net/http"
	"strconv"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

type listResponse struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int64                `json:"unreadCount"`
}

func List(c *gin.Context, d *internal.Deps) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	unreadOnly, _ := strconv.ParseBool(c.Query("unreadOnly"))

	ns, unread, err := d.Notifier.List(c.Request.Context(), c.GetString("userID"), unreadOnly, limit)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "", listResponse{Notifications: ns, UnreadCount: unread})
}
