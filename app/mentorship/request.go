// Package mentorship contains the endpoints pairing entrepreneurs with mentors
package mentorship

import (
	"errors"
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/internal/service"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/middleware"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type requestBody struct {
	MentorID string `json:"mentorId" binding:"required"`
	Message  string `json:"message" binding:"max=2000"`
}

// Request asks a mentor for mentorship. A pair can only have one request
// waiting for an answer.
func Request(c *gin.Context, d *internal.Deps) {
	var data requestBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	me := middleware.CurrentUser(c)
	tx := d.DB.WithContext(c.Request.Context())

	var mentor model.User
	err := tx.Where("id = ? AND role = ? AND is_active = ?", data.MentorID, model.RoleMentor, true).First(&mentor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respond.Error(c, apperr.NotFound("Mentor not found"))
		return
	}
	if err != nil {
		respond.Error(c, apperr.Server(err))
		return
	}

	var pending int64
	err = tx.Model(&model.MentorshipRequest{}).
		Where("entrepreneur_id = ? AND mentor_id = ? AND status = ?", me.ID, mentor.ID, model.MentorshipPending).
		Count(&pending).
		Error
	if err != nil {
		respond.Error(c, apperr.Server(err))
		return
	}

	if pending > 0 {
		respond.Error(c, apperr.Conflict("You already have a pending request with this mentor"))
		return
	}

	req := &model.MentorshipRequest{
		EntrepreneurID: me.ID,
		MentorID:       mentor.ID,
		Message:        data.Message,
	}

	if err := tx.Create(req).Error; err != nil {
		respond.Error(c, apperr.Server(err))
		return
	}

	d.Dispatcher.Dispatch(service.NotificationSpec{
		RecipientID:     mentor.ID,
		Type:            model.NotifyMentorshipRequest,
		Message:         me.Name + " requested your mentorship",
		RelatedLinkID:   req.ID,
		RelatedLinkType: "mentorship",
	})

	respond.OK(c, http.StatusCreated, "Mentorship request sent", req)
}
