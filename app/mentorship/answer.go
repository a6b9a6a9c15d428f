package mentorship

import (
	"errors"
	"net/http"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/internal/service"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type answerBody struct {
	Status string `json:"status" binding:"required,oneof=ACCEPTED REJECTED"`
}

// Answer lets the addressed mentor accept or reject a pending request
func Answer(c *gin.Context, d *internal.Deps) {
	var data answerBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	tx := d.DB.WithContext(c.Request.Context())

	var req model.MentorshipRequest
	err := tx.Where("id = ?", c.Param("id")).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respond.Error(c, apperr.NotFound("Mentorship request not found"))
		return
	}
	if err != nil {
		respond.Error(c, apperr.Server(err))
		return
	}

	if req.MentorID != c.GetString("userID") {
		respond.Error(c, apperr.Authorization("You can only answer requests addressed to you"))
		return
	}

	status := model.MentorshipStatus(data.Status)

	res := tx.Model(&model.MentorshipRequest{}).
		Where("id = ? AND status = ?", req.ID, model.MentorshipPending).
		Update("status", status)
	if res.Error != nil {
		respond.Error(c, apperr.Server(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		respond.Error(c, apperr.Conflict("This request has already been answered"))
		return
	}
	req.Status = status

	spec := service.NotificationSpec{
		RecipientID:     req.EntrepreneurID,
		Type:            model.NotifyMentorshipAccepted,
		Message:         "Your mentorship request was accepted",
		RelatedLinkID:   req.ID,
		RelatedLinkType: "mentorship",
	}
	if status == model.MentorshipRejected {
		spec.Type = model.NotifyMentorshipRejected
		spec.Message = "Your mentorship request was declined"
	}
	d.Dispatcher.Dispatch(spec)

	respond.OK(c, http.StatusOK, "Mentorship request "+string(status), req)
}
