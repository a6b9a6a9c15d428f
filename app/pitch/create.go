// Package pitch contains the endpoint entrepreneurs use to pitch investors
package pitch

import (
	"errors"
	"net/http"
	"strings"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/internal/service"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createBody struct {
	InvestorID string `json:"investorId" binding:"required"`
	CampaignID string `json:"campaignId"`
	Title      string `json:"title" binding:"required,max=200"`
	Summary    string `json:"summary" binding:"max=5000"`
}

func Create(c *gin.Context, d *internal.Deps) {
	var data createBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	tx := d.DB.WithContext(ctx)

	var investor model.User
	err := tx.Where("id = ? AND role = ? AND is_active = ?", data.InvestorID, model.RoleInvestor, true).First(&investor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respond.Error(c, apperr.NotFound("Investor not found"))
		return
	}
	if err != nil {
		respond.Error(c, apperr.Server(err))
		return
	}

	p := &model.Pitch{
		EntrepreneurID: c.GetString("userID"),
		InvestorID:     investor.ID,
		Title:          strings.TrimSpace(data.Title),
		Summary:        data.Summary,
	}

	if data.CampaignID != "" {
		var count int64
		err := tx.Model(&model.Campaign{}).Where("id = ? AND owner_id = ?", data.CampaignID, p.EntrepreneurID).Count(&count).Error
		if err != nil {
			respond.Error(c, apperr.Server(err))
			return
		}
		if count == 0 {
			respond.Error(c, apperr.NotFound("Campaign not found"))
			return
		}
		p.CampaignID = &data.CampaignID
	}

	if err := tx.Create(p).Error; err != nil {
		respond.Error(c, apperr.Server(err))
		return
	}

	d.Dispatcher.Dispatch(service.NotificationSpec{
		RecipientID:     investor.ID,
		Type:            model.NotifyNewPitch,
		Message:         "You received a new pitch: " + p.Title,
		RelatedLinkID:   p.ID,
		RelatedLinkType: "pitch",
	})

	respond.OK(c, http.StatusCreated, "Pitch sent", p)
}
