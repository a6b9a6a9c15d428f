package campaign

import (
	"net/http"
	"strings"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/internal/service"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createBody struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=5000"`
	Industry    string `json:"industry" binding:"max=100"`
	FundingGoal int64  `json:"fundingGoal" binding:"required,gt=0"`
}

// Create opens a campaign and tells every active investor and mentor about
// it. The response never depends on the notifications.
func Create(c *gin.Context, d *internal.Deps) {
	var data createBody
	if err := respond.Bind(c, &data); err != nil {
		respond.Error(c, err)
		return
	}

	ownerID := c.GetString("userID")
	campaign := &model.Campaign{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(data.Title),
		Description: data.Description,
		Industry:    strings.TrimSpace(data.Industry),
		FundingGoal: data.FundingGoal,
	}

	if err := d.DB.WithContext(c.Request.Context()).Create(campaign).Error; err != nil {
		respond.Error(c, apperr.Server(err))
		return
	}

	recipients, err := d.Notifier.Recipients(c.Request.Context(), ownerID, model.RoleInvestor, model.RoleMentor)
	if err != nil {
		zap.L().Error("Failed to resolve campaign recipients", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	}

	specs := make([]service.NotificationSpec, 0, len(recipients))
	for _, id := range recipients {
		specs = append(specs, service.NotificationSpec{
			RecipientID:     id,
			Type:            model.NotifyNewCampaign,
			Message:         "New campaign: " + campaign.Title,
			RelatedLinkID:   campaign.ID,
			RelatedLinkType: "campaign",
		})
	}
	d.Dispatcher.Dispatch(specs...)

	respond.OK(c, http.StatusCreated, "Campaign created", campaign)
}
