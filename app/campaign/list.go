// Package campaign contains the fundraising campaign endpoints
package campaign

import (
	"net/http"
	"strconv"

	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/apperr"
	"startupconnect/api/pkg/respond"

	"github.com/gin-gonic/gin"
)

// List returns active campaigns, newest first, optionally by industry
func List(c *gin.Context, d *internal.Deps) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := d.DB.WithContext(c.Request.Context()).Where("status = ?", model.CampaignActive)
	if industry := c.Query("industry"); industry != "" {
		q = q.Where("industry = ?", industry)
	}

	campaigns := []model.Campaign{}
	if err := q.Order("created_at desc").Limit(limit).Find(&campaigns).Error; err != nil {
		respond.Error(c, apperr.Server(err))
		return
	}

	respond.OK(c, http.StatusOK, "", campaigns)
}
