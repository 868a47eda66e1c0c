package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"waste-collection-backend/internal/model"
)

// ZoneResponse represents the API response for a single zone.
type ZoneResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IsActive       bool   `json:"isActive"`
	TotalSchedules int64  `json:"totalSchedules"`
}

// GetZones handles the GET /api/zones request.
func GetZones(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var zones []model.Zone
		if err := db.Find(&zones).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve zones"})
			return
		}

		// One aggregate pass for per-zone schedule counts.
		type AggRow struct {
			ZoneID         string
			TotalSchedules int64
		}
		var aggs []AggRow
		if err := db.
			Model(&model.Schedule{}).
			Select("zone_id as zone_id, COUNT(*) as total_schedules").
			Where("is_active = ?", true).
			Group("zone_id").
			Scan(&aggs).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate schedules"})
			return
		}

		aggMap := make(map[string]int64, len(aggs))
		for _, a := range aggs {
			aggMap[a.ZoneID] = a.TotalSchedules
		}

		responses := make([]ZoneResponse, 0, len(zones))
		for _, z := range zones {
			responses = append(responses, ZoneResponse{
				ID: z.ID, Name: z.Name, IsActive: z.IsActive,
				TotalSchedules: aggMap[z.ID],
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}
