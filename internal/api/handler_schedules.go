package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"waste-collection-backend/internal/schedule"
)

type scheduleRequest struct {
	ZoneID             string     `json:"zoneId" binding:"required"`
	WasteType          string     `json:"wasteType" binding:"required"`
	IsRecurring        bool       `json:"isRecurring"`
	RecurringDay       string     `json:"recurringDay"`
	RecurringTime      string     `json:"recurringTime"`
	CollectionDateTime *time.Time `json:"collectionDateTime"`
	Notes              string     `json:"notes"`
}

func (r *scheduleRequest) toInput() schedule.Input {
	return schedule.Input{
		ZoneID:             r.ZoneID,
		WasteType:          r.WasteType,
		IsRecurring:        r.IsRecurring,
		RecurringDay:       r.RecurringDay,
		RecurringTime:      r.RecurringTime,
		CollectionDateTime: r.CollectionDateTime,
		Notes:              r.Notes,
	}
}

// CreateSchedule handles POST /api/schedules.
func (h *Handler) CreateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.svc.Create(c.Request.Context(), actorFrom(c), req.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toScheduleResponse(record))
}

// UpdateSchedule handles PUT /api/schedules/:id.
func (h *Handler) UpdateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.svc.Update(c.Request.Context(), actorFrom(c), c.Param("id"), req.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toScheduleResponse(record))
}

// DeleteSchedule handles DELETE /api/schedules/:id.
func (h *Handler) DeleteSchedule(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSchedule handles GET /api/schedules/:id.
func (h *Handler) GetSchedule(c *gin.Context) {
	record, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toScheduleResponse(record))
}

// ListZoneSchedules handles GET /api/zones/:zone_id/schedules.
func (h *Handler) ListZoneSchedules(c *gin.Context) {
	records, err := h.svc.ListByZone(c.Request.Context(), c.Param("zone_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toScheduleResponses(records))
}

// ListZoneRecurring handles GET /api/zones/:zone_id/recurring.
func (h *Handler) ListZoneRecurring(c *gin.Context) {
	records, err := h.svc.ListRecurring(c.Request.Context(), c.Param("zone_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toScheduleResponses(records))
}

// ListZoneUpcoming handles GET /api/zones/:zone_id/upcoming.
func (h *Handler) ListZoneUpcoming(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	occurrences, err := h.svc.ListUpcoming(c.Request.Context(), c.Param("zone_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if occurrences == nil {
		occurrences = []schedule.Occurrence{}
	}
	c.JSON(http.StatusOK, occurrences)
}

// RunDailyReminder handles POST /api/reminders/run, a manual trigger for
// the same pass the cron entries fire.
func (h *Handler) RunDailyReminder(c *gin.Context) {
	if !actorFrom(c).IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}
	announced := h.svc.NotifyTodaysSchedules(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"schedulesAnnounced": announced})
}
