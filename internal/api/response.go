package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"waste-collection-backend/internal/apperr"
	"waste-collection-backend/internal/model"
)

// scheduleResponse is the wire form of a schedule record. Instants render
// as RFC3339 UTC.
type scheduleResponse struct {
	ID                 string     `json:"id"`
	ZoneID             string     `json:"zoneId"`
	ZoneName           string     `json:"zoneName"`
	WasteType          string     `json:"wasteType"`
	IsRecurring        bool       `json:"isRecurring"`
	RecurringDay       string     `json:"recurringDay,omitempty"`
	RecurringTime      string     `json:"recurringTime,omitempty"`
	CollectionDateTime *time.Time `json:"collectionDateTime,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func toScheduleResponse(s *model.Schedule) scheduleResponse {
	resp := scheduleResponse{
		ID:            s.ID,
		ZoneID:        s.ZoneID,
		ZoneName:      s.ZoneName,
		WasteType:     s.WasteType,
		IsRecurring:   s.IsRecurring,
		RecurringDay:  s.RecurringDay,
		RecurringTime: s.RecurringTime,
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt.UTC(),
		UpdatedAt:     s.UpdatedAt.UTC(),
	}
	if s.CollectionDateTime != nil {
		utc := s.CollectionDateTime.UTC()
		resp.CollectionDateTime = &utc
	}
	return resp
}

func toScheduleResponses(records []model.Schedule) []scheduleResponse {
	out := make([]scheduleResponse, 0, len(records))
	for i := range records {
		out = append(out, toScheduleResponse(&records[i]))
	}
	return out
}

// writeError maps the error taxonomy to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateSchedule):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidZone), errors.Is(err, apperr.ErrMalformedRecurrenceRule):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
