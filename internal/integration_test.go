package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"waste-collection-backend/config"
	"waste-collection-backend/internal/api"
	"waste-collection-backend/internal/model"
	"waste-collection-backend/internal/notification"
	"waste-collection-backend/internal/schedule"
	"waste-collection-backend/internal/store"
)

// captureDispatcher records every zone notification instead of pushing.
type captureDispatcher struct {
	envelopes []notification.Envelope
}

func (d *captureDispatcher) NotifyZone(_ context.Context, env notification.Envelope) int {
	d.envelopes = append(d.envelopes, env)
	return 1
}

// TestScheduleLifecycle walks a schedule through creation, duplicate
// rejection, the upcoming view, and cancellation over the HTTP surface,
// verifying the notifications fired along the way.
func TestScheduleLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, testDB.AutoMigrate(&model.Zone{}, &model.Schedule{}, &model.DeviceToken{}))
	require.NoError(t, testDB.Create(&model.Zone{ID: "brgy-1", Name: "Barangay Uno", IsActive: true}).Error)

	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	appStore := store.NewGormStore(testDB)
	dispatcher := &captureDispatcher{}
	svc := schedule.NewService(appStore, appStore, dispatcher, loc, zerolog.Nop())

	cfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 1}
	router := api.NewRouter(cfg, svc, appStore, &webpush.Options{VAPIDPublicKey: "test-key"}, zerolog.Nop())

	asAdmin := func(req *http.Request) *http.Request {
		req.Header.Set("X-User-Id", "admin-1")
		req.Header.Set("X-User-Role", "admin")
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	createBody := `{
		"zoneId": "brgy-1",
		"wasteType": "Biodegradable",
		"isRecurring": true,
		"recurringDay": "MONDAY",
		"recurringTime": "08:00"
	}`

	// Creation without the admin role is rejected, nothing is stored.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/schedules", bytes.NewBufferString(createBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, dispatcher.envelopes)

	// Admin creation succeeds and notifies the zone.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/schedules", bytes.NewBufferString(createBody))
	router.ServeHTTP(w, asAdmin(req))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID        string    `json:"id"`
		ZoneName  string    `json:"zoneName"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Barangay Uno", created.ZoneName)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	require.Len(t, dispatcher.envelopes, 1)
	assert.Equal(t, "brgy-1", dispatcher.envelopes[0].ZoneID)
	assert.Equal(t, "New Collection Schedule", dispatcher.envelopes[0].Title)

	// An identical proposal is a duplicate: no write, no notification.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/schedules", bytes.NewBufferString(createBody))
	router.ServeHTTP(w, asAdmin(req))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, dispatcher.envelopes, 1)

	var count int64
	require.NoError(t, testDB.Model(&model.Schedule{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The upcoming view expands the recurring rule into Monday mornings.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/zones/brgy-1/upcoming?limit=3", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var upcoming []struct {
		ScheduleID string    `json:"scheduleId"`
		At         time.Time `json:"at"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upcoming))
	require.Len(t, upcoming, 3)
	for i, occ := range upcoming {
		assert.Equal(t, created.ID, occ.ScheduleID)
		assert.Equal(t, time.Monday, occ.At.In(loc).Weekday())
		if i > 0 {
			assert.True(t, occ.At.After(upcoming[i-1].At))
		}
	}

	// Device registration for the zone.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PUT", "/api/subscriptions", bytes.NewBufferString(`{
		"endpoint": "https://push.example/abc",
		"p256dh": "key",
		"auth": "secret",
		"userId": "user-1",
		"zoneId": "brgy-1"
	}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	tokens, err := appStore.TokensForZone(context.Background(), "brgy-1")
	require.NoError(t, err)
	assert.Len(t, tokens, 1)

	// Deleting a nonexistent schedule is a 404 and notifies nobody.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/api/schedules/does-not-exist", nil)
	router.ServeHTTP(w, asAdmin(req))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, dispatcher.envelopes, 1)

	// Deleting the real schedule announces the cancellation.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", fmt.Sprintf("/api/schedules/%s", created.ID), nil)
	router.ServeHTTP(w, asAdmin(req))
	assert.Equal(t, http.StatusNoContent, w.Code)

	require.Len(t, dispatcher.envelopes, 2)
	assert.Equal(t, "Collection Schedule Cancelled", dispatcher.envelopes[1].Title)

	require.NoError(t, testDB.Model(&model.Schedule{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

// TestReminderEndpoint exercises the manual daily-reminder trigger against
// a schedule occurring today.
func TestReminderEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, testDB.AutoMigrate(&model.Zone{}, &model.Schedule{}, &model.DeviceToken{}))
	require.NoError(t, testDB.Create(&model.Zone{ID: "brgy-1", Name: "Barangay Uno", IsActive: true}).Error)

	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	appStore := store.NewGormStore(testDB)
	dispatcher := &captureDispatcher{}
	svc := schedule.NewService(appStore, appStore, dispatcher, loc, zerolog.Nop())

	cfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 1}
	router := api.NewRouter(cfg, svc, appStore, &webpush.Options{}, zerolog.Nop())

	// One recurring schedule on today's weekday, one on a different day.
	today := time.Now().In(loc)
	todayToken := weekdayToken(today.Weekday())
	otherToken := weekdayToken((today.Weekday() + 3) % 7)

	now := time.Now().UTC()
	seed := []model.Schedule{
		{ID: "s-today", ZoneID: "brgy-1", ZoneName: "Barangay Uno", WasteType: "Biodegradable", IsRecurring: true, RecurringDay: todayToken, RecurringTime: "08:00", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "s-other", ZoneID: "brgy-1", ZoneName: "Barangay Uno", WasteType: "Recyclable", IsRecurring: true, RecurringDay: otherToken, RecurringTime: "08:00", IsActive: true, CreatedAt: now, UpdatedAt: now},
	}
	for i := range seed {
		require.NoError(t, testDB.Create(&seed[i]).Error)
	}

	// Non-admin callers cannot trigger the reminder pass.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/reminders/run", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/reminders/run", nil)
	req.Header.Set("X-User-Role", "admin")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"schedulesAnnounced":1}`, w.Body.String())

	require.Len(t, dispatcher.envelopes, 1)
	assert.Equal(t, "Collection Today", dispatcher.envelopes[0].Title)
}

func weekdayToken(d time.Weekday) string {
	switch d {
	case time.Monday:
		return model.DayMonday
	case time.Tuesday:
		return model.DayTuesday
	case time.Wednesday:
		return model.DayWednesday
	case time.Thursday:
		return model.DayThursday
	case time.Friday:
		return model.DayFriday
	case time.Saturday:
		return model.DaySaturday
	default:
		return model.DaySunday
	}
}
