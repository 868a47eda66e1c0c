package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"waste-collection-backend/config"
	"waste-collection-backend/internal/mw"
	"waste-collection-backend/internal/schedule"
	"waste-collection-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, svc *schedule.Service, s store.Store, webpushOptions *webpush.Options, log zerolog.Logger) *gin.Engine {
	r := gin.Default()

	db := s.DB()
	handler := NewHandler(svc, s, webpushOptions, log)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Zone directory reads.
		api.GET("/zones", caching, GetZones(db))
		api.GET("/zones/:zone_id/schedules", handler.ListZoneSchedules)
		api.GET("/zones/:zone_id/recurring", handler.ListZoneRecurring)
		api.GET("/zones/:zone_id/upcoming", handler.ListZoneUpcoming)

		// Schedule mutations and lookups.
		api.POST("/schedules", handler.CreateSchedule)
		api.GET("/schedules/:id", handler.GetSchedule)
		api.PUT("/schedules/:id", handler.UpdateSchedule)
		api.DELETE("/schedules/:id", handler.DeleteSchedule)

		// Manual reminder trigger.
		api.POST("/reminders/run", handler.RunDailyReminder)

		// Device registration for push notifications.
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
