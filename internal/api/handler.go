package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"waste-collection-backend/internal/schedule"
	"waste-collection-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *schedule.Service
	store   store.Store
	webpush *webpush.Options
	log     zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc *schedule.Service, s store.Store, webpushOptions *webpush.Options, log zerolog.Logger) *Handler {
	return &Handler{
		svc:     svc,
		store:   s,
		webpush: webpushOptions,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// actorFrom reads the caller identity the deployment's auth proxy injects.
// Authentication itself lives outside this service; these headers are
// trusted input here.
func actorFrom(c *gin.Context) schedule.Actor {
	return schedule.Actor{
		UserID:  c.GetHeader("X-User-Id"),
		IsAdmin: c.GetHeader("X-User-Role") == "admin",
	}
}
