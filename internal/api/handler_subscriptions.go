package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"waste-collection-backend/internal/apperr"
	"waste-collection-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
	UserID   string `json:"userId" binding:"required"`
	ZoneID   string `json:"zoneId" binding:"required"`
}

// PutSubscription registers or refreshes a device for zone notifications.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// The zone must exist; an unknown zone id would register a device
	// nothing can ever notify.
	if _, err := h.store.ResolveZone(c.Request.Context(), req.ZoneID); err != nil {
		writeError(c, err)
		return
	}

	token := model.DeviceToken{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
		UserID:   req.UserID,
		ZoneID:   req.ZoneID,
	}
	if err := h.store.SaveToken(c.Request.Context(), &token); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes a device registration.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.store.DeleteToken(c.Request.Context(), req.Endpoint); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true // deliberately not URL-decoded
		}
	}
	return "", false
}

// GetSubscription returns the registration for a push endpoint.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	var token model.DeviceToken
	if err := h.store.DB().First(&token, "endpoint = ?", raw).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeError(c, apperr.ErrNotFound)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": token.UserID, "zoneId": token.ZoneID})
}
