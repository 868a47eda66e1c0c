package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiters holds one token bucket per client IP.
type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newClientLimiters(r rate.Limit, burst int) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

func (c *clientLimiters) get(ip string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(c.rate, c.burst)
		c.limiters[ip] = limiter
	}
	return limiter
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(r rate.Limit, burst int) gin.HandlerFunc {
	clients := newClientLimiters(r, burst)
	return func(c *gin.Context) {
		if !clients.get(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
