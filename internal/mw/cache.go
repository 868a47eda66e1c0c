package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

// teeWriter duplicates the response body into a buffer so it can be cached
// after the handler ran.
type teeWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache is a middleware for in-memory caching of GET responses, keyed by
// request URI. Only 2xx responses are stored.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, found := store.Get(key); found {
			cached := hit.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		tee := &teeWriter{buf: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = tee

		c.Next()

		if tee.Status() >= 200 && tee.Status() < 300 {
			store.Set(key, cachedResponse{
				status:  tee.Status(),
				headers: tee.Header().Clone(),
				body:    tee.buf.Bytes(),
			}, ttl)
		}
	}
}
