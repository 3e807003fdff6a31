package middleware

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/minhwang72/monsil-wedding/internal/cache"

	"github.com/gin-gonic/gin"
)

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheMiddleware serves repeated GETs from store. Only 200 responses are
// kept, and a handler can opt out by setting Cache-Control: no-store.
func CacheMiddleware(store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cache.Key(c.Request.Method, c.Request.URL.RequestURI())
		if body, ok := store.Get(key); ok {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		gen := store.Generation()
		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header("X-Cache", "MISS")
		c.Next()

		if rec.Status() != http.StatusOK {
			return
		}
		if strings.Contains(rec.Header().Get("Cache-Control"), "no-store") {
			return
		}
		// an invalidation while the handler ran means the body may predate it
		store.SetIfGeneration(key, bytes.Clone(rec.body.Bytes()), gen)
	}
}
