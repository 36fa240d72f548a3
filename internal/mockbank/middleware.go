package mockbank

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LoggingMiddleware logs basic request/response details and injects a request_id into context.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := uuid.New().String()[:8]
		c.Set("request_id", requestID)

		c.Next()

		log.Debug().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("env_id", c.GetHeader("env-id")).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("[MOCKBANK] HTTP Request")
	}
}

func (b *Bank) recordMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		b.record(Request{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			EnvID:         c.GetHeader("env-id"),
			TestMode:      c.GetHeader("x-test-mode"),
			Authorization: c.GetHeader("Authorization"),
			ContentType:   c.GetHeader("Content-Type"),
			Body:          body,
		})
		c.Next()
	}
}

func (b *Bank) scriptMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r, ok := b.scripted(c.Request.URL.Path, c.GetHeader("env-id")); ok {
			c.Data(r.Status, "application/json", []byte(r.Body))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (b *Bank) bearerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+b.accessToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"errorCode": "401",
				"errorDesc": "invalid access token",
			})
			return
		}
		c.Next()
	}
}
