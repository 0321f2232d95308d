package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger リクエストごとに開始と完了をログに出す
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		fields := log.WithFields(logrus.Fields{
			"request-id": requestID,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		})
		fields.WithField("ip", c.ClientIP()).Debug("request started")

		c.Next()

		status := c.Writer.Status()
		entry := fields.WithFields(logrus.Fields{
			"duration":    time.Since(start),
			"status-code": status,
		})
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("request completed")
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
