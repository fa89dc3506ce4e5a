package logger

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const RequestIDKey = "X-Request-ID"

// FromContext retrieves the logger from the Gin context with the request ID
func FromContext(c *gin.Context) *zap.Logger {
	// Try to get the logger from context first
	if ctxLogger, ok := c.Get("logger"); ok {
		if l, ok := ctxLogger.(*zap.Logger); ok {
			return l
		}
	}

	// Otherwise, get the global logger and add the request ID
	requestID := c.GetString(RequestIDKey)
	if requestID == "" {
		requestID = c.Request.Header.Get(RequestIDKey)
		if requestID == "" {
			requestID = "unknown"
		}
	}

	return GetLogger().With(zap.String("request_id", requestID))
}
