package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hrshiti/inplay-sub000/internal/shared/constants"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// RequestID propagates X-Request-ID, generating one when the client sent none.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(constants.ContextKeyRequestID, requestID)
		c.Header(constants.HeaderXRequestID, requestID)
		c.Next()
	}
}

func Logger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}

		if requestID := c.GetString(constants.ContextKeyRequestID); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		if userID := c.GetString(constants.ContextKeyUserID); userID != "" {
			args = append(args, "user_id", userID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.Errorw("HTTP request completed with server error", args...)
		case status >= 400:
			log.Warnw("HTTP request completed with client error", args...)
		default:
			log.Debugw("HTTP request completed", args...)
		}
	}
}
