package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

type HTTPObserver interface {
	ObserveHTTP(method, path string, status int, elapsed time.Duration)
}

// Metrics records every request under its route template, or "unmatched".
func Metrics(observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		observer.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
