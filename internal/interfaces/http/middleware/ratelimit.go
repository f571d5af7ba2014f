package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hrshiti/inplay-sub000/internal/infrastructure/ratelimit"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
	"github.com/hrshiti/inplay-sub000/internal/shared/utils"
)

type RateLimiter struct {
	limiter ratelimit.RateLimiter
	limits  ratelimit.Limits
	logger  logger.Interface
}

func NewRateLimiter(limiter ratelimit.RateLimiter, limits ratelimit.Limits, logger logger.Interface) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		limits:  limits,
		logger:  logger,
	}
}

// Limit keys requests by scope and client IP. Limiter failures let the request through.
func (r *RateLimiter) Limit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r == nil || r.limiter == nil || !r.limits.Enabled() {
			c.Next()
			return
		}

		allowed, err := r.limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP(), r.limits)
		if err != nil {
			r.logger.Warnw("rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}
		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}
