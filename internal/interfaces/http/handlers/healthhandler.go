package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
	"github.com/hrshiti/inplay-sub000/internal/shared/utils"
	"github.com/hrshiti/inplay-sub000/internal/shared/version"
)

// HealthChecker probes one dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	checks  map[string]HealthChecker
	timeout time.Duration
	logger  logger.Interface
}

func NewHealthHandler(checks map[string]HealthChecker, logger logger.Interface) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// HealthCheck handles GET /health. Any failing dependency yields 503.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warnw("health check failed", "component", name, "error", err)
			components[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, utils.APIResponse{
		Success: status == http.StatusOK,
		Data: gin.H{
			"status":     overall,
			"components": components,
		},
	})
}

// Version handles GET /version.
func (h *HealthHandler) Version(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", version.Current())
}
