package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/hrshiti/inplay-sub000/internal/infrastructure/ratelimit"
	"github.com/hrshiti/inplay-sub000/internal/interfaces/http/handlers"
	"github.com/hrshiti/inplay-sub000/internal/interfaces/http/middleware"
	"github.com/hrshiti/inplay-sub000/internal/interfaces/http/routes"
)

// Router represents the HTTP router configuration
type Router struct {
	engine    *gin.Engine
	container *Container

	authMiddleware *middleware.AuthMiddleware
	rateLimiter    *middleware.RateLimiter
	licenseHandler *handlers.LicenseHandler
	streamHandler  *handlers.StreamHandler
	healthHandler  *handlers.HealthHandler
}

func NewRouter(container *Container) *Router {
	log := container.log.Named("http")

	var rateLimiter *middleware.RateLimiter
	if container.limiter != nil {
		rateLimiter = middleware.NewRateLimiter(container.limiter, ratelimit.Limits{
			PerMinute: container.cfg.RateLimit.ValidatePerMinute,
			PerHour:   container.cfg.RateLimit.ValidatePerHour,
		}, log)
	}

	return &Router{
		engine:         gin.New(),
		container:      container,
		authMiddleware: middleware.NewAuthMiddleware(container.jwt, log),
		rateLimiter:    rateLimiter,
		licenseHandler: handlers.NewLicenseHandler(container.licenseService, log),
		streamHandler:  handlers.NewStreamHandler(container.getStreamURLUC, log),
		healthHandler:  handlers.NewHealthHandler(container.healthChecks(), log),
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	cfg := r.container.cfg
	log := r.container.log.Named("http")

	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(log))
	r.engine.Use(middleware.Recovery(log))
	r.engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(r.container.metrics))
		r.engine.GET(cfg.Metrics.Path, gin.WrapH(r.container.metrics.Handler()))
	}

	r.engine.GET("/health", r.healthHandler.HealthCheck)
	r.engine.GET("/version", r.healthHandler.Version)

	routes.SetupLicenseRoutes(r.engine, &routes.LicenseRouteConfig{
		LicenseHandler: r.licenseHandler,
		AuthMiddleware: r.authMiddleware,
		RateLimiter:    r.rateLimiter,
	})
	routes.SetupStreamRoutes(r.engine, &routes.StreamRouteConfig{
		StreamHandler:  r.streamHandler,
		AuthMiddleware: r.authMiddleware,
	})
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// healthChecks pings the database and, when configured, Redis.
func (c *Container) healthChecks() map[string]handlers.HealthChecker {
	checks := map[string]handlers.HealthChecker{
		"database": handlers.HealthCheckFunc(func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if c.redis != nil {
		checks["redis"] = handlers.HealthCheckFunc(func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		})
	}
	return checks
}
