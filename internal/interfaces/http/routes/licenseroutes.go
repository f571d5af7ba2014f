package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hrshiti/inplay-sub000/internal/interfaces/http/handlers"
	"github.com/hrshiti/inplay-sub000/internal/interfaces/http/middleware"
)

type LicenseRouteConfig struct {
	LicenseHandler *handlers.LicenseHandler
	AuthMiddleware *middleware.AuthMiddleware
	// RateLimiter guards validation, where the license key is the only credential. May be nil.
	RateLimiter *middleware.RateLimiter
}

func SetupLicenseRoutes(engine *gin.Engine, config *LicenseRouteConfig) {
	licenses := engine.Group("/api/downloads/licenses")
	{
		// Specific paths BEFORE /:sid
		licenses.POST("/validate",
			config.RateLimiter.Limit("license-validate"),
			config.LicenseHandler.ValidateLicense)
		licenses.POST("/revoke",
			config.AuthMiddleware.RequireAuth(),
			config.LicenseHandler.RevokeLicense)

		licenses.POST("",
			config.AuthMiddleware.RequireAuth(),
			config.LicenseHandler.IssueLicense)
		licenses.GET("",
			config.AuthMiddleware.RequireAuth(),
			config.LicenseHandler.ListLicenses)

		licenses.DELETE("/:sid",
			config.AuthMiddleware.RequireAuth(),
			config.LicenseHandler.RevokeLicenseBySID)
	}
}
