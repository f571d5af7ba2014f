package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hrshiti/inplay-sub000/internal/interfaces/http/handlers"
	"github.com/hrshiti/inplay-sub000/internal/interfaces/http/middleware"
)

type StreamRouteConfig struct {
	StreamHandler  *handlers.StreamHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupStreamRoutes(engine *gin.Engine, config *StreamRouteConfig) {
	streams := engine.Group("/api/streams")
	streams.Use(config.AuthMiddleware.OptionalAuth())
	{
		streams.GET("/:content_id", config.StreamHandler.GetStreamURL)
	}
}
