package http

import (
	"github.com/gin-gonic/gin"
	"github.com/welfaremap/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestLogger())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		ratings := v1.Group("/ratings")
		{
			ratings.GET("", handler.ListRatings)
			ratings.GET("/:animal/:label", handler.GetRating)
		}

		v1.POST("/classify", handler.Classify)
	}

	return router
}
