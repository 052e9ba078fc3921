package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fliphawk/backend/config"
)

// Metrics is the optional Prometheus binding of the router
type Metrics interface {
	RequestObserver
	Handler() http.Handler
}

// SetupRouter creates and configures the Gin router. metrics may be nil.
func SetupRouter(cfg *config.Config, handler *Handler, metrics Metrics) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
	}
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	if metrics != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(metrics.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.GET("/categories", handler.ListCategories)
		v1.GET("/keywords", handler.ExpandKeywords)

		scans := v1.Group("/scans")
		{
			scans.POST("", handler.CreateScan)
			scans.GET("", handler.ListScans)
			scans.GET("/:id", handler.GetScan)
			scans.GET("/:id/progress", handler.GetScanProgress)
			scans.DELETE("/:id", handler.CancelScan)
		}
	}

	return router
}
