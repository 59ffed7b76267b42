package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"ambulance/internal/handler"
	"ambulance/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler      *handler.TripHandler
	AmbulanceHandler *handler.AmbulanceHandler
	TrackHandler     *handler.TrackHandler
	RedisClient      *redis.Client
	NewRelicApp      *newrelic.Application
	JWTSecret        string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint.
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Trip lifecycle routes.
		trips := v1.Group("/trips")
		{
			trips.POST("/dispatch", deps.TripHandler.Dispatch)
			trips.GET("/active", deps.TripHandler.GetActive)
			trips.POST("/:id/accept", deps.TripHandler.Accept)
			trips.POST("/:id/arrived", deps.TripHandler.MarkArrived)
			trips.POST("/:id/verify-otp", deps.TripHandler.VerifyOTP)
			trips.POST("/:id/complete", deps.TripHandler.Complete)
			trips.POST("/:id/cancel", deps.TripHandler.Cancel)
			trips.POST("/:id/expire", deps.TripHandler.Expire)
		}

		// Fleet routes.
		ambulances := v1.Group("/ambulances")
		{
			ambulances.GET("/nearby", deps.AmbulanceHandler.Nearby)
		}

		// Tracking routes. The driver uplink is authenticated; the
		// watcher stream is open to dashboard consumers.
		track := v1.Group("/track")
		{
			track.GET("", middleware.AuthMiddleware(deps.JWTSecret), deps.TrackHandler.Track)
			track.GET("/watch", deps.TrackHandler.Watch)
		}
	}

	return router
}
