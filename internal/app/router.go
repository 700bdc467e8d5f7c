package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"nemt/internal/handler"
	"nemt/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler     *handler.TripHandler
	DriverHandler   *handler.DriverHandler
	RateHandler     *handler.RateHandler
	TrackingHandler *handler.TrackingHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(cors.Default())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public tracking links carry their own token; no actor identity needed.
	router.GET("/v1/tracking/:token", deps.TrackingHandler.Track)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.Use(middleware.IdentityMiddleware())
	{
		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.CreateTrip)
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.PATCH("/:id", deps.TripHandler.UpdateTrip)
			trips.POST("/:id/status", deps.TripHandler.ChangeStatus)
			trips.POST("/:id/assign", deps.TripHandler.Assign)
			trips.POST("/:id/cancel", deps.TripHandler.Cancel)
			trips.POST("/:id/reinstate", deps.TripHandler.Reinstate)
			trips.GET("/:id/history", deps.TripHandler.GetHistory)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.POST("/:id/location", deps.DriverHandler.UpdateLocation)
			drivers.GET("/:id/rates", deps.RateHandler.GetDriverRates)
			drivers.PUT("/:id/rates", deps.RateHandler.PutDriverRates)
		}

		// Facility rate routes.
		facilities := v1.Group("/facilities")
		{
			facilities.GET("/:id/rates", deps.RateHandler.GetFacilityRates)
			facilities.PUT("/:id/rates", deps.RateHandler.PutFacilityRates)
		}
	}

	return router
}
