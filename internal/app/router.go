package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fleetaudit/internal/handler"
	"fleetaudit/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuditHandler     *handler.AuditHandler
	TripHandler      *handler.TripHandler
	DashboardHandler *handler.DashboardHandler
	ReportHandler    *handler.ReportHandler
	RedisClient      redis.Cmdable
	NewRelicApp      *newrelic.Application
	Logger           logrus.FieldLogger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.AuditAttributes())
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Logger))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Audit routes.
		audits := v1.Group("/audit")
		{
			audits.POST("/run", deps.AuditHandler.RunAudit)
			audits.GET("/trips/:id", deps.AuditHandler.GetTripAudit)
			audits.POST("/trips/:id/override", deps.AuditHandler.OverrideStatus)
		}

		// Trip routes.
		v1.PATCH("/trips/:id", deps.TripHandler.UpdateTrip)

		// Dashboard routes.
		v1.GET("/dashboard", deps.DashboardHandler.GetDashboard)

		// Report routes.
		reports := v1.Group("/reports")
		{
			reports.GET("/audit", deps.ReportHandler.GetAuditReport)
			reports.GET("/trips.csv", deps.ReportHandler.ExportCSV)
			reports.POST("/archive", deps.ReportHandler.Archive)
		}
	}

	return router
}
