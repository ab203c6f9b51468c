package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fleetaudit/internal/app"
	"fleetaudit/internal/config"
	"fleetaudit/internal/handler"
	"fleetaudit/internal/logger"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build logger")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	nrApp := app.NewNewRelicApp(cfg.NewRelic, log)

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info("Connected to Redis")

	archive, err := app.NewReportArchive(ctx, cfg.Report)
	if err != nil {
		log.WithError(err).Fatal("failed to configure report archive")
	}
	if archive == nil {
		log.Warn("report.bucket not set; report archiving disabled")
	}

	services, err := app.NewServices(db, redisClient, archive, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to wire services")
	}

	server := newServer(services, redisClient, nrApp, cfg, log)

	// Start server in goroutine.
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("Server exited")
}

// newServer builds the handlers and returns the HTTP server.
func newServer(services *app.Services, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, log *logrus.Logger) *http.Server {
	router := app.NewRouter(app.RouterDeps{
		AuditHandler:     handler.NewAuditHandler(services.Audit),
		TripHandler:      handler.NewTripHandler(services.Audit),
		DashboardHandler: handler.NewDashboardHandler(services.Dashboard),
		ReportHandler:    handler.NewReportHandler(services.Report),
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
		Logger:           log,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
