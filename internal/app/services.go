package app

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"fleetaudit/internal/audit"
	"fleetaudit/internal/config"
	internalRedis "fleetaudit/internal/redis"
	"fleetaudit/internal/repository/postgres"
	"fleetaudit/internal/service"
)

// Services holds the wired application services shared by the HTTP server
// and the auditctl CLI.
type Services struct {
	Audit         *service.AuditService
	Dashboard     *service.DashboardService
	Report        *service.ReportService
	Notifications *service.NotificationService
}

// NewServices wires repositories, stores and services. redisClient and
// archive may be nil; caching, locking and archiving are then disabled.
func NewServices(db *sql.DB, redisClient *redis.Client, archive service.Archiver, cfg *config.Config, log logrus.FieldLogger) (*Services, error) {
	engine, err := audit.NewEngine(cfg.Audit)
	if err != nil {
		return nil, eris.Wrap(err, "build audit engine")
	}

	// Initialize repositories.
	tripRepo := postgres.NewTripRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	attendanceRepo := postgres.NewAttendanceRepository(db)

	// Initialize Redis stores.
	var (
		cacheStore internalRedis.CacheStoreInterface
		lockStore  internalRedis.LockStoreInterface
	)
	if redisClient != nil {
		cacheStore = internalRedis.NewCacheStore(redisClient)
		lockStore = internalRedis.NewLockStore(redisClient)
	}

	// Initialize services.
	notificationService := service.NewNotificationService(log.WithField("component", "notifications"))
	auditService := service.NewAuditService(
		engine, tripRepo, assignmentRepo, attendanceRepo,
		cacheStore, lockStore, notificationService,
		log.WithField("component", "audit"),
	).WithLockTTL(cfg.Redis.LockTTL)
	dashboardService := service.NewDashboardService(
		tripRepo, driverRepo, paymentRepo, attendanceRepo, cacheStore, cfg.Audit,
		log.WithField("component", "dashboard"),
	).WithCacheTTL(cfg.Redis.CacheTTL)
	reportService := service.NewReportService(
		auditService, tripRepo, driverRepo, archive,
		log.WithField("component", "report"),
	)

	return &Services{
		Audit:         auditService,
		Dashboard:     dashboardService,
		Report:        reportService,
		Notifications: notificationService,
	}, nil
}
