package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fleetaudit/internal/app"
	"fleetaudit/internal/config"
	"fleetaudit/internal/logger"
)

var (
	cfg *config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "auditctl",
	Short: "Fleet trip audit operator tool",
	Long:  "Runs trip audits against the fleet database, renders audit reports and exports trips as CSV.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		l, err := logger.New(cfg.Log)
		if err != nil {
			return eris.Wrap(err, "init logger")
		}
		// Command output goes to stdout; keep logs off it.
		if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
			l.SetOutput(os.Stderr)
		}
		log = l

		return nil
	},
	SilenceUsage: true,
}

// initServices connects to PostgreSQL and, when reachable, Redis. The
// returned cleanup closes both.
func initServices(ctx context.Context) (*app.Services, func(), error) {
	db, err := app.NewDatabase(ctx, cfg.Database, nil)
	if err != nil {
		return nil, nil, err
	}

	var redisClient *redis.Client
	if rc, err := app.NewRedisClient(ctx, cfg.Redis, nil); err != nil {
		log.WithError(err).Warn("redis unavailable; running without cache invalidation or trip locks")
	} else {
		redisClient = rc
	}

	archive, err := app.NewReportArchive(ctx, cfg.Report)
	if err != nil {
		closeAll(db, redisClient)
		return nil, nil, err
	}

	services, err := app.NewServices(db, redisClient, archive, cfg, log)
	if err != nil {
		closeAll(db, redisClient)
		return nil, nil, err
	}

	return services, func() { closeAll(db, redisClient) }, nil
}

func closeAll(db *sql.DB, redisClient *redis.Client) {
	if redisClient != nil {
		_ = redisClient.Close()
	}
	_ = db.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
