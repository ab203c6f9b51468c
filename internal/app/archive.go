package app

import (
	"context"

	"fleetaudit/internal/config"
	"fleetaudit/internal/service"
	"fleetaudit/internal/storage"
)

// NewReportArchive returns the S3 archive for cfg, or nil when no bucket is
// configured.
func NewReportArchive(ctx context.Context, cfg config.ReportConfig) (service.Archiver, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	archive, err := storage.NewS3ReportArchive(ctx, cfg.Region, cfg.Bucket, cfg.Prefix)
	if err != nil {
		return nil, err
	}
	return archive, nil
}
