package service

import (
	"bytes"
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"fleetaudit/internal/report"
	"fleetaudit/internal/repository"
	"fleetaudit/internal/storage"
)

// Archiver stores rendered reports.
type Archiver interface {
	Archive(ctx context.Context, req storage.ArchiveRequest) (*storage.ArchiveResult, error)
}

// ReportService renders audit reports and trip exports.
type ReportService struct {
	auditService *AuditService
	tripRepo     repository.TripRepository
	driverRepo   repository.DriverRepository
	archive      Archiver
	log          logrus.FieldLogger
}

// NewReportService creates a new ReportService. archive may be nil, in which
// case Archive returns ErrArchiveNotConfigured.
func NewReportService(
	auditService *AuditService,
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	archive Archiver,
	log logrus.FieldLogger,
) *ReportService {
	return &ReportService{
		auditService: auditService,
		tripRepo:     tripRepo,
		driverRepo:   driverRepo,
		archive:      archive,
		log:          log,
	}
}

// AuditReport evaluates the selected trips without persisting and renders
// the markdown report.
func (s *ReportService) AuditReport(ctx context.Context, req RunRequest) (string, *RunResult, error) {
	req.DryRun = true
	run, err := s.auditService.RunAudit(ctx, req)
	if err != nil {
		return "", nil, err
	}
	return report.GenerateReport(run.Results), run, nil
}

// ExportCSV writes the selected trips as CSV to w.
func (s *ReportService) ExportCSV(ctx context.Context, w io.Writer, filter repository.TripFilter) error {
	trips, err := s.tripRepo.List(ctx, filter)
	if err != nil {
		return eris.Wrap(err, "export: list trips")
	}
	drivers, err := s.driverRepo.GetAll(ctx)
	if err != nil {
		return eris.Wrap(err, "export: list drivers")
	}
	return report.WriteCSV(w, trips, drivers)
}

// ArchiveResult is the outcome of archiving a report run.
type ArchiveResult struct {
	*storage.ArchiveResult
	RunID   string                `json:"run_id"`
	Summary report.AnomalySummary `json:"summary"`
}

// Archive renders the report and CSV export for req and uploads both.
func (s *ReportService) Archive(ctx context.Context, req RunRequest) (*ArchiveResult, error) {
	if s.archive == nil {
		return nil, ErrArchiveNotConfigured
	}

	text, run, err := s.AuditReport(ctx, req)
	if err != nil {
		return nil, err
	}

	var csvBuf bytes.Buffer
	filter := repository.TripFilter{From: req.From, To: req.To, DriverIDs: req.DriverIDs}
	if err := s.ExportCSV(ctx, &csvBuf, filter); err != nil {
		return nil, err
	}

	stored, err := s.archive.Archive(ctx, storage.ArchiveRequest{
		RunID:  run.RunID,
		Report: text,
		CSV:    csvBuf.Bytes(),
	})
	if err != nil {
		if eris.Is(err, storage.ErrBucketNotConfigured) {
			return nil, ErrArchiveNotConfigured
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"run_id":     run.RunID,
		"report_key": stored.ReportKey,
		"csv_key":    stored.CSVKey,
	}).Info("audit report archived")

	return &ArchiveResult{ArchiveResult: stored, RunID: run.RunID, Summary: run.Summary}, nil
}
