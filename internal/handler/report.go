package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetaudit/internal/repository"
	"fleetaudit/internal/service"
)

// ReportHandler handles HTTP requests for reports and exports.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetAuditReport handles GET /v1/reports/audit
func (h *ReportHandler) GetAuditReport(c *gin.Context) {
	req, err := runRequestFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	text, _, err := h.reportService.AuditReport(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(text))
}

// ExportCSV handles GET /v1/reports/trips.csv
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	req, err := runRequestFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	// Buffer the export so a failure can still produce a JSON error.
	var buf bytes.Buffer
	err = h.reportService.ExportCSV(c.Request.Context(), &buf, repository.TripFilter{
		From:      req.From,
		To:        req.To,
		DriverIDs: req.DriverIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="trips.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Archive handles POST /v1/reports/archive
func (h *ReportHandler) Archive(c *gin.Context) {
	req, err := runRequestFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.reportService.Archive(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, result)
}
