package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetaudit/internal/audit"
	"fleetaudit/internal/service"
)

// AuditHandler handles HTTP requests for trip audits.
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// RunAuditRequest is the HTTP request body for an audit run. Config keys
// override the server's thresholds for this run only.
type RunAuditRequest struct {
	From      string          `json:"from,omitempty"` // YYYY-MM-DD
	To        string          `json:"to,omitempty"`   // YYYY-MM-DD
	DriverIDs []string        `json:"driver_ids,omitempty"`
	DryRun    bool            `json:"dry_run"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// OverrideRequest is the HTTP request body for a manual status override.
type OverrideRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
}

// GetTripAudit handles GET /v1/audit/trips/:id
func (h *AuditHandler) GetTripAudit(c *gin.Context) {
	result, err := h.auditService.EvaluateTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, result)
}

// RunAudit handles POST /v1/audit/run
func (h *AuditHandler) RunAudit(c *gin.Context) {
	var req RunAuditRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	from, err := parseDay(req.From)
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := parseDay(req.To)
	if err != nil {
		respondError(c, err)
		return
	}

	var cfg *audit.Config
	if len(req.Config) > 0 {
		overlay := h.auditService.Engine().Config()
		if err := json.Unmarshal(req.Config, &overlay); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid audit config"})
			return
		}
		cfg = &overlay
	}

	run, err := h.auditService.RunAudit(c.Request.Context(), service.RunRequest{
		From:      from,
		To:        to,
		DriverIDs: req.DriverIDs,
		DryRun:    req.DryRun,
		Config:    cfg,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, run)
}

// OverrideStatus handles POST /v1/audit/trips/:id/override
func (h *AuditHandler) OverrideStatus(c *gin.Context) {
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.auditService.OverrideStatus(c.Request.Context(), service.OverrideRequest{
		TripID: c.Param("id"),
		Status: req.Status,
		Actor:  req.Actor,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, result)
}
