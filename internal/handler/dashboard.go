package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetaudit/internal/service"
)

// DashboardHandler handles HTTP requests for the fleet dashboard.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard handles GET /v1/dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	var req service.DashboardRequest
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"days", &req.Days},
		{"top", &req.Top},
		{"recent", &req.Recent},
		{"efficiency", &req.Efficiency},
	} {
		n, err := queryInt(c, p.name)
		if err != nil {
			respondError(c, err)
			return
		}
		*p.dst = n
	}

	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, dashboard)
}
