package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/courseware/internal/response"
	"github.com/stemsi/courseware/internal/service"
)

// DashboardHandler handles the staff dashboard endpoint.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboardData godoc
// GET /api/v1/admin/dashboard
// Returns catalogue totals, storage used and the latest uploads.
func (h *DashboardHandler) GetDashboardData(c *gin.Context) {
	data, err := h.dashboardService.GetDashboardData(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}
