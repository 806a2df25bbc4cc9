package controllers

import (
	"net/http"

	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/app/services"
	"github.com/campuspulse/campuspulse/internal/middleware"
	"github.com/gin-gonic/gin"
)

// DashboardController serves the role specific dashboard
type DashboardController struct {
	dashboardService services.DashboardService
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(dashboardService services.DashboardService) *DashboardController {
	return &DashboardController{dashboardService: dashboardService}
}

// GetDashboard returns the caller's dashboard
// @Summary Dashboard
// @Description Teachers get catalog totals and popular courses, students their own enrollments
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardResponse} "Dashboard"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /dashboard [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	claims, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	summary, err := c.dashboardService.Summary(ctx.Request.Context(), claims)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(summary))
}
