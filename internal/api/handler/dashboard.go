package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/members_server/internal/pkg/response"
	"github.com/qs3c/members_server/internal/service"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// Stats 概览统计
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, stats)
}

// Charts 图表数据
// GET /api/v1/dashboard/charts
func (h *DashboardHandler) Charts(c *gin.Context) {
	charts, err := h.dashboardService.Charts(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, charts)
}

// Pricing 会员价格
// GET /api/v1/settings/pricing
func (h *DashboardHandler) Pricing(c *gin.Context) {
	response.Success(c, h.dashboardService.Pricing())
}

// BankAccounts 收款账户
// GET /api/v1/settings/bank-accounts
func (h *DashboardHandler) BankAccounts(c *gin.Context) {
	response.Success(c, h.dashboardService.BankAccounts())
}
