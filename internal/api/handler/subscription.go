package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/members_server/internal/api/middleware"
	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/pkg/response"
	"github.com/qs3c/members_server/internal/service"
)

type SubscriptionHandler struct {
	lifecycleService *service.LifecycleService
}

func NewSubscriptionHandler(lifecycleService *service.LifecycleService) *SubscriptionHandler {
	return &SubscriptionHandler{
		lifecycleService: lifecycleService,
	}
}

// ListForMember 会员的订阅记录
// GET /api/v1/subscriptions/member/:id
func (h *SubscriptionHandler) ListForMember(c *gin.Context) {
	memberID, ok := requireSelfOrAdmin(c)
	if !ok {
		return
	}

	subs, err := h.lifecycleService.ListSubscriptions(c.Request.Context(), memberID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, subs)
}

// Issue 开通订阅
// POST /api/v1/subscriptions
func (h *SubscriptionHandler) Issue(c *gin.Context) {
	var req dto.IssueSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	sub, err := h.lifecycleService.IssueSubscription(c.Request.Context(), &req, middleware.Actor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "订阅已开通", sub)
}

// Update 修改订阅
// PUT /api/v1/subscriptions/:id
func (h *SubscriptionHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	sub, err := h.lifecycleService.UpdateSubscription(c.Request.Context(), id, &req, middleware.Actor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "订阅已更新", sub)
}

// Upgrade 线下付款后手动升级
// POST /api/v1/subscriptions/member/:id/upgrade
func (h *SubscriptionHandler) Upgrade(c *gin.Context) {
	memberID, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.ManualUpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.lifecycleService.ManualUpgrade(c.Request.Context(), memberID, &req, middleware.Actor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "升级成功", resp)
}

// Sweep 手动触发每日检查
// POST /api/v1/subscriptions/sweep
func (h *SubscriptionHandler) Sweep(c *gin.Context) {
	resp, err := h.lifecycleService.RunDailySweep(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, resp)
}
