package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/members_server/internal/api/middleware"
	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/pkg/payment"
	"github.com/qs3c/members_server/internal/pkg/response"
	"github.com/qs3c/members_server/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// ListForMember 会员的付款记录
// GET /api/v1/payments/member/:id
func (h *PaymentHandler) ListForMember(c *gin.Context) {
	memberID, ok := requireSelfOrAdmin(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.ListForMember(c.Request.Context(), memberID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, payments)
}

// Record 登记线下付款
// POST /api/v1/payments
func (h *PaymentHandler) Record(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	p, err := h.paymentService.Record(c.Request.Context(), &req, middleware.Actor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "付款已登记", p)
}

// Intent 为当前会员创建在线支付
// POST /api/v1/payments/intent
func (h *PaymentHandler) Intent(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.paymentService.CreateIntent(c.Request.Context(), userID, req.Amount)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, resp)
}

// Webhook 支付结果回调，无需登录，靠签名校验
// POST /api/v1/payments/webhook
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var n payment.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	p, err := h.paymentService.HandleWebhook(c.Request.Context(), &n)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"order_id": n.OrderID, "payment_status": p.PaymentStatus})
}
