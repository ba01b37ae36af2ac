package handler

import (
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/pkg/payment"
	"github.com/qs3c/members_server/internal/pkg/response"
	"github.com/qs3c/members_server/internal/testutil"
)

func paymentRouter(h *testHandlers, auth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.POST("/payments/webhook", h.payment.Webhook)
	authed := router.Group("", auth)
	authed.GET("/payments/member/:id", h.payment.ListForMember)
	authed.POST("/payments", h.payment.Record)
	authed.POST("/payments/intent", h.payment.Intent)
	return router
}

func signedNotification(orderID, status string) payment.Notification {
	n := payment.Notification{
		OrderID:           orderID,
		StatusCode:        "200",
		GrossAmount:       "500.00",
		TransactionStatus: status,
		TransactionID:     "txn-" + orderID,
		PaymentType:       "credit_card",
	}
	n.SignatureKey = payment.Signature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
	return n
}

func TestPaymentHandler_Record(t *testing.T) {
	h, ctx, cleanup := setupHandlers(t)
	defer cleanup()

	admin := testutil.TestMember(t, ctx.DB, testutil.WithRole(model.RoleSuperAdmin))
	member := testutil.TestMember(t, ctx.DB)
	router := paymentRouter(h, asAdmin(admin))

	req := dto.RecordPaymentRequest{MemberID: member.ID, Amount: 120, PaymentMethod: "cash"}
	resp := parseResponse(t, performRequest(router, "POST", "/payments", req))
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, model.PaymentStatusCompleted, dataMap(t, resp)["payment_status"])

	req.Amount = 0
	resp = parseResponse(t, performRequest(router, "POST", "/payments", req))
	assert.Equal(t, response.CodeParamError, resp.Code)

	resp = parseResponse(t, performRequest(paymentRouter(h, asUser(member)), "GET", fmt.Sprintf("/payments/member/%d", member.ID), nil))
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Len(t, resp.Data, 1)
}

func TestPaymentHandler_Intent_Validation(t *testing.T) {
	h, ctx, cleanup := setupHandlers(t)
	defer cleanup()

	member := testutil.TestMember(t, ctx.DB)

	resp := parseResponse(t, performRequest(paymentRouter(h, asUser(member)), "POST", "/payments/intent", dto.CreateIntentRequest{}))
	assert.Equal(t, response.CodeParamError, resp.Code)

	noAuth := paymentRouter(h, func(c *gin.Context) { c.Next() })
	resp = parseResponse(t, performRequest(noAuth, "POST", "/payments/intent", dto.CreateIntentRequest{Amount: 10}))
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestPaymentHandler_Webhook(t *testing.T) {
	h, ctx, cleanup := setupHandlers(t)
	defer cleanup()

	member := testutil.TestMember(t, ctx.DB)
	orderID := "order-123"
	pending := &model.Payment{
		MemberID:      member.ID,
		Amount:        500,
		PaymentMethod: "online",
		PaymentStatus: model.PaymentStatusPending,
		PaymentDate:   time.Now().UTC(),
		ExternalRef:   &orderID,
	}
	require.NoError(t, ctx.DB.Create(pending).Error)

	router := paymentRouter(h, func(c *gin.Context) { c.Next() })

	t.Run("bad signature", func(t *testing.T) {
		n := signedNotification(orderID, "settlement")
		n.SignatureKey = "forged"
		resp := parseResponse(t, performRequest(router, "POST", "/payments/webhook", n))
		assert.Equal(t, response.CodeParamError, resp.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		resp := parseResponse(t, performRequest(router, "POST", "/payments/webhook", signedNotification("order-missing", "settlement")))
		assert.Equal(t, response.CodeResourceNotFound, resp.Code)
	})

	t.Run("settlement completes payment", func(t *testing.T) {
		resp := parseResponse(t, performRequest(router, "POST", "/payments/webhook", signedNotification(orderID, "settlement")))
		require.Equal(t, response.CodeSuccess, resp.Code)
		assert.Equal(t, model.PaymentStatusCompleted, dataMap(t, resp)["payment_status"])
	})

	t.Run("repeated settlement is a no-op", func(t *testing.T) {
		resp := parseResponse(t, performRequest(router, "POST", "/payments/webhook", signedNotification(orderID, "settlement")))
		assert.Equal(t, response.CodeSuccess, resp.Code)
	})

	t.Run("conflicting terminal status", func(t *testing.T) {
		resp := parseResponse(t, performRequest(router, "POST", "/payments/webhook", signedNotification(orderID, "deny")))
		assert.Equal(t, response.CodeConflict, resp.Code)
	})
}
