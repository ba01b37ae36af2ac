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
	"github.com/qs3c/members_server/internal/pkg/response"
	"github.com/qs3c/members_server/internal/testutil"
)

func subscriptionRouter(h *testHandlers, auth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(auth)
	router.GET("/subscriptions/member/:id", h.subscription.ListForMember)
	router.POST("/subscriptions", h.subscription.Issue)
	router.POST("/subscriptions/sweep", h.subscription.Sweep)
	router.PUT("/subscriptions/:id", h.subscription.Update)
	router.POST("/subscriptions/member/:id/upgrade", h.subscription.Upgrade)
	return router
}

func TestSubscriptionHandler_Issue(t *testing.T) {
	h, ctx, cleanup := setupHandlers(t)
	defer cleanup()

	admin := testutil.TestMember(t, ctx.DB, testutil.WithRole(model.RoleSuperAdmin))
	member := testutil.TestMember(t, ctx.DB, testutil.WithMemberType(model.MemberTypeSupporter))
	router := subscriptionRouter(h, asAdmin(admin))

	req := dto.IssueSubscriptionRequest{
		MemberID:       member.ID,
		MemberType:     model.MemberTypeRegular,
		DurationMonths: 12,
		Price:          500,
		StartDate:      testutil.Date(2024, time.January, 31),
	}
	resp := parseResponse(t, performRequest(router, "POST", "/subscriptions", req))
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, float64(member.ID), dataMap(t, resp)["member_id"])

	t.Run("zero duration", func(t *testing.T) {
		bad := req
		bad.DurationMonths = 0
		resp := parseResponse(t, performRequest(router, "POST", "/subscriptions", bad))
		assert.Equal(t, response.CodeParamError, resp.Code)
	})

	t.Run("unknown member", func(t *testing.T) {
		bad := req
		bad.MemberID = 99999
		resp := parseResponse(t, performRequest(router, "POST", "/subscriptions", bad))
		assert.Equal(t, response.CodeResourceNotFound, resp.Code)
	})

	t.Run("list for member", func(t *testing.T) {
		resp := parseResponse(t, performRequest(subscriptionRouter(h, asUser(member)), "GET", fmt.Sprintf("/subscriptions/member/%d", member.ID), nil))
		require.Equal(t, response.CodeSuccess, resp.Code)
		assert.Len(t, resp.Data, 1)
	})
}

func TestSubscriptionHandler_Update_CannotReactivate(t *testing.T) {
	h, ctx, cleanup := setupHandlers(t)
	defer cleanup()

	admin := testutil.TestMember(t, ctx.DB, testutil.WithRole(model.RoleSuperAdmin))
	member := testutil.TestMember(t, ctx.DB)
	sub := testutil.TestSubscription(t, ctx.DB, member.ID,
		testutil.Date(2023, time.January, 1), testutil.Date(2024, time.January, 1),
		testutil.WithSubscriptionStatus(model.SubscriptionStatusExpired))

	active := model.SubscriptionStatusActive
	resp := parseResponse(t, performRequest(subscriptionRouter(h, asAdmin(admin)), "PUT",
		fmt.Sprintf("/subscriptions/%d", sub.ID), dto.UpdateSubscriptionRequest{Status: &active}))
	assert.Equal(t, response.CodeConflict, resp.Code)
}

func TestSubscriptionHandler_Upgrade(t *testing.T) {
	h, ctx, cleanup := setupHandlers(t)
	defer cleanup()

	admin := testutil.TestMember(t, ctx.DB, testutil.WithRole(model.RoleSuperAdmin))
	member := testutil.TestMember(t, ctx.DB, testutil.WithMemberType(model.MemberTypeSupporter))

	req := dto.ManualUpgradeRequest{
		MemberType:     model.MemberTypeRegular,
		DurationMonths: 12,
		Amount:         500,
		PaymentMethod:  "cash",
	}
	resp := parseResponse(t, performRequest(subscriptionRouter(h, asAdmin(admin)), "POST",
		fmt.Sprintf("/subscriptions/member/%d/upgrade", member.ID), req))
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := dataMap(t, resp)
	assert.NotNil(t, data["subscription"])
	assert.Equal(t, "cash", data["payment"].(map[string]interface{})["payment_method"])
}

func TestSubscriptionHandler_Sweep(t *testing.T) {
	h, ctx, cleanup := setupHandlers(t)
	defer cleanup()

	admin := testutil.TestMember(t, ctx.DB, testutil.WithRole(model.RoleSuperAdmin))
	member := testutil.TestMember(t, ctx.DB)
	testutil.TestSubscription(t, ctx.DB, member.ID, testutil.Date(2020, time.January, 1), testutil.Date(2021, time.January, 1))

	resp := parseResponse(t, performRequest(subscriptionRouter(h, asAdmin(admin)), "POST", "/subscriptions/sweep", nil))
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, float64(1), dataMap(t, resp)["expired"])
}
