package handler

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/pkg/response"
	"github.com/qs3c/members_server/internal/testutil"
)

func TestDashboardHandler_Stats(t *testing.T) {
	h, ctx, cleanup := setupHandlers(t)
	defer cleanup()

	admin := testutil.TestMember(t, ctx.DB, testutil.WithRole(model.RoleSuperAdmin))
	member := testutil.TestMember(t, ctx.DB)
	testutil.TestMember(t, ctx.DB, testutil.WithStatus(model.MemberStatusPending))
	testutil.TestPayment(t, ctx.DB, member.ID, 250, nil)

	router := gin.New()
	router.Use(asAdmin(admin))
	router.GET("/dashboard/stats", h.dashboard.Stats)
	router.GET("/dashboard/charts", h.dashboard.Charts)

	resp := parseResponse(t, performRequest(router, "GET", "/dashboard/stats", nil))
	require.Equal(t, response.CodeSuccess, resp.Code)
	data := dataMap(t, resp)
	assert.Equal(t, float64(2), data["total_members"])
	assert.Equal(t, float64(1), data["pending_approvals"])
	assert.Equal(t, float64(250), data["total_revenue"])

	resp = parseResponse(t, performRequest(router, "GET", "/dashboard/charts", nil))
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Len(t, dataMap(t, resp)["member_growth"], 6)
}

func TestDashboardHandler_Settings(t *testing.T) {
	h, _, cleanup := setupHandlers(t)
	defer cleanup()

	router := gin.New()
	router.GET("/settings/pricing", h.dashboard.Pricing)
	router.GET("/settings/bank-accounts", h.dashboard.BankAccounts)

	resp := parseResponse(t, performRequest(router, "GET", "/settings/pricing", nil))
	require.Equal(t, response.CodeSuccess, resp.Code)
	regular := dataMap(t, resp)["regular"].(map[string]interface{})
	assert.Equal(t, float64(500), regular["price"])

	resp = parseResponse(t, performRequest(router, "GET", "/settings/bank-accounts", nil))
	require.Equal(t, response.CodeSuccess, resp.Code)
	accounts := resp.Data.([]interface{})
	require.Len(t, accounts, 1)
	assert.Equal(t, "Test Bank", accounts[0].(map[string]interface{})["bank_name"])
}
