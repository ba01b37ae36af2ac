package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/members_server/config"
	"github.com/qs3c/members_server/internal/api/middleware"
	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/pkg/notify"
	"github.com/qs3c/members_server/internal/pkg/payment"
	"github.com/qs3c/members_server/internal/pkg/response"
	"github.com/qs3c/members_server/internal/repository"
	"github.com/qs3c/members_server/internal/service"
	"github.com/qs3c/members_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testServerKey = "server-key"

type testContext struct {
	DB *gorm.DB
}

type testHandlers struct {
	auth         *AuthHandler
	member       *MemberHandler
	subscription *SubscriptionHandler
	payment      *PaymentHandler
	dashboard    *DashboardHandler
	export       *ExportHandler
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret-key-for-handlers",
			ExpireHours: 24,
		},
		Lifecycle: config.LifecycleConfig{
			ReminderWindowDays: 10,
			ExpiringWindowDays: 30,
			NotifyTimeout:      time.Second,
		},
		Membership: config.MembershipConfig{
			AdminEmail: "admin@example.com",
			Pricing: map[string]config.TierPricing{
				"regular": {DisplayName: "Regular", Price: 500, DurationMonth: 12},
			},
			BankAccounts: []config.BankAccount{
				{BankName: "Test Bank", Holder: "Members Club", IBAN: "GR0000000000000000000000000"},
			},
		},
		Payment: config.PaymentConfig{ServerKey: testServerKey},
	}
}

func setupHandlers(t *testing.T) (*testHandlers, *testContext, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testConfig()
	dispatcher := notify.NewDispatcher(notify.Nop{}, cfg.Lifecycle.NotifyTimeout)

	tx := repository.NewTransaction(db)
	memberRepo := repository.NewMemberRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	audit := service.NewAuditService(historyRepo)

	lifecycle := service.NewLifecycleService(tx, memberRepo, subRepo, paymentRepo, audit, dispatcher, cfg.Lifecycle)
	duplicates := service.NewDuplicateService(tx, memberRepo, subRepo, paymentRepo, historyRepo, audit)
	members := service.NewMemberService(tx, memberRepo, audit, dispatcher)
	auth := service.NewAuthService(tx, memberRepo, paymentRepo, dispatcher, cfg)
	payments := service.NewPaymentService(tx, memberRepo, paymentRepo, audit, payment.NewMidtrans(&cfg.Payment))
	dashboard := service.NewDashboardService(memberRepo, subRepo, paymentRepo, cfg.Membership)
	export := service.NewExportService(memberRepo, paymentRepo, audit, nil)

	h := &testHandlers{
		auth:         NewAuthHandler(auth),
		member:       NewMemberHandler(members, lifecycle, duplicates, cfg.Lifecycle.ExpiringWindowDays),
		subscription: NewSubscriptionHandler(lifecycle),
		payment:      NewPaymentHandler(payments),
		dashboard:    NewDashboardHandler(dashboard),
		export:       NewExportHandler(export),
	}

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return h, &testContext{DB: db}, cleanup
}

// mockAuth 跳过 JWT，直接注入会员 ID 和角色
func mockAuth(userID int64, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.RoleKey, role)
		c.Next()
	}
}

func asAdmin(admin *model.Member) gin.HandlerFunc {
	return mockAuth(admin.ID, model.RoleSuperAdmin)
}

func asUser(member *model.Member) gin.HandlerFunc {
	return mockAuth(member.ID, model.RoleUser)
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return data
}
