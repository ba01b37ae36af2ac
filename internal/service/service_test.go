package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/members_server/config"
	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/pkg/notify"
	"github.com/qs3c/members_server/internal/pkg/payment"
	"github.com/qs3c/members_server/internal/repository"
	"github.com/qs3c/members_server/internal/testutil"
)

// recorder 记录发出的通知，可以模拟发送失败
type recorder struct {
	mu   sync.Mutex
	msgs []*notify.Message
	err  error
}

func (r *recorder) Notify(_ context.Context, msg *notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *recorder) sent() []*notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*notify.Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func (r *recorder) sentTo(to string) int {
	n := 0
	for _, m := range r.sent() {
		if m.To == to {
			n++
		}
	}
	return n
}

type testEnv struct {
	db          *gorm.DB
	notifier    *recorder
	memberRepo  *repository.MemberRepository
	subRepo     *repository.SubscriptionRepository
	paymentRepo *repository.PaymentRepository
	historyRepo *repository.HistoryRepository
	audit       *AuditService
	lifecycle   *LifecycleService
	duplicates  *DuplicateService
	members     *MemberService
	auth        *AuthService
	payments    *PaymentService
	dashboard   *DashboardService
	export      *ExportService
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret-key-for-testing",
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
		},
		Payment: config.PaymentConfig{ServerKey: "server-key"},
	}
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := testConfig()
	rec := &recorder{}
	dispatcher := notify.NewDispatcher(rec, cfg.Lifecycle.NotifyTimeout)

	tx := repository.NewTransaction(db)
	memberRepo := repository.NewMemberRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	audit := NewAuditService(historyRepo)

	return &testEnv{
		db:          db,
		notifier:    rec,
		memberRepo:  memberRepo,
		subRepo:     subRepo,
		paymentRepo: paymentRepo,
		historyRepo: historyRepo,
		audit:       audit,
		lifecycle:   NewLifecycleService(tx, memberRepo, subRepo, paymentRepo, audit, dispatcher, cfg.Lifecycle),
		duplicates:  NewDuplicateService(tx, memberRepo, subRepo, paymentRepo, historyRepo, audit),
		members:     NewMemberService(tx, memberRepo, audit, dispatcher),
		auth:        NewAuthService(tx, memberRepo, paymentRepo, dispatcher, cfg),
		payments:    NewPaymentService(tx, memberRepo, paymentRepo, audit, payment.NewMidtrans(&cfg.Payment)),
		dashboard:   NewDashboardService(memberRepo, subRepo, paymentRepo, cfg.Membership),
		export:      NewExportService(memberRepo, paymentRepo, audit, nil),
	}
}

// at 固定生命周期服务的当前时间
func (e *testEnv) at(now time.Time) {
	e.lifecycle.now = func() time.Time { return now }
}

func (e *testEnv) historyCount(t *testing.T, memberID int64, actionType string) int64 {
	t.Helper()
	var count int64
	q := e.db.Table("action_history").Where("member_id = ?", memberID)
	if actionType != "" {
		q = q.Where("action_type = ?", actionType)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	return count
}

func ptr[T any](v T) *T {
	return &v
}

// metadataID 读取操作记录 metadata 中的 id；读回的 JSON 数字为 json.Number
func metadataID(t *testing.T, entry *model.ActionHistory, key string) int64 {
	t.Helper()
	switch v := entry.Metadata[key].(type) {
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			t.Fatalf("metadata %s: %v", key, err)
		}
		return id
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		t.Fatalf("metadata %s: unexpected %T", key, v)
		return 0
	}
}
