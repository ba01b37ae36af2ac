package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/members_server/internal/model"
)

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestMember 创建测试会员（默认已审核的 regular 普通用户）
func TestMember(t *testing.T, db *gorm.DB, opts ...func(*model.Member)) *model.Member {
	t.Helper()

	n := nextSeq()
	member := &model.Member{
		Email:        fmt.Sprintf("member_%d_%d@example.com", n, time.Now().UnixNano()),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
		FirstName:    "Test",
		LastName:     fmt.Sprintf("Member%d", n),
		MemberType:   model.MemberTypeRegular,
		Role:         model.RoleUser,
		Status:       model.MemberStatusApproved,
	}

	for _, opt := range opts {
		opt(member)
	}

	if err := db.Create(member).Error; err != nil {
		t.Fatalf("Failed to create test member: %v", err)
	}

	return member
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.Member) {
	return func(m *model.Member) {
		m.Email = email
	}
}

// WithName 设置姓名
func WithName(first, last string) func(*model.Member) {
	return func(m *model.Member) {
		m.FirstName = first
		m.LastName = last
	}
}

// WithNationalID 设置身份证号
func WithNationalID(id string) func(*model.Member) {
	return func(m *model.Member) {
		m.NationalID = &id
	}
}

// WithMemberType 设置会员类型
func WithMemberType(memberType string) func(*model.Member) {
	return func(m *model.Member) {
		m.MemberType = memberType
	}
}

// WithRole 设置角色
func WithRole(role string) func(*model.Member) {
	return func(m *model.Member) {
		m.Role = role
	}
}

// WithStatus 设置审核状态
func WithStatus(status string) func(*model.Member) {
	return func(m *model.Member) {
		m.Status = status
	}
}

// WithPasswordHash 设置密码哈希
func WithPasswordHash(hash string) func(*model.Member) {
	return func(m *model.Member) {
		m.PasswordHash = hash
	}
}

// WithCreatedAt 设置注册时间
func WithCreatedAt(at time.Time) func(*model.Member) {
	return func(m *model.Member) {
		m.CreatedAt = at
	}
}

// TestSubscription 创建测试订阅
func TestSubscription(t *testing.T, db *gorm.DB, memberID int64, start, end time.Time, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	sub := &model.Subscription{
		MemberID:       memberID,
		MemberType:     model.MemberTypeRegular,
		DurationMonths: 12,
		Price:          100,
		StartDate:      start,
		EndDate:        end,
		Status:         model.SubscriptionStatusActive,
	}

	for _, opt := range opts {
		opt(sub)
	}

	// 零值字段不会覆盖列默认值，status/reminder_sent 单独写回
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}
	if err := db.Model(sub).Updates(map[string]interface{}{
		"status":        sub.Status,
		"reminder_sent": sub.ReminderSent,
	}).Error; err != nil {
		t.Fatalf("Failed to update test subscription: %v", err)
	}

	return sub
}

// WithSubscriptionStatus 设置订阅状态
func WithSubscriptionStatus(status string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

// WithReminderSent 设置提醒标记
func WithReminderSent(sent bool) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.ReminderSent = sent
	}
}

// WithSubscriptionType 设置订阅的会员类型
func WithSubscriptionType(memberType string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.MemberType = memberType
	}
}

// TestPayment 创建测试支付记录
func TestPayment(t *testing.T, db *gorm.DB, memberID int64, amount float64, subscriptionID *int64) *model.Payment {
	t.Helper()

	payment := &model.Payment{
		MemberID:       memberID,
		SubscriptionID: subscriptionID,
		Amount:         amount,
		PaymentMethod:  model.DefaultPaymentMethod,
		PaymentStatus:  model.PaymentStatusCompleted,
		PaymentDate:    time.Now().UTC(),
	}

	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("Failed to create test payment: %v", err)
	}

	return payment
}

// TestHistory 创建测试操作记录
func TestHistory(t *testing.T, db *gorm.DB, memberID int64, actionType string) *model.ActionHistory {
	t.Helper()

	entry := &model.ActionHistory{
		MemberID:          memberID,
		ActionType:        actionType,
		ActionDescription: "test " + actionType,
	}

	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("Failed to create test history: %v", err)
	}

	return entry
}

// Date 构造 UTC 日期
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
