package dto

import (
	"time"

	"github.com/qs3c/members_server/internal/model"
)

// IssueSubscriptionRequest 管理员创建订阅
type IssueSubscriptionRequest struct {
	MemberID       int64     `json:"member_id" binding:"required"`
	MemberType     string    `json:"member_type" binding:"required,oneof=regular supporter"`
	DurationMonths int       `json:"duration_months"`
	Price          float64   `json:"price"`
	StartDate      time.Time `json:"start_date"`
}

// UpdateSubscriptionRequest 管理员修改订阅
type UpdateSubscriptionRequest struct {
	MemberType     *string    `json:"member_type,omitempty" binding:"omitempty,oneof=regular supporter"`
	DurationMonths *int       `json:"duration_months,omitempty"`
	Price          *float64   `json:"price,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Status         *string    `json:"status,omitempty" binding:"omitempty,oneof=active expired"`
}

// ManualUpgradeRequest 手动升级（线下付款）
type ManualUpgradeRequest struct {
	MemberType     string  `json:"member_type" binding:"required,oneof=regular supporter"`
	DurationMonths int     `json:"duration_months"`
	Amount         float64 `json:"amount"`
	PaymentMethod  string  `json:"payment_method"`
	Notes          string  `json:"notes"`
}

// ManualUpgradeResponse 升级产生的订阅与支付
type ManualUpgradeResponse struct {
	Subscription *model.Subscription `json:"subscription"`
	Payment      *model.Payment      `json:"payment"`
}

// SweepResponse 每日检查结果
type SweepResponse struct {
	RemindersSent int `json:"reminders_sent"`
	Expired       int `json:"expired"`
	Downgraded    int `json:"downgraded"`
	Failed        int `json:"failed"`
}
