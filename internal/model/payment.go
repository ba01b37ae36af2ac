package model

import (
	"time"
)

const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
)

const DefaultPaymentMethod = "bank_transfer"

type Payment struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	MemberID       int64     `gorm:"not null;index" json:"member_id"`
	SubscriptionID *int64    `gorm:"index" json:"subscription_id,omitempty"`
	Amount         float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod  string    `gorm:"size:30" json:"payment_method"`
	PaymentStatus  string    `gorm:"size:20;default:completed;index" json:"payment_status"` // completed, pending, failed
	PaymentDate    time.Time `json:"payment_date"`
	Notes          string    `gorm:"type:text" json:"notes,omitempty"`
	ExternalRef    *string   `gorm:"size:100;uniqueIndex" json:"external_ref,omitempty"` // 支付渠道订单号
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
