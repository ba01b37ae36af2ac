package model

import (
	"time"
)

const (
	SubscriptionStatusActive  = "active"
	SubscriptionStatusExpired = "expired"
)

type Subscription struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	MemberID       int64     `gorm:"not null;index" json:"member_id"`
	MemberType     string    `gorm:"size:20;not null" json:"member_type"`
	DurationMonths int       `gorm:"not null" json:"duration_months"`
	Price          float64   `gorm:"type:decimal(10,2)" json:"price"`
	StartDate      time.Time `gorm:"not null" json:"start_date"`
	EndDate        time.Time `gorm:"not null;index" json:"end_date"`
	Status         string    `gorm:"size:20;default:active;index" json:"status"` // active, expired
	AutoRenew      bool      `gorm:"default:false" json:"auto_renew"`
	ReminderSent   bool      `gorm:"default:false" json:"reminder_sent"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}
