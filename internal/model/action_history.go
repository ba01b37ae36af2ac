package model

import (
	"time"

	"gorm.io/datatypes"
)

// 操作类型
const (
	ActionApproval           = "approval"
	ActionDenial             = "denial"
	ActionPaymentRecord      = "payment_record"
	ActionSubscriptionCreate = "subscription_create"
	ActionSubscriptionUpdate = "subscription_update"
	ActionManualUpgrade      = "manual_upgrade"
	ActionMemberUpdate       = "member_update"
	ActionMemberDeletion     = "member_deletion"
	ActionMemberCreation     = "member_creation"
	ActionRoleChange         = "role_change"
	ActionAutoConversion     = "auto_conversion"
	ActionMemberMerge        = "member_merge"
)

// ActionHistory 只追加的操作记录，随会员删除而删除
type ActionHistory struct {
	ID                int64             `gorm:"primaryKey" json:"id"`
	MemberID          int64             `gorm:"not null;index" json:"member_id"`
	ActionType        string            `gorm:"size:40;not null;index" json:"action_type"`
	ActionDescription string            `gorm:"type:text" json:"action_description"`
	PerformedBy       *int64            `json:"performed_by,omitempty"` // 系统任务为空
	Metadata          datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt         time.Time         `gorm:"index" json:"created_at"`
}

func (ActionHistory) TableName() string {
	return "action_history"
}
