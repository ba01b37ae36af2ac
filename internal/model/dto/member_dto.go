package dto

import "time"

// MemberInfo 会员信息（返回给前端）
type MemberInfo struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FathersName string     `json:"fathers_name,omitempty"`
	NationalID  string     `json:"national_id,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	MemberType  string     `json:"member_type"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateMemberRequest 管理员手动添加会员
type CreateMemberRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"omitempty,min=8,max=64"`
	FirstName        string `json:"first_name" binding:"required,max=100"`
	LastName         string `json:"last_name" binding:"required,max=100"`
	FathersName      string `json:"fathers_name" binding:"max=100"`
	NationalID       string `json:"national_id" binding:"max=50"`
	Phone            string `json:"phone" binding:"max=30"`
	Address          string `json:"address" binding:"max=255"`
	MemberType       string `json:"member_type" binding:"required,oneof=regular supporter"`
	SendWelcomeEmail bool   `json:"send_welcome_email"`
}

// CreateMemberResponse 手动添加会员响应，未指定密码时返回临时密码
type CreateMemberResponse struct {
	Member            *MemberInfo `json:"member"`
	TemporaryPassword string      `json:"temporary_password,omitempty"`
}

// UpdateMemberRequest 更新会员资料
type UpdateMemberRequest struct {
	Email       *string `json:"email,omitempty" binding:"omitempty,email"`
	FirstName   *string `json:"first_name,omitempty" binding:"omitempty,max=100"`
	LastName    *string `json:"last_name,omitempty" binding:"omitempty,max=100"`
	FathersName *string `json:"fathers_name,omitempty" binding:"omitempty,max=100"`
	NationalID  *string `json:"national_id,omitempty" binding:"omitempty,max=50"`
	Phone       *string `json:"phone,omitempty" binding:"omitempty,max=30"`
	Address     *string `json:"address,omitempty" binding:"omitempty,max=255"`
	MemberType  *string `json:"member_type,omitempty" binding:"omitempty,oneof=regular supporter"`
}

// ChangeRoleRequest 修改角色
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ExpiringMember 即将到期的会员
type ExpiringMember struct {
	Member         *MemberInfo `json:"member"`
	ExpiresAt      time.Time   `json:"expires_at"`
	DaysRemaining  int         `json:"days_remaining"`
	Source         string      `json:"source"` // subscription: 最近一次订阅；anchor: 注册日 + 1 年
	SubscriptionID *int64      `json:"subscription_id,omitempty"`
}

// MemberExpiry 单个会员的到期信息
type MemberExpiry struct {
	MemberID      int64      `json:"member_id"`
	ExpiresAt     *time.Time `json:"expires_at"`
	DaysRemaining *int       `json:"days_remaining,omitempty"`
	Source        string     `json:"source,omitempty"`
}

// DuplicateGroup 重复会员分组
type DuplicateGroup struct {
	Value     string  `json:"value"`
	Count     int     `json:"count"`
	MemberIDs []int64 `json:"member_ids"`
}

// Duplicates 各维度的重复分组
type Duplicates struct {
	Emails      []DuplicateGroup `json:"emails"`
	Names       []DuplicateGroup `json:"names"`
	NationalIDs []DuplicateGroup `json:"national_ids"`
}

// DuplicateSummary 重复统计
type DuplicateSummary struct {
	TotalEmailDuplicates      int `json:"total_email_duplicates"`
	TotalNameDuplicates       int `json:"total_name_duplicates"`
	TotalNationalIDDuplicates int `json:"total_national_id_duplicates"`
	TotalAffectedMembers      int `json:"total_affected_members"`
}

// DuplicatesResponse 重复检测结果
type DuplicatesResponse struct {
	Duplicates    Duplicates            `json:"duplicates"`
	MemberDetails map[int64]*MemberInfo `json:"member_details"`
	Summary       DuplicateSummary      `json:"summary"`
}

// MergeRequest 合并会员
type MergeRequest struct {
	TargetMemberID  int64   `json:"target_member_id" binding:"required"`
	SourceMemberIDs []int64 `json:"source_member_ids" binding:"required,min=1"`
}

// MergeResponse 合并结果
type MergeResponse struct {
	TargetMemberID      int64   `json:"target_member_id"`
	MergedMemberIDs     []int64 `json:"merged_member_ids"`
	SubscriptionsMoved  int64   `json:"subscriptions_moved"`
	PaymentsMoved       int64   `json:"payments_moved"`
	HistoryEntriesMoved int64   `json:"history_entries_moved"`
	TargetMemberType    string  `json:"target_member_type"`
}
