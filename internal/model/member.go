package model

import (
	"strings"
	"time"
)

// 会员类型
const (
	MemberTypeRegular   = "regular"
	MemberTypeSupporter = "supporter"
)

// 角色
const (
	RoleUser       = "user"
	RoleSuperAdmin = "superadmin"
)

// 审核状态
const (
	MemberStatusPending  = "pending"
	MemberStatusApproved = "approved"
	MemberStatusDenied   = "denied"
)

type Member struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	FirstName    string     `gorm:"size:100;not null" json:"first_name"`
	LastName     string     `gorm:"size:100;not null" json:"last_name"`
	FathersName  string     `gorm:"size:100" json:"fathers_name"`
	NationalID   *string    `gorm:"column:national_id;size:50;index" json:"national_id,omitempty"`
	Phone        string     `gorm:"size:30" json:"phone"`
	Address      string     `gorm:"size:255" json:"address"`
	MemberType   string     `gorm:"size:20;default:supporter;index" json:"member_type"`
	Role         string     `gorm:"size:20;default:user;index" json:"role"`
	Status       string     `gorm:"size:20;default:pending;index" json:"status"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	ApprovedBy   *int64     `json:"approved_by,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}

// FullName 名 + 姓
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

func (m *Member) IsSuperAdmin() bool {
	return m.Role == RoleSuperAdmin
}

// IsValidMemberType 校验会员类型
func IsValidMemberType(t string) bool {
	return t == MemberTypeRegular || t == MemberTypeSupporter
}

// IsValidRole 校验角色
func IsValidRole(r string) bool {
	return r == RoleUser || r == RoleSuperAdmin
}
