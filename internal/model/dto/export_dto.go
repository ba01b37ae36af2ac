package dto

import "github.com/qs3c/members_server/internal/model"

// MemberHistorySnapshot 导出单个会员历史的数据
type MemberHistorySnapshot struct {
	Member   *model.Member          `json:"member"`
	History  []*model.ActionHistory `json:"history"`
	Payments []*model.Payment       `json:"payments"`
}

// MembersReportRequest 会员报表筛选条件
type MembersReportRequest struct {
	MemberType    string   `form:"member_type" binding:"omitempty,oneof=regular supporter"`
	ActiveMembers bool     `form:"active_members"`
	Columns       []string `form:"columns"`
}

// ExportResult 渲染好的文件；配置了 OSS 时 URL 为归档地址
type ExportResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url,omitempty"`
	Data     []byte `json:"-"`
}
