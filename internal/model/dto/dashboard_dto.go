package dto

// DashboardStats 概览统计
type DashboardStats struct {
	TotalMembers        int64   `json:"total_members"`
	PendingApprovals    int64   `json:"pending_approvals"`
	ActiveSubscriptions int64   `json:"active_subscriptions"`
	TotalRevenue        float64 `json:"total_revenue"`
}

// MonthCount 每月新增
type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}

// TypeCount 按会员类型统计
type TypeCount struct {
	MemberType string `json:"member_type"`
	Count      int64  `json:"count"`
}

// DashboardCharts 图表数据
type DashboardCharts struct {
	MemberGrowth             []MonthCount `json:"member_growth"`
	SubscriptionDistribution []TypeCount  `json:"subscription_distribution"`
}
