package service

import (
	"context"
	"time"

	"github.com/qs3c/members_server/config"
	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/repository"
)

// 会员增长图表的月数
const growthMonths = 6

type DashboardService struct {
	memberRepo  *repository.MemberRepository
	subRepo     *repository.SubscriptionRepository
	paymentRepo *repository.PaymentRepository
	membership  config.MembershipConfig
	now         func() time.Time
}

func NewDashboardService(
	memberRepo *repository.MemberRepository,
	subRepo *repository.SubscriptionRepository,
	paymentRepo *repository.PaymentRepository,
	membership config.MembershipConfig,
) *DashboardService {
	return &DashboardService{
		memberRepo:  memberRepo,
		subRepo:     subRepo,
		paymentRepo: paymentRepo,
		membership:  membership,
		now:         time.Now,
	}
}

// Stats 概览：普通会员总数、待审核、有效订阅、累计收入
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	total, err := s.memberRepo.CountByStatus(ctx, model.RoleUser, "")
	if err != nil {
		return nil, internalError(err)
	}
	pending, err := s.memberRepo.CountByStatus(ctx, "", model.MemberStatusPending)
	if err != nil {
		return nil, internalError(err)
	}
	active, err := s.subRepo.CountActive(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	revenue, err := s.paymentRepo.SumCompleted(ctx)
	if err != nil {
		return nil, internalError(err)
	}

	return &dto.DashboardStats{
		TotalMembers:        total,
		PendingApprovals:    pending,
		ActiveSubscriptions: active,
		TotalRevenue:        revenue,
	}, nil
}

// Charts 最近 6 个月（含当月）的新增会员与有效订阅分布
func (s *DashboardService) Charts(ctx context.Context) (*dto.DashboardCharts, error) {
	now := s.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(growthMonths - 1), 0)

	created, err := s.memberRepo.CreatedSince(ctx, first)
	if err != nil {
		return nil, internalError(err)
	}

	growth := make([]dto.MonthCount, growthMonths)
	index := make(map[string]int, growthMonths)
	for i := 0; i < growthMonths; i++ {
		month := first.AddDate(0, i, 0).Format("2006-01")
		growth[i] = dto.MonthCount{Month: month}
		index[month] = i
	}
	for _, t := range created {
		if i, ok := index[t.UTC().Format("2006-01")]; ok {
			growth[i].Count++
		}
	}

	rows, err := s.subRepo.ActiveDistribution(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	distribution := make([]dto.TypeCount, 0, len(rows))
	for _, r := range rows {
		distribution = append(distribution, dto.TypeCount{MemberType: r.MemberType, Count: r.Count})
	}

	return &dto.DashboardCharts{
		MemberGrowth:             growth,
		SubscriptionDistribution: distribution,
	}, nil
}

// Pricing 会员价格
func (s *DashboardService) Pricing() map[string]config.TierPricing {
	if s.membership.Pricing == nil {
		return map[string]config.TierPricing{}
	}
	return s.membership.Pricing
}

// BankAccounts 线下转账账户
func (s *DashboardService) BankAccounts() []config.BankAccount {
	if s.membership.BankAccounts == nil {
		return []config.BankAccount{}
	}
	return s.membership.BankAccounts
}
