package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/qs3c/members_server/config"
	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/pkg/email"
	"github.com/qs3c/members_server/internal/pkg/lock"
	"github.com/qs3c/members_server/internal/pkg/notify"
	"github.com/qs3c/members_server/internal/repository"
)

const sweepLockName = "lock:lifecycle:daily_sweep"

// 到期日来源
const (
	ExpirySourceSubscription = "subscription"
	ExpirySourceAnchor       = "anchor"
)

// LifecycleService 订阅生命周期：到期计算、提醒、过期降级、开通与升级
type LifecycleService struct {
	tx          *repository.Transaction
	memberRepo  *repository.MemberRepository
	subRepo     *repository.SubscriptionRepository
	paymentRepo *repository.PaymentRepository
	audit       *AuditService
	dispatcher  *notify.Dispatcher
	locker      lock.Locker
	cfg         config.LifecycleConfig
	now         func() time.Time
}

func NewLifecycleService(
	tx *repository.Transaction,
	memberRepo *repository.MemberRepository,
	subRepo *repository.SubscriptionRepository,
	paymentRepo *repository.PaymentRepository,
	audit *AuditService,
	dispatcher *notify.Dispatcher,
	cfg config.LifecycleConfig,
) *LifecycleService {
	return &LifecycleService{
		tx:          tx,
		memberRepo:  memberRepo,
		subRepo:     subRepo,
		paymentRepo: paymentRepo,
		audit:       audit,
		dispatcher:  dispatcher,
		locker:      lock.Noop{},
		cfg:         cfg,
		now:         time.Now,
	}
}

// WithLocker 多实例部署时保证每日检查只在一个实例上运行
func (s *LifecycleService) WithLocker(l lock.Locker) *LifecycleService {
	if l != nil {
		s.locker = l
	}
	return s
}

// AddMonths 加月份，目标月没有该日时取月末（1 月 31 日 + 1 月 = 2 月 28/29 日）
func AddMonths(t time.Time, months int) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return first.AddDate(0, 0, d-1)
}

// AnchorExpiry 没有订阅记录的正式会员：注册日 + 1 年
func AnchorExpiry(createdAt time.Time) time.Time {
	return AddMonths(createdAt, 12)
}

// SubscriptionEndDate 订阅开始日 + 时长
func SubscriptionEndDate(start time.Time, durationMonths int) time.Time {
	return AddMonths(start, durationMonths)
}

// SubscriptionExpiry 订阅的到期日以 end_date 为准，管理员可能手动调整过
func SubscriptionExpiry(sub *model.Subscription) time.Time {
	return sub.EndDate.UTC()
}

// daysRemaining 向上取整的剩余天数，已过期为负
func daysRemaining(now, expiresAt time.Time) int {
	return int(math.Ceil(expiresAt.Sub(now).Hours() / 24))
}

// deriveExpiry 统一的到期日推导：有订阅取最近一条的 end_date，否则正式会员取注册日 + 1 年
func deriveExpiry(member *model.Member, latest *model.Subscription) (*time.Time, string) {
	if latest != nil {
		exp := SubscriptionExpiry(latest)
		return &exp, ExpirySourceSubscription
	}
	if member.MemberType == model.MemberTypeRegular {
		exp := AnchorExpiry(member.CreatedAt)
		return &exp, ExpirySourceAnchor
	}
	return nil, ""
}

// ComputeExpiry 计算会员的到期日，supporter 且无订阅时为空
func (s *LifecycleService) ComputeExpiry(ctx context.Context, memberID int64) (*dto.MemberExpiry, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound)
	}

	latest, err := s.latestSubscription(ctx, memberID)
	if err != nil {
		return nil, internalError(err)
	}

	result := &dto.MemberExpiry{MemberID: memberID}
	expiresAt, source := deriveExpiry(member, latest)
	if expiresAt != nil {
		days := daysRemaining(s.now().UTC(), *expiresAt)
		result.ExpiresAt = expiresAt
		result.DaysRemaining = &days
		result.Source = source
	}
	return result, nil
}

// ListExpiringSoon 已审核的正式会员中到期日落在 [now, now+windowDays] 的，按到期日升序
func (s *LifecycleService) ListExpiringSoon(ctx context.Context, windowDays int) ([]*dto.ExpiringMember, error) {
	if windowDays < 0 {
		return nil, ErrInvalidWindow
	}

	now := s.now().UTC()
	until := now.AddDate(0, 0, windowDays)

	members, err := s.memberRepo.ListApprovedByType(ctx, model.MemberTypeRegular)
	if err != nil {
		return nil, internalError(err)
	}

	subs, err := s.subRepo.ListLatest(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	latestByMember := make(map[int64]*model.Subscription, len(subs))
	for _, sub := range subs {
		latestByMember[sub.MemberID] = sub
	}

	result := make([]*dto.ExpiringMember, 0)
	for _, member := range members {
		latest := latestByMember[member.ID]
		if latest != nil && !latest.IsActive() {
			continue
		}

		expiresAt, source := deriveExpiry(member, latest)
		if expiresAt == nil || expiresAt.Before(now) || expiresAt.After(until) {
			continue
		}

		item := &dto.ExpiringMember{
			Member:        buildMemberInfo(member),
			ExpiresAt:     *expiresAt,
			DaysRemaining: daysRemaining(now, *expiresAt),
			Source:        source,
		}
		if latest != nil {
			id := latest.ID
			item.SubscriptionID = &id
		}
		result = append(result, item)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].ExpiresAt.Equal(result[j].ExpiresAt) {
			return result[i].Member.ID < result[j].Member.ID
		}
		return result[i].ExpiresAt.Before(result[j].ExpiresAt)
	})

	return result, nil
}

// SendExpiryReminder 发送到期提醒；只有发送成功后才置位 reminder_sent，返回是否由本次置位
func (s *LifecycleService) SendExpiryReminder(ctx context.Context, subscriptionID int64) (bool, error) {
	sub, err := s.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return false, notFoundOr(err, ErrSubscriptionNotFound)
	}
	if sub.ReminderSent || !sub.IsActive() {
		return false, nil
	}

	member, err := s.memberRepo.GetByID(ctx, sub.MemberID)
	if err != nil {
		return false, notFoundOr(err, ErrMemberNotFound)
	}

	if err := s.dispatcher.Send(ctx, email.ExpiryReminder(member.Email, member.FullName(), sub.EndDate)); err != nil {
		return false, fmt.Errorf("send reminder: %w", err)
	}

	marked, err := s.subRepo.MarkReminderSent(ctx, sub.ID)
	if err != nil {
		return false, internalError(err)
	}
	return marked, nil
}

// SendExpiryReminders 给窗口内未提醒的订阅发送提醒，单条失败不影响其余
func (s *LifecycleService) SendExpiryReminders(ctx context.Context, windowDays int) (sent, failed int, err error) {
	if windowDays < 0 {
		return 0, 0, ErrInvalidWindow
	}

	now := s.now().UTC()
	subs, err := s.subRepo.ListReminderCandidates(ctx, now, now.AddDate(0, 0, windowDays))
	if err != nil {
		return 0, 0, internalError(err)
	}

	for _, sub := range subs {
		marked, err := s.SendExpiryReminder(ctx, sub.ID)
		if err != nil {
			log.Printf("[lifecycle] reminder failed: member=%d subscription=%d err=%v", sub.MemberID, sub.ID, err)
			failed++
			continue
		}
		if marked {
			sent++
		}
	}

	return sent, failed, nil
}

// ExpireAndDowngrade 把已过期的 active 订阅置为 expired；若为会员最近一条订阅且会员不是 supporter，降级并记录。
// 每条订阅单独一个事务，重复执行不会产生新的变更
func (s *LifecycleService) ExpireAndDowngrade(ctx context.Context) (*dto.SweepResponse, error) {
	now := s.now().UTC()
	subs, err := s.subRepo.ListLapsed(ctx, now)
	if err != nil {
		return nil, internalError(err)
	}

	result := &dto.SweepResponse{}
	for _, sub := range subs {
		expired, downgraded, err := s.expireOne(ctx, sub)
		if err != nil {
			log.Printf("[lifecycle] expire failed: member=%d subscription=%d err=%v", sub.MemberID, sub.ID, err)
			result.Failed++
			continue
		}
		if expired {
			result.Expired++
		}
		if downgraded != nil {
			result.Downgraded++
			s.dispatcher.Fire(ctx, email.SubscriptionExpired(downgraded.Email, downgraded.FullName(), model.MemberTypeSupporter))
		}
	}

	return result, nil
}

func (s *LifecycleService) expireOne(ctx context.Context, sub *model.Subscription) (bool, *model.Member, error) {
	var expired bool
	var downgraded *model.Member

	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		changed, err := s.subRepo.MarkExpired(ctx, sub.ID)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		expired = true

		isLatest, err := s.subRepo.IsLatest(ctx, sub.MemberID, sub.ID)
		if err != nil {
			return err
		}
		if !isLatest {
			return nil
		}

		member, err := s.memberRepo.GetByID(ctx, sub.MemberID)
		if err != nil {
			return err
		}
		if member.MemberType == model.MemberTypeSupporter {
			return nil
		}

		previous := member.MemberType
		if err := s.memberRepo.UpdateFields(ctx, member.ID, map[string]interface{}{
			"member_type": model.MemberTypeSupporter,
		}); err != nil {
			return err
		}

		if _, err := s.audit.Record(ctx, member.ID, model.ActionAutoConversion,
			fmt.Sprintf("Subscription expired, auto-converted to %s", model.MemberTypeSupporter), nil,
			map[string]interface{}{
				"old_subscription_id":  sub.ID,
				"previous_member_type": previous,
			}); err != nil {
			return err
		}

		member.MemberType = model.MemberTypeSupporter
		downgraded = member
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return expired, downgraded, nil
}

// RunDailySweep 每日检查：先提醒再过期降级
func (s *LifecycleService) RunDailySweep(ctx context.Context) (*dto.SweepResponse, error) {
	ttl := s.cfg.SweepLockTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	release, err := s.locker.Acquire(ctx, sweepLockName, ttl)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, ErrSweepInProgress
		}
		return nil, internalError(err)
	}
	defer release()

	window := s.cfg.ReminderWindowDays
	if window <= 0 {
		window = 10
	}

	sent, failed, err := s.SendExpiryReminders(ctx, window)
	if err != nil {
		return nil, err
	}

	result, err := s.ExpireAndDowngrade(ctx)
	if err != nil {
		return nil, err
	}
	result.RemindersSent = sent
	result.Failed += failed

	log.Printf("[lifecycle] daily sweep done: reminders=%d expired=%d downgraded=%d failed=%d",
		result.RemindersSent, result.Expired, result.Downgraded, result.Failed)
	return result, nil
}

// IssueSubscription 管理员开通订阅，会员类型同步为订阅类型
func (s *LifecycleService) IssueSubscription(ctx context.Context, req *dto.IssueSubscriptionRequest, performedBy *int64) (*model.Subscription, error) {
	if req.DurationMonths <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if !model.IsValidMemberType(req.MemberType) {
		return nil, ErrInvalidMemberType
	}

	start := req.StartDate.UTC()
	if req.StartDate.IsZero() {
		start = s.now().UTC()
	}

	sub := &model.Subscription{
		MemberID:       req.MemberID,
		MemberType:     req.MemberType,
		DurationMonths: req.DurationMonths,
		Price:          req.Price,
		StartDate:      start,
		EndDate:        SubscriptionEndDate(start, req.DurationMonths),
		Status:         model.SubscriptionStatusActive,
		AutoRenew:      true,
	}

	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		if _, err := s.memberRepo.GetByID(ctx, req.MemberID); err != nil {
			return notFoundOr(err, ErrMemberNotFound)
		}
		if err := s.subRepo.Create(ctx, sub); err != nil {
			return err
		}
		if _, err := s.memberRepo.UpdateMemberType(ctx, req.MemberID, req.MemberType); err != nil {
			return err
		}
		_, err := s.audit.Record(ctx, req.MemberID, model.ActionSubscriptionCreate,
			fmt.Sprintf("Subscription created: %s for %d months", req.MemberType, req.DurationMonths), performedBy,
			map[string]interface{}{
				"subscription_id": sub.ID,
				"member_type":     req.MemberType,
				"duration_months": req.DurationMonths,
				"price":           req.Price,
			})
		return err
	})
	if err != nil {
		return nil, internalError(err)
	}

	return sub, nil
}

// UpdateSubscription 管理员修改订阅，过期的订阅不能重新激活
func (s *LifecycleService) UpdateSubscription(ctx context.Context, id int64, req *dto.UpdateSubscriptionRequest, performedBy *int64) (*model.Subscription, error) {
	if req.DurationMonths != nil && *req.DurationMonths <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if req.MemberType != nil && !model.IsValidMemberType(*req.MemberType) {
		return nil, ErrInvalidMemberType
	}
	if req.Status != nil && *req.Status != model.SubscriptionStatusActive && *req.Status != model.SubscriptionStatusExpired {
		return nil, ErrInvalidStatus
	}

	var updated *model.Subscription
	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		sub, err := s.subRepo.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, ErrSubscriptionNotFound)
		}

		if req.Status != nil && *req.Status == model.SubscriptionStatusActive && !sub.IsActive() {
			return ErrSubscriptionExpired
		}

		fields := map[string]interface{}{}
		if req.MemberType != nil && *req.MemberType != sub.MemberType {
			fields["member_type"] = *req.MemberType
		}
		if req.DurationMonths != nil && *req.DurationMonths != sub.DurationMonths {
			fields["duration_months"] = *req.DurationMonths
			if req.EndDate == nil {
				fields["end_date"] = SubscriptionEndDate(sub.StartDate, *req.DurationMonths)
			}
		}
		if req.Price != nil && *req.Price != sub.Price {
			fields["price"] = *req.Price
		}
		if req.EndDate != nil && !req.EndDate.Equal(sub.EndDate) {
			fields["end_date"] = req.EndDate.UTC()
		}
		if req.Status != nil && *req.Status != sub.Status {
			fields["status"] = *req.Status
		}
		if len(fields) == 0 {
			updated = sub
			return nil
		}

		if err := s.subRepo.UpdateFields(ctx, id, fields); err != nil {
			return err
		}

		if mt, ok := fields["member_type"].(string); ok && sub.IsActive() {
			isLatest, err := s.subRepo.IsLatest(ctx, sub.MemberID, sub.ID)
			if err != nil {
				return err
			}
			if isLatest {
				if _, err := s.memberRepo.UpdateMemberType(ctx, sub.MemberID, mt); err != nil {
					return err
				}
			}
		}

		changes := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			changes[k] = v
		}
		if _, err := s.audit.Record(ctx, sub.MemberID, model.ActionSubscriptionUpdate,
			fmt.Sprintf("Subscription %d updated", sub.ID), performedBy,
			map[string]interface{}{
				"subscription_id": sub.ID,
				"changes":         changes,
			}); err != nil {
			return err
		}

		updated, err = s.subRepo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, internalError(err)
	}

	return updated, nil
}

// ManualUpgrade 线下付款升级：订阅、支付、会员类型、操作记录在同一事务中写入
func (s *LifecycleService) ManualUpgrade(ctx context.Context, memberID int64, req *dto.ManualUpgradeRequest, performedBy *int64) (*dto.ManualUpgradeResponse, error) {
	if req.DurationMonths <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.Amount < 0 {
		return nil, ErrInvalidPrice
	}
	if !model.IsValidMemberType(req.MemberType) {
		return nil, ErrInvalidMemberType
	}

	method := req.PaymentMethod
	if method == "" {
		method = model.DefaultPaymentMethod
	}

	now := s.now().UTC()
	var member *model.Member
	var sub *model.Subscription
	var payment *model.Payment

	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		var err error
		member, err = s.memberRepo.GetByID(ctx, memberID)
		if err != nil {
			return notFoundOr(err, ErrMemberNotFound)
		}
		previous := member.MemberType

		sub = &model.Subscription{
			MemberID:       memberID,
			MemberType:     req.MemberType,
			DurationMonths: req.DurationMonths,
			Price:          req.Amount,
			StartDate:      now,
			EndDate:        SubscriptionEndDate(now, req.DurationMonths),
			Status:         model.SubscriptionStatusActive,
			AutoRenew:      false,
		}
		if err := s.subRepo.Create(ctx, sub); err != nil {
			return err
		}

		subID := sub.ID
		payment = &model.Payment{
			MemberID:       memberID,
			SubscriptionID: &subID,
			Amount:         req.Amount,
			PaymentMethod:  method,
			PaymentStatus:  model.PaymentStatusCompleted,
			PaymentDate:    now,
			Notes:          req.Notes,
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return err
		}

		if err := s.memberRepo.UpdateFields(ctx, memberID, map[string]interface{}{
			"member_type": req.MemberType,
		}); err != nil {
			return err
		}
		member.MemberType = req.MemberType

		_, err = s.audit.Record(ctx, memberID, model.ActionManualUpgrade,
			fmt.Sprintf("Manual upgrade to %s for %d months", req.MemberType, req.DurationMonths), performedBy,
			map[string]interface{}{
				"subscription_id":      sub.ID,
				"payment_id":           payment.ID,
				"amount":               req.Amount,
				"payment_method":       method,
				"previous_member_type": previous,
			})
		return err
	})
	if err != nil {
		return nil, internalError(err)
	}

	s.dispatcher.Fire(ctx, email.SubscriptionConfirmed(member.Email, member.FullName(), sub.MemberType, sub.EndDate, req.Amount))

	return &dto.ManualUpgradeResponse{Subscription: sub, Payment: payment}, nil
}

// ListSubscriptions 会员的订阅历史，最新的在前
func (s *LifecycleService) ListSubscriptions(ctx context.Context, memberID int64) ([]*model.Subscription, error) {
	if _, err := s.memberRepo.GetByID(ctx, memberID); err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound)
	}
	subs, err := s.subRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, internalError(err)
	}
	return subs, nil
}

// ListLapsed 已过 end_date 但尚未标记过期的订阅
func (s *LifecycleService) ListLapsed(ctx context.Context) ([]*model.Subscription, error) {
	subs, err := s.subRepo.ListLapsed(ctx, s.now().UTC())
	if err != nil {
		return nil, internalError(err)
	}
	return subs, nil
}

func (s *LifecycleService) latestSubscription(ctx context.Context, memberID int64) (*model.Subscription, error) {
	sub, err := s.subRepo.Latest(ctx, memberID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}
