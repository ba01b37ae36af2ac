package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/members_server/internal/model"
)

// TypeCount 按会员类型统计
type TypeCount struct {
	MemberType string
	Count      int64
}

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	return conn(ctx, r.db).Create(sub).Error
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := conn(ctx, r.db).Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return conn(ctx, r.db).Model(&model.Subscription{}).Where("id = ?", id).Updates(fields).Error
}

// ListByMember 最新的在前
func (r *SubscriptionRepository) ListByMember(ctx context.Context, memberID int64) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := conn(ctx, r.db).Where("member_id = ?", memberID).Order("id DESC").Find(&subs).Error
	return subs, err
}

// Latest 会员最近创建的订阅（id 最大），没有订阅时返回 gorm.ErrRecordNotFound
func (r *SubscriptionRepository) Latest(ctx context.Context, memberID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := conn(ctx, r.db).Where("member_id = ?", memberID).Order("id DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) latestIDs(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Subscription{}).Select("MAX(id)").Group("member_id")
}

// ListLatest 每个会员最近的一条订阅
func (r *SubscriptionRepository) ListLatest(ctx context.Context) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	db := conn(ctx, r.db)
	err := db.Where("id IN (?)", r.latestIDs(db)).Order("id ASC").Find(&subs).Error
	return subs, err
}

// ListReminderCandidates 未提醒的有效订阅，是会员最近一条且在 [from, to] 内到期
func (r *SubscriptionRepository) ListReminderCandidates(ctx context.Context, from, to time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	db := conn(ctx, r.db)
	err := db.
		Where("status = ? AND reminder_sent = ?", model.SubscriptionStatusActive, false).
		Where("end_date >= ? AND end_date <= ?", from, to).
		Where("id IN (?)", r.latestIDs(db)).
		Order("end_date ASC, id ASC").
		Find(&subs).Error
	return subs, err
}

// ListLapsed end_date 早于 now 但仍为 active 的订阅
func (r *SubscriptionRepository) ListLapsed(ctx context.Context, now time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := conn(ctx, r.db).
		Where("status = ? AND end_date < ?", model.SubscriptionStatusActive, now).
		Order("id ASC").
		Find(&subs).Error
	return subs, err
}

// MarkReminderSent 仅当尚未提醒时置位，返回是否由本次调用置位
func (r *SubscriptionRepository) MarkReminderSent(ctx context.Context, id int64) (bool, error) {
	result := conn(ctx, r.db).Model(&model.Subscription{}).
		Where("id = ? AND reminder_sent = ?", id, false).
		Update("reminder_sent", true)
	return result.RowsAffected == 1, result.Error
}

// MarkExpired 仅当仍为 active 时置为 expired，返回是否由本次调用修改
func (r *SubscriptionRepository) MarkExpired(ctx context.Context, id int64) (bool, error) {
	result := conn(ctx, r.db).Model(&model.Subscription{}).
		Where("id = ? AND status = ?", id, model.SubscriptionStatusActive).
		Update("status", model.SubscriptionStatusExpired)
	return result.RowsAffected == 1, result.Error
}

// IsLatest 订阅是否为会员最近的一条
func (r *SubscriptionRepository) IsLatest(ctx context.Context, memberID, id int64) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.Subscription{}).
		Where("member_id = ? AND id > ?", memberID, id).
		Count(&count).Error
	return count == 0, err
}

// ReassignMember 把 fromIDs 的订阅转给 toID
func (r *SubscriptionRepository) ReassignMember(ctx context.Context, fromIDs []int64, toID int64) (int64, error) {
	result := conn(ctx, r.db).Model(&model.Subscription{}).
		Where("member_id IN ?", fromIDs).
		Update("member_id", toID)
	return result.RowsAffected, result.Error
}

func (r *SubscriptionRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.Subscription{}).
		Where("status = ?", model.SubscriptionStatusActive).
		Count(&count).Error
	return count, err
}

// ActiveDistribution 有效订阅按会员类型分布
func (r *SubscriptionRepository) ActiveDistribution(ctx context.Context) ([]TypeCount, error) {
	var rows []TypeCount
	err := conn(ctx, r.db).Model(&model.Subscription{}).
		Select("member_type, COUNT(*) AS count").
		Where("status = ?", model.SubscriptionStatusActive).
		Group("member_type").
		Order("member_type ASC").
		Scan(&rows).Error
	return rows, err
}
