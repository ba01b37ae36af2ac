package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/members_server/internal/model"
)

// HistoryRepository 只追加，不提供更新和删除
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Create(ctx context.Context, entry *model.ActionHistory) error {
	return conn(ctx, r.db).Create(entry).Error
}

// ListByMember 最新的在前
func (r *HistoryRepository) ListByMember(ctx context.Context, memberID int64) ([]*model.ActionHistory, error) {
	var entries []*model.ActionHistory
	err := conn(ctx, r.db).Where("member_id = ?", memberID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

// ReassignMember 合并会员时迁移操作记录
func (r *HistoryRepository) ReassignMember(ctx context.Context, fromIDs []int64, toID int64) (int64, error) {
	result := conn(ctx, r.db).Model(&model.ActionHistory{}).
		Where("member_id IN ?", fromIDs).
		Update("member_id", toID)
	return result.RowsAffected, result.Error
}
