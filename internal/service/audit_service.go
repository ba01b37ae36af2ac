package service

import (
	"context"

	"gorm.io/datatypes"

	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/repository"
)

// AuditService 操作记录，只追加
type AuditService struct {
	historyRepo *repository.HistoryRepository
}

func NewAuditService(historyRepo *repository.HistoryRepository) *AuditService {
	return &AuditService{historyRepo: historyRepo}
}

// Record 写入一条操作记录；ctx 处于事务中时随事务提交或回滚
func (s *AuditService) Record(ctx context.Context, memberID int64, actionType, description string, performedBy *int64, metadata map[string]interface{}) (*model.ActionHistory, error) {
	entry := &model.ActionHistory{
		MemberID:          memberID,
		ActionType:        actionType,
		ActionDescription: description,
		PerformedBy:       performedBy,
	}
	if len(metadata) > 0 {
		entry.Metadata = datatypes.JSONMap(metadata)
	}

	if err := s.historyRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListForMember 最新的在前
func (s *AuditService) ListForMember(ctx context.Context, memberID int64) ([]*model.ActionHistory, error) {
	entries, err := s.historyRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, internalError(err)
	}
	return entries, nil
}
