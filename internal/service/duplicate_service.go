package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/repository"
)

// 重复检测维度
const (
	CriterionEmail      = "email"
	CriterionName       = "name"
	CriterionNationalID = "national_id"
	CriterionAll        = "all"
)

type DuplicateService struct {
	tx          *repository.Transaction
	memberRepo  *repository.MemberRepository
	subRepo     *repository.SubscriptionRepository
	paymentRepo *repository.PaymentRepository
	historyRepo *repository.HistoryRepository
	audit       *AuditService
}

func NewDuplicateService(
	tx *repository.Transaction,
	memberRepo *repository.MemberRepository,
	subRepo *repository.SubscriptionRepository,
	paymentRepo *repository.PaymentRepository,
	historyRepo *repository.HistoryRepository,
	audit *AuditService,
) *DuplicateService {
	return &DuplicateService{
		tx:          tx,
		memberRepo:  memberRepo,
		subRepo:     subRepo,
		paymentRepo: paymentRepo,
		historyRepo: historyRepo,
		audit:       audit,
	}
}

// NormalizeEmail 邮箱比较不区分大小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName 名 + 姓，各自去掉首尾空白后转小写
func NormalizeName(first, last string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last)))
}

// FindDuplicates 按维度查找疑似重复的会员，criterion 为空时查找全部维度
func (s *DuplicateService) FindDuplicates(ctx context.Context, criterion string) (*dto.DuplicatesResponse, error) {
	if criterion == "" {
		criterion = CriterionAll
	}
	switch criterion {
	case CriterionEmail, CriterionName, CriterionNationalID, CriterionAll:
	default:
		return nil, ErrInvalidCriterion
	}

	resp := &dto.DuplicatesResponse{
		Duplicates: dto.Duplicates{
			Emails:      []dto.DuplicateGroup{},
			Names:       []dto.DuplicateGroup{},
			NationalIDs: []dto.DuplicateGroup{},
		},
		MemberDetails: map[int64]*dto.MemberInfo{},
	}

	if criterion == CriterionEmail || criterion == CriterionAll {
		rows, err := s.memberRepo.DuplicateEmailRows(ctx)
		if err != nil {
			return nil, internalError(err)
		}
		resp.Duplicates.Emails = groupRows(rows, func(r repository.DuplicateRow) string {
			return NormalizeEmail(r.Email)
		})
	}

	if criterion == CriterionName || criterion == CriterionAll {
		rows, err := s.memberRepo.NameRows(ctx)
		if err != nil {
			return nil, internalError(err)
		}
		resp.Duplicates.Names = groupRows(rows, func(r repository.DuplicateRow) string {
			return NormalizeName(r.FirstName, r.LastName)
		})
	}

	if criterion == CriterionNationalID || criterion == CriterionAll {
		rows, err := s.memberRepo.DuplicateNationalIDRows(ctx)
		if err != nil {
			return nil, internalError(err)
		}
		resp.Duplicates.NationalIDs = groupRows(rows, func(r repository.DuplicateRow) string {
			if r.NationalID == nil {
				return ""
			}
			return *r.NationalID
		})
	}

	affected := map[int64]struct{}{}
	for _, groups := range [][]dto.DuplicateGroup{resp.Duplicates.Emails, resp.Duplicates.Names, resp.Duplicates.NationalIDs} {
		for _, g := range groups {
			for _, id := range g.MemberIDs {
				affected[id] = struct{}{}
			}
		}
	}

	ids := make([]int64, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}
	members, err := s.memberRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, internalError(err)
	}
	for _, m := range members {
		resp.MemberDetails[m.ID] = buildMemberInfo(m)
	}

	resp.Summary = dto.DuplicateSummary{
		TotalEmailDuplicates:      len(resp.Duplicates.Emails),
		TotalNameDuplicates:       len(resp.Duplicates.Names),
		TotalNationalIDDuplicates: len(resp.Duplicates.NationalIDs),
		TotalAffectedMembers:      len(affected),
	}

	return resp, nil
}

// groupRows 按 key 分组，只保留多于一个成员的组；空 key 不参与分组
func groupRows(rows []repository.DuplicateRow, key func(repository.DuplicateRow) string) []dto.DuplicateGroup {
	byKey := map[string][]int64{}
	for _, r := range rows {
		k := key(r)
		if k == "" {
			continue
		}
		byKey[k] = append(byKey[k], r.ID)
	}

	groups := make([]dto.DuplicateGroup, 0)
	for k, ids := range byKey {
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		groups = append(groups, dto.DuplicateGroup{Value: k, Count: len(ids), MemberIDs: ids})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Value < groups[j].Value
	})
	return groups
}

// MergeGroup 把 sourceIDs 的订阅、支付、操作记录转给 targetID 并删除 sourceIDs，不可撤销。
// 相关会员行按 id 顺序加锁，与之重叠的并发合并会在锁上排队，后到者发现会员已不存在时返回冲突
func (s *DuplicateService) MergeGroup(ctx context.Context, targetID int64, sourceIDs []int64, performedBy *int64) (*dto.MergeResponse, error) {
	sources := uniqueIDs(sourceIDs)
	if len(sources) == 0 {
		return nil, ErrNoSourceMembers
	}
	for _, id := range sources {
		if id == targetID {
			return nil, ErrTargetInSources
		}
	}

	all := append([]int64{targetID}, sources...)
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	existing, err := s.memberRepo.GetByIDs(ctx, all)
	if err != nil {
		return nil, internalError(err)
	}
	if len(existing) != len(all) {
		return nil, ErrMergeMemberMissing
	}

	resp := &dto.MergeResponse{TargetMemberID: targetID, MergedMemberIDs: sources}

	err = s.tx.Exec(ctx, func(ctx context.Context) error {
		locked, err := s.memberRepo.LockByIDs(ctx, all)
		if err != nil {
			return err
		}
		if len(locked) != len(all) {
			return ErrMergeConcurrent
		}
		byID := make(map[int64]*model.Member, len(locked))
		for _, m := range locked {
			byID[m.ID] = m
		}
		target := byID[targetID]

		// 被删除的来源里有超级管理员时，合并后仍需至少保留一个
		var removedAdmins int64
		for _, id := range sources {
			if byID[id].IsSuperAdmin() {
				removedAdmins++
			}
		}
		if removedAdmins > 0 && !target.IsSuperAdmin() {
			count, err := s.memberRepo.LockByRole(ctx, model.RoleSuperAdmin)
			if err != nil {
				return err
			}
			if count-removedAdmins < 1 {
				return ErrLastSuperAdmin
			}
		}

		if resp.SubscriptionsMoved, err = s.subRepo.ReassignMember(ctx, sources, targetID); err != nil {
			return err
		}
		if resp.PaymentsMoved, err = s.paymentRepo.ReassignMember(ctx, sources, targetID); err != nil {
			return err
		}
		if resp.HistoryEntriesMoved, err = s.historyRepo.ReassignMember(ctx, sources, targetID); err != nil {
			return err
		}

		deleted, err := s.memberRepo.DeleteByIDs(ctx, sources)
		if err != nil {
			return err
		}
		if deleted != int64(len(sources)) {
			return ErrMergeConcurrent
		}

		// 转入的订阅可能成为目标的最新订阅，member_type 跟随最新的有效订阅
		resp.TargetMemberType = target.MemberType
		latest, err := s.subRepo.Latest(ctx, targetID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if latest != nil && latest.IsActive() && latest.MemberType != target.MemberType {
			if _, err := s.memberRepo.UpdateMemberType(ctx, targetID, latest.MemberType); err != nil {
				return err
			}
			resp.TargetMemberType = latest.MemberType
		}

		for _, id := range sources {
			src := byID[id]
			if _, err := s.audit.Record(ctx, targetID, model.ActionMemberMerge,
				fmt.Sprintf("Merged member %d (%s) into %d", id, src.Email, targetID), performedBy,
				map[string]interface{}{
					"source_member_id":     id,
					"target_member_id":     targetID,
					"source_email":         src.Email,
					"previous_member_type": target.MemberType,
					"member_type":          resp.TargetMemberType,
				}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, internalError(err)
	}

	return resp, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
