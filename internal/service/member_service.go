package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/pkg/email"
	"github.com/qs3c/members_server/internal/pkg/notify"
	"github.com/qs3c/members_server/internal/repository"
)

type MemberService struct {
	tx         *repository.Transaction
	memberRepo *repository.MemberRepository
	audit      *AuditService
	dispatcher *notify.Dispatcher
}

func NewMemberService(
	tx *repository.Transaction,
	memberRepo *repository.MemberRepository,
	audit *AuditService,
	dispatcher *notify.Dispatcher,
) *MemberService {
	return &MemberService{
		tx:         tx,
		memberRepo: memberRepo,
		audit:      audit,
		dispatcher: dispatcher,
	}
}

// List 会员列表
func (s *MemberService) List(ctx context.Context, filter repository.MemberFilter) ([]*dto.MemberInfo, int64, error) {
	members, total, err := s.memberRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, internalError(err)
	}

	items := make([]*dto.MemberInfo, 0, len(members))
	for _, m := range members {
		items = append(items, buildMemberInfo(m))
	}
	return items, total, nil
}

func (s *MemberService) Get(ctx context.Context, id int64) (*dto.MemberInfo, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound)
	}
	return buildMemberInfo(member), nil
}

// History 会员的操作记录
func (s *MemberService) History(ctx context.Context, id int64) ([]*model.ActionHistory, error) {
	if _, err := s.memberRepo.GetByID(ctx, id); err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound)
	}
	return s.audit.ListForMember(ctx, id)
}

// Approve 审核通过
func (s *MemberService) Approve(ctx context.Context, id int64, performedBy *int64) (*dto.MemberInfo, error) {
	member, err := s.review(ctx, id, model.MemberStatusApproved, performedBy)
	if err != nil {
		return nil, err
	}
	s.dispatcher.Fire(ctx, email.Approved(member.Email, member.FullName()))
	return buildMemberInfo(member), nil
}

// Deny 审核拒绝
func (s *MemberService) Deny(ctx context.Context, id int64, performedBy *int64) (*dto.MemberInfo, error) {
	member, err := s.review(ctx, id, model.MemberStatusDenied, performedBy)
	if err != nil {
		return nil, err
	}
	s.dispatcher.Fire(ctx, email.Denied(member.Email, member.FullName()))
	return buildMemberInfo(member), nil
}

func (s *MemberService) review(ctx context.Context, id int64, status string, performedBy *int64) (*model.Member, error) {
	var member *model.Member
	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		locked, err := s.memberRepo.LockByIDs(ctx, []int64{id})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return ErrMemberNotFound
		}
		member = locked[0]
		if member.Status != model.MemberStatusPending {
			return ErrNotPending
		}

		fields := map[string]interface{}{"status": status}
		actionType := model.ActionDenial
		description := "Membership denied"
		if status == model.MemberStatusApproved {
			now := time.Now().UTC()
			fields["approved_at"] = now
			fields["approved_by"] = performedBy
			member.ApprovedAt = &now
			member.ApprovedBy = performedBy
			actionType = model.ActionApproval
			description = "Membership approved"
		}
		if err := s.memberRepo.UpdateFields(ctx, id, fields); err != nil {
			return err
		}
		member.Status = status

		_, err = s.audit.Record(ctx, id, actionType, description, performedBy, nil)
		return err
	})
	if err != nil {
		return nil, internalError(err)
	}
	return member, nil
}

// Update 修改会员资料
func (s *MemberService) Update(ctx context.Context, id int64, req *dto.UpdateMemberRequest, performedBy *int64) (*dto.MemberInfo, error) {
	if req.MemberType != nil && !model.IsValidMemberType(*req.MemberType) {
		return nil, ErrInvalidMemberType
	}

	var member *model.Member
	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		var err error
		member, err = s.memberRepo.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, ErrMemberNotFound)
		}

		changed := make([]string, 0)
		if req.Email != nil {
			newEmail := strings.TrimSpace(*req.Email)
			if !strings.EqualFold(newEmail, member.Email) {
				exists, err := s.memberRepo.ExistsByEmail(ctx, newEmail, id)
				if err != nil {
					return err
				}
				if exists {
					return ErrEmailExists
				}
			}
			if newEmail != member.Email {
				member.Email = newEmail
				changed = append(changed, "email")
			}
		}
		setString(&member.FirstName, req.FirstName, "first_name", &changed)
		setString(&member.LastName, req.LastName, "last_name", &changed)
		setString(&member.FathersName, req.FathersName, "fathers_name", &changed)
		setString(&member.Phone, req.Phone, "phone", &changed)
		setString(&member.Address, req.Address, "address", &changed)
		setString(&member.MemberType, req.MemberType, "member_type", &changed)
		if req.NationalID != nil {
			next := optionalString(*req.NationalID)
			if !equalOptional(member.NationalID, next) {
				member.NationalID = next
				changed = append(changed, "national_id")
			}
		}

		if len(changed) == 0 {
			return nil
		}

		if err := s.memberRepo.Update(ctx, member); err != nil {
			return err
		}

		_, err = s.audit.Record(ctx, id, model.ActionMemberUpdate,
			fmt.Sprintf("Member updated: %s", strings.Join(changed, ", ")), performedBy,
			map[string]interface{}{"fields": changed})
		return err
	})
	if err != nil {
		return nil, internalError(err)
	}
	return buildMemberInfo(member), nil
}

// Delete 删除会员及其订阅、支付、操作记录；删除记录写在操作人名下
func (s *MemberService) Delete(ctx context.Context, id int64, performedBy *int64) error {
	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		member, err := s.memberRepo.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, ErrMemberNotFound)
		}

		if member.IsSuperAdmin() {
			count, err := s.memberRepo.LockByRole(ctx, model.RoleSuperAdmin)
			if err != nil {
				return err
			}
			if count <= 1 {
				return ErrLastSuperAdmin
			}
		}

		if err := s.memberRepo.Delete(ctx, id); err != nil {
			return err
		}

		if performedBy == nil || *performedBy == id {
			return nil
		}
		_, err = s.audit.Record(ctx, *performedBy, model.ActionMemberDeletion,
			fmt.Sprintf("Deleted member %d (%s)", id, member.Email), performedBy,
			map[string]interface{}{
				"deleted_member_id": id,
				"deleted_email":     member.Email,
				"deleted_name":      member.FullName(),
			})
		return err
	})
	return internalError(err)
}

// Create 管理员直接添加会员（已审核），未提供密码时生成临时密码
func (s *MemberService) Create(ctx context.Context, req *dto.CreateMemberRequest, performedBy *int64) (*dto.CreateMemberResponse, error) {
	if !model.IsValidMemberType(req.MemberType) {
		return nil, ErrInvalidMemberType
	}

	password := req.Password
	temporary := ""
	if password == "" {
		code, err := generateRandomCode(12)
		if err != nil {
			return nil, internalError(err)
		}
		password = code
		temporary = code
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err)
	}

	now := time.Now().UTC()
	member := &model.Member{
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hashed),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		FathersName:  req.FathersName,
		NationalID:   optionalString(req.NationalID),
		Phone:        req.Phone,
		Address:      req.Address,
		MemberType:   req.MemberType,
		Role:         model.RoleUser,
		Status:       model.MemberStatusApproved,
		ApprovedAt:   &now,
		ApprovedBy:   performedBy,
	}

	err = s.tx.Exec(ctx, func(ctx context.Context) error {
		exists, err := s.memberRepo.ExistsByEmail(ctx, member.Email, 0)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailExists
		}

		if err := s.memberRepo.Create(ctx, member); err != nil {
			return err
		}

		_, err = s.audit.Record(ctx, member.ID, model.ActionMemberCreation, "Member created by administrator", performedBy,
			map[string]interface{}{"member_type": member.MemberType})
		return err
	})
	if err != nil {
		return nil, internalError(err)
	}

	if req.SendWelcomeEmail {
		s.dispatcher.Fire(ctx, email.Welcome(member.Email, member.FullName(), password))
	}

	return &dto.CreateMemberResponse{
		Member:            buildMemberInfo(member),
		TemporaryPassword: temporary,
	}, nil
}

// ChangeRole 修改角色，至少保留一个超级管理员
func (s *MemberService) ChangeRole(ctx context.Context, id int64, role string, performedBy *int64) (*dto.MemberInfo, error) {
	if !model.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	var member *model.Member
	changed := false
	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		// 先锁住全部超级管理员行，并发降级时后到者看到的是提交后的数量
		count, err := s.memberRepo.LockByRole(ctx, model.RoleSuperAdmin)
		if err != nil {
			return err
		}

		member, err = s.memberRepo.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, ErrMemberNotFound)
		}
		if member.Role == role {
			return nil
		}
		if member.IsSuperAdmin() && count <= 1 {
			return ErrLastSuperAdmin
		}

		previous := member.Role
		if err := s.memberRepo.UpdateFields(ctx, id, map[string]interface{}{"role": role}); err != nil {
			return err
		}
		member.Role = role
		changed = true

		_, err = s.audit.Record(ctx, id, model.ActionRoleChange,
			fmt.Sprintf("Role changed from %s to %s", previous, role), performedBy,
			map[string]interface{}{
				"old_role": previous,
				"new_role": role,
			})
		return err
	})
	if err != nil {
		return nil, internalError(err)
	}

	if changed {
		s.dispatcher.Fire(ctx, email.RoleChanged(member.Email, member.FullName(), role))
	}
	return buildMemberInfo(member), nil
}

func setString(dst *string, src *string, field string, changed *[]string) {
	if src == nil || *src == *dst {
		return
	}
	*dst = *src
	*changed = append(*changed, field)
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
