package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/members_server/config"
	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/pkg/email"
	"github.com/qs3c/members_server/internal/pkg/jwt"
	"github.com/qs3c/members_server/internal/pkg/notify"
	"github.com/qs3c/members_server/internal/repository"
)

type AuthService struct {
	tx          *repository.Transaction
	memberRepo  *repository.MemberRepository
	paymentRepo *repository.PaymentRepository
	dispatcher  *notify.Dispatcher
	cfg         *config.Config
}

func NewAuthService(
	tx *repository.Transaction,
	memberRepo *repository.MemberRepository,
	paymentRepo *repository.PaymentRepository,
	dispatcher *notify.Dispatcher,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		tx:          tx,
		memberRepo:  memberRepo,
		paymentRepo: paymentRepo,
		dispatcher:  dispatcher,
		cfg:         cfg,
	}
}

// Register 会员注册，提交后等待管理员审核
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if !model.IsValidMemberType(req.MemberType) {
		return nil, ErrInvalidMemberType
	}
	if req.Amount < 0 {
		return nil, ErrInvalidPrice
	}

	// 检查邮箱是否存在
	exists, err := s.memberRepo.ExistsByEmail(ctx, req.Email, 0)
	if err != nil {
		return nil, internalError(err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	// 加密密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err)
	}

	member := &model.Member{
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hashedPassword),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		FathersName:  req.FathersName,
		NationalID:   optionalString(req.NationalID),
		Phone:        req.Phone,
		Address:      req.Address,
		MemberType:   req.MemberType,
		Role:         model.RoleUser,
		Status:       model.MemberStatusPending,
	}

	err = s.tx.Exec(ctx, func(ctx context.Context) error {
		if err := s.memberRepo.Create(ctx, member); err != nil {
			return err
		}

		// 选择了付费方案：生成待确认的付款，审核时再对账
		if req.DurationMonths > 0 && req.Amount > 0 {
			method := req.PaymentMethod
			if method == "" {
				method = model.DefaultPaymentMethod
			}
			payment := &model.Payment{
				MemberID:      member.ID,
				Amount:        req.Amount,
				PaymentMethod: method,
				PaymentStatus: model.PaymentStatusPending,
				PaymentDate:   time.Now().UTC(),
				Notes:         fmt.Sprintf("Registration: %s for %d months", req.MemberType, req.DurationMonths),
			}
			if err := s.paymentRepo.Create(ctx, payment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, internalError(err)
	}

	if s.cfg.Membership.AdminEmail != "" {
		s.dispatcher.Fire(ctx, email.NewRegistration(s.cfg.Membership.AdminEmail, member.FullName(), member.Email, member.MemberType))
	}
	s.dispatcher.Fire(ctx, email.RegistrationReceived(member.Email, member.FullName()))

	return &dto.RegisterResponse{
		Member: buildMemberInfo(member),
	}, nil
}

// Login 会员登录，未通过审核的普通会员不能登录
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	member, err := s.memberRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, internalError(err)
	}

	// 验证密码
	if member.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !member.IsSuperAdmin() && member.Status != model.MemberStatusApproved {
		return nil, ErrAccountNotApproved
	}

	// 生成 Token
	token, err := jwt.GenerateToken(member.ID, member.Role, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, internalError(err)
	}

	return &dto.LoginResponse{
		Token:  token,
		Member: buildMemberInfo(member),
	}, nil
}

// Me 当前登录会员
func (s *AuthService) Me(ctx context.Context, memberID int64) (*dto.MemberInfo, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound)
	}
	return buildMemberInfo(member), nil
}

// GetMemberByID 根据 ID 获取会员，供中间件校验角色
func (s *AuthService) GetMemberByID(ctx context.Context, id int64) (*model.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound)
	}
	return member, nil
}

func buildMemberInfo(m *model.Member) *dto.MemberInfo {
	info := &dto.MemberInfo{
		ID:          m.ID,
		Email:       m.Email,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		FathersName: m.FathersName,
		Phone:       m.Phone,
		Address:     m.Address,
		MemberType:  m.MemberType,
		Role:        m.Role,
		Status:      m.Status,
		ApprovedAt:  m.ApprovedAt,
		CreatedAt:   m.CreatedAt,
	}

	if m.NationalID != nil {
		info.NationalID = *m.NationalID
	}

	return info
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func generateRandomCode(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
