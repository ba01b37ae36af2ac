package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/pkg/payment"
	"github.com/qs3c/members_server/internal/repository"
)

const paymentMethodOnline = "online"

type PaymentService struct {
	tx          *repository.Transaction
	memberRepo  *repository.MemberRepository
	paymentRepo *repository.PaymentRepository
	audit       *AuditService
	provider    payment.Provider
	now         func() time.Time
}

func NewPaymentService(
	tx *repository.Transaction,
	memberRepo *repository.MemberRepository,
	paymentRepo *repository.PaymentRepository,
	audit *AuditService,
	provider payment.Provider,
) *PaymentService {
	return &PaymentService{
		tx:          tx,
		memberRepo:  memberRepo,
		paymentRepo: paymentRepo,
		audit:       audit,
		provider:    provider,
		now:         time.Now,
	}
}

// ListForMember 会员的支付记录
func (s *PaymentService) ListForMember(ctx context.Context, memberID int64) ([]*model.Payment, error) {
	if _, err := s.memberRepo.GetByID(ctx, memberID); err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound)
	}
	payments, err := s.paymentRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, internalError(err)
	}
	return payments, nil
}

// Record 管理员登记一笔已完成的线下付款
func (s *PaymentService) Record(ctx context.Context, req *dto.RecordPaymentRequest, performedBy *int64) (*model.Payment, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	p := &model.Payment{
		MemberID:       req.MemberID,
		SubscriptionID: req.SubscriptionID,
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  model.PaymentStatusCompleted,
		PaymentDate:    s.now().UTC(),
		Notes:          req.Notes,
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = model.DefaultPaymentMethod
	}

	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		if _, err := s.memberRepo.GetByID(ctx, req.MemberID); err != nil {
			return notFoundOr(err, ErrMemberNotFound)
		}
		if err := s.paymentRepo.Create(ctx, p); err != nil {
			return err
		}
		_, err := s.audit.Record(ctx, req.MemberID, model.ActionPaymentRecord,
			fmt.Sprintf("Payment recorded: %.2f via %s", p.Amount, p.PaymentMethod), performedBy,
			map[string]interface{}{
				"payment_id":     p.ID,
				"amount":         p.Amount,
				"payment_method": p.PaymentMethod,
			})
		return err
	})
	if err != nil {
		return nil, internalError(err)
	}
	return p, nil
}

// CreateIntent 生成订单号并向支付渠道下单，本地先记一笔 pending 支付
func (s *PaymentService) CreateIntent(ctx context.Context, memberID int64, amount float64) (*dto.CreateIntentResponse, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound)
	}

	orderID := uuid.NewString()
	intent, err := s.provider.CreateIntent(ctx, orderID, amount, payment.Customer{
		FirstName: member.FirstName,
		LastName:  member.LastName,
		Email:     member.Email,
		Phone:     member.Phone,
	})
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			return nil, ErrPaymentDisabled
		}
		return nil, internalError(err)
	}

	ref := orderID
	p := &model.Payment{
		MemberID:      memberID,
		Amount:        amount,
		PaymentMethod: paymentMethodOnline,
		PaymentStatus: model.PaymentStatusPending,
		PaymentDate:   s.now().UTC(),
		ExternalRef:   &ref,
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		return nil, internalError(err)
	}

	return &dto.CreateIntentResponse{
		OrderID:     orderID,
		Token:       intent.Token,
		RedirectURL: intent.RedirectURL,
	}, nil
}

// HandleWebhook 校验签名后把 pending 支付置为终态；重复通知不会再次修改
func (s *PaymentService) HandleWebhook(ctx context.Context, n *payment.Notification) (*model.Payment, error) {
	if err := s.provider.VerifyNotification(n); err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			return nil, ErrPaymentDisabled
		}
		return nil, ErrInvalidSignature
	}

	p, err := s.paymentRepo.GetByExternalRef(ctx, n.OrderID)
	if err != nil {
		return nil, notFoundOr(err, ErrPaymentNotFound)
	}

	outcome := n.Outcome()
	if outcome == payment.OutcomePending {
		return p, nil
	}

	err = s.tx.Exec(ctx, func(ctx context.Context) error {
		changed, err := s.paymentRepo.SettlePending(ctx, p.ID, outcome)
		if err != nil {
			return err
		}
		if !changed {
			current, err := s.paymentRepo.GetByID(ctx, p.ID)
			if err != nil {
				return err
			}
			p = current
			if current.PaymentStatus != outcome {
				return ErrPaymentAlreadySettled
			}
			return nil
		}

		p.PaymentStatus = outcome
		_, err = s.audit.Record(ctx, p.MemberID, model.ActionPaymentRecord,
			fmt.Sprintf("Online payment %s: %s", n.OrderID, outcome), nil,
			map[string]interface{}{
				"payment_id":         p.ID,
				"order_id":           n.OrderID,
				"transaction_id":     n.TransactionID,
				"transaction_status": n.TransactionStatus,
				"payment_type":       n.PaymentType,
			})
		return err
	})
	if err != nil {
		return nil, internalError(err)
	}

	log.Printf("[payment] order %s settled as %s", n.OrderID, p.PaymentStatus)
	return p, nil
}
