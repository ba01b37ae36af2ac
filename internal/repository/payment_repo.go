package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/members_server/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return conn(ctx, r.db).Create(payment).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*model.Payment, error) {
	var payment model.Payment
	err := conn(ctx, r.db).Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByExternalRef(ctx context.Context, ref string) (*model.Payment, error) {
	var payment model.Payment
	err := conn(ctx, r.db).Where("external_ref = ?", ref).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByMember 按支付时间倒序
func (r *PaymentRepository) ListByMember(ctx context.Context, memberID int64) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := conn(ctx, r.db).Where("member_id = ?", memberID).
		Order("payment_date DESC, id DESC").
		Find(&payments).Error
	return payments, err
}

// SettlePending 只更新仍为 pending 的支付，返回是否修改
func (r *PaymentRepository) SettlePending(ctx context.Context, id int64, status string) (bool, error) {
	result := conn(ctx, r.db).Model(&model.Payment{}).
		Where("id = ? AND payment_status = ?", id, model.PaymentStatusPending).
		Update("payment_status", status)
	return result.RowsAffected == 1, result.Error
}

// ReassignMember 把 fromIDs 的支付转给 toID
func (r *PaymentRepository) ReassignMember(ctx context.Context, fromIDs []int64, toID int64) (int64, error) {
	result := conn(ctx, r.db).Model(&model.Payment{}).
		Where("member_id IN ?", fromIDs).
		Update("member_id", toID)
	return result.RowsAffected, result.Error
}

// SumCompleted 已完成支付总额
func (r *PaymentRepository) SumCompleted(ctx context.Context) (float64, error) {
	var total float64
	err := conn(ctx, r.db).Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("payment_status = ?", model.PaymentStatusCompleted).
		Scan(&total).Error
	return total, err
}
