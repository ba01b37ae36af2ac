package repository

import (
	"context"

	"gorm.io/gorm"
)

type contextTxKey struct{}

// Transaction 在 ctx 中传递事务句柄，仓储方法通过 conn 取到同一个 tx
type Transaction struct {
	db *gorm.DB
}

func NewTransaction(db *gorm.DB) *Transaction {
	return &Transaction{db: db}
}

// Exec 执行事务，fn 返回错误时整体回滚；已在事务中时直接复用外层事务
func (t *Transaction) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, contextTxKey{}, tx))
	})
}

// TxFromContext 取出当前事务，不在事务中时返回 nil
func TxFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(contextTxKey{}).(*gorm.DB)
	return tx
}

func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
