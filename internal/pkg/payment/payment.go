package payment

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured    = errors.New("payment provider not configured")
	ErrInvalidSignature = errors.New("invalid notification signature")
)

// 支付结果
const (
	OutcomeCompleted = "completed"
	OutcomePending   = "pending"
	OutcomeFailed    = "failed"
)

// Customer 付款人信息
type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Intent 客户端完成支付所需的凭证
type Intent struct {
	OrderID     string
	Token       string
	RedirectURL string
}

// Notification 支付渠道回调
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, failure
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
}

// Outcome 渠道状态映射为本地支付状态
func (n *Notification) Outcome() string {
	switch n.TransactionStatus {
	case "settlement":
		return OutcomeCompleted
	case "capture":
		if n.FraudStatus == "" || n.FraudStatus == "accept" {
			return OutcomeCompleted
		}
		if n.FraudStatus == "deny" {
			return OutcomeFailed
		}
		return OutcomePending
	case "deny", "cancel", "expire", "failure":
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

// Provider 在线支付渠道
type Provider interface {
	CreateIntent(ctx context.Context, orderID string, amount float64, customer Customer) (*Intent, error)
	VerifyNotification(n *Notification) error
}
