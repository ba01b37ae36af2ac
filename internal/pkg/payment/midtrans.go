package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/qs3c/members_server/config"
)

// Midtrans Snap 支付
type Midtrans struct {
	serverKey string
	client    snap.Client
}

func NewMidtrans(cfg *config.PaymentConfig) *Midtrans {
	m := &Midtrans{serverKey: cfg.ServerKey}
	if cfg.ServerKey == "" {
		return m
	}
	if cfg.Production {
		m.client.New(cfg.ServerKey, midtrans.Production)
	} else {
		m.client.New(cfg.ServerKey, midtrans.Sandbox)
	}
	return m
}

func (m *Midtrans) CreateIntent(ctx context.Context, orderID string, amount float64, customer Customer) (*Intent, error) {
	if m.serverKey == "" {
		return nil, ErrNotConfigured
	}
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gross := int64(math.Round(amount))
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customer.FirstName,
			LName: customer.LastName,
			Email: customer.Email,
			Phone: customer.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    orderID,
				Price: gross,
				Qty:   1,
				Name:  "Membership fee",
			},
		},
	}

	resp, err := m.client.CreateTransaction(req)
	if err != nil {
		return nil, err
	}
	return &Intent{OrderID: orderID, Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// VerifyNotification SHA512(order_id + status_code + gross_amount + server_key)
func (m *Midtrans) VerifyNotification(n *Notification) error {
	if m.serverKey == "" {
		return ErrNotConfigured
	}
	want := strings.ToLower(n.SignatureKey)
	got := Signature(n.OrderID, n.StatusCode, n.GrossAmount, m.serverKey)
	if want == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// Signature 回调签名
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:])
}
