package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qs3c/members_server/config"
)

func TestMidtrans_VerifyNotification(t *testing.T) {
	m := NewMidtrans(&config.PaymentConfig{ServerKey: "server-key"})

	n := &Notification{
		OrderID:     "order-1",
		StatusCode:  "200",
		GrossAmount: "500.00",
	}
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, "server-key")
	assert.NoError(t, m.VerifyNotification(n))

	n.SignatureKey = "deadbeef"
	assert.ErrorIs(t, m.VerifyNotification(n), ErrInvalidSignature)

	n.SignatureKey = ""
	assert.ErrorIs(t, m.VerifyNotification(n), ErrInvalidSignature)
}

func TestMidtrans_NotConfigured(t *testing.T) {
	m := NewMidtrans(&config.PaymentConfig{})

	_, err := m.CreateIntent(context.Background(), "order-1", 10, Customer{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, m.VerifyNotification(&Notification{}), ErrNotConfigured)
}

func TestNotification_Outcome(t *testing.T) {
	tests := []struct {
		status string
		fraud  string
		want   string
	}{
		{"settlement", "", OutcomeCompleted},
		{"capture", "accept", OutcomeCompleted},
		{"capture", "challenge", OutcomePending},
		{"capture", "deny", OutcomeFailed},
		{"pending", "", OutcomePending},
		{"expire", "", OutcomeFailed},
		{"cancel", "", OutcomeFailed},
		{"deny", "", OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.status+"/"+tt.fraud, func(t *testing.T) {
			n := &Notification{TransactionStatus: tt.status, FraudStatus: tt.fraud}
			assert.Equal(t, tt.want, n.Outcome())
		})
	}
}
