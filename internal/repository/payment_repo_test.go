package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/testutil"
)

func TestPaymentRepository_SettlePending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPaymentRepository(db)
	ctx := context.Background()
	m := testutil.TestMember(t, db)

	ref := "order-1"
	payment := &model.Payment{
		MemberID:      m.ID,
		Amount:        50,
		PaymentMethod: "midtrans",
		PaymentStatus: model.PaymentStatusPending,
		ExternalRef:   &ref,
	}
	require.NoError(t, repo.Create(ctx, payment))

	found, err := repo.GetByExternalRef(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, found.ID)

	changed, err := repo.SettlePending(ctx, payment.ID, model.PaymentStatusCompleted)
	require.NoError(t, err)
	assert.True(t, changed)

	// 终态不再改变
	changed, err = repo.SettlePending(ctx, payment.ID, model.PaymentStatusFailed)
	require.NoError(t, err)
	assert.False(t, changed)

	total, err := repo.SumCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, total)
}

func TestPaymentRepository_ReassignMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPaymentRepository(db)
	ctx := context.Background()
	target := testutil.TestMember(t, db)
	source := testutil.TestMember(t, db)
	testutil.TestPayment(t, db, source.ID, 10, nil)
	testutil.TestPayment(t, db, source.ID, 20, nil)

	moved, err := repo.ReassignMember(ctx, []int64{source.ID}, target.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	payments, err := repo.ListByMember(ctx, target.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}
