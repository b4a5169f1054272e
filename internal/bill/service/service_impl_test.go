package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billdomain "github.com/solventlabs/solvent/internal/bill/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) billdomain.Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(&billdomain.Bill{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
	})
}

func TestEnsureBill_OncePerOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	paidAt := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	in := billdomain.EnsureBillInput{
		OrderID:     100,
		MemberID:    7,
		Amount:      90_000,
		Provider:    "midtrans",
		ProviderRef: "txn-abc",
		PaidAt:      paidAt,
	}

	created, err := svc.EnsureBill(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	// A retried webhook carries different provider data but the same order.
	in.ProviderRef = "txn-retry"
	created, err = svc.EnsureBill(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)

	bill, err := svc.GetByOrder(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, bill)
	assert.Equal(t, "txn-abc", bill.ProviderRef)
	assert.Equal(t, int64(90_000), bill.Amount)
}

func TestEnsureBill_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsureBill(ctx, billdomain.EnsureBillInput{MemberID: 1, Amount: 10})
	assert.ErrorIs(t, err, billdomain.ErrInvalidBill)

	_, err = svc.EnsureBill(ctx, billdomain.EnsureBillInput{OrderID: 1, MemberID: 1, Amount: -5})
	assert.ErrorIs(t, err, billdomain.ErrInvalidBill)
}

func TestEnsureBill_GuestOrderHasNoMember(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.EnsureBill(ctx, billdomain.EnsureBillInput{
		OrderID:  200,
		Amount:   12_000,
		Provider: "midtrans",
	})
	require.NoError(t, err)
	assert.True(t, created)

	bill, err := svc.GetByOrder(ctx, 200)
	require.NoError(t, err)
	require.NotNil(t, bill)
	assert.Zero(t, bill.MemberID)
	assert.Equal(t, int64(12_000), bill.Amount)
}

func TestGetByOrder_AbsentIsNil(t *testing.T) {
	svc := newTestService(t)

	bill, err := svc.GetByOrder(context.Background(), snowflake.ID(404))
	require.NoError(t, err)
	assert.Nil(t, bill)
}
