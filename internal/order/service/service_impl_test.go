package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/solventlabs/solvent/internal/catalog/domain"
	orderdomain "github.com/solventlabs/solvent/internal/order/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (orderdomain.Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&catalogdomain.Product{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
	})
	return svc, conn
}

func seedProduct(t *testing.T, conn *gorm.DB, id snowflake.ID, sku string, price, points, stock int64) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, conn.Create(&catalogdomain.Product{
		ID:        id,
		SKU:       sku,
		Name:      "Product " + sku,
		Price:     price,
		Points:    points,
		Stock:     stock,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

func TestCreateOrder_SnapshotsProducts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedProduct(t, conn, 10, "TEA", 25_000, 25, 100)
	seedProduct(t, conn, 11, "HONEY", 40_000, 40, 100)

	order, err := svc.Create(ctx, orderdomain.CreateOrderInput{
		OrderNo: "ORD-001",
		Lines: []orderdomain.LineInput{
			{ProductID: 10, Quantity: 2},
			{ProductID: 11, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, orderdomain.StatusPending, order.Status)
	assert.Equal(t, int64(90_000), order.TotalAmount)
	assert.Equal(t, int64(90), order.TotalPoints)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "TEA", order.Items[0].SKU)
	assert.Equal(t, int64(25_000), order.Items[0].UnitPrice)

	// Stock is untouched until the order is paid.
	var product catalogdomain.Product
	require.NoError(t, conn.First(&product, "id = ?", 10).Error)
	assert.Equal(t, int64(100), product.Stock)

	_, err = svc.Create(ctx, orderdomain.CreateOrderInput{OrderNo: "ORD-002"})
	assert.ErrorIs(t, err, orderdomain.ErrEmptyOrder)

	_, err = svc.Create(ctx, orderdomain.CreateOrderInput{
		OrderNo: "ORD-003",
		Lines:   []orderdomain.LineInput{{ProductID: 404, Quantity: 1}},
	})
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
}

func TestMarkConfirmed_OnlyOnce(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedProduct(t, conn, 10, "TEA", 25_000, 25, 100)
	order, err := svc.Create(ctx, orderdomain.CreateOrderInput{
		OrderNo: "ORD-010",
		Lines:   []orderdomain.LineInput{{ProductID: 10, Quantity: 1}},
	})
	require.NoError(t, err)

	flipped, err := svc.MarkConfirmed(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, flipped)

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusConfirmed, got.Status)
	assert.NotNil(t, got.ConfirmedAt)

	flipped, err = svc.MarkConfirmed(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, flipped)

	_, err = svc.MarkConfirmed(ctx, snowflake.ID(404))
	assert.ErrorIs(t, err, orderdomain.ErrOrderNotFound)
}

func TestUpdateStatus_FulfillmentChain(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedProduct(t, conn, 10, "TEA", 25_000, 25, 100)
	order, err := svc.Create(ctx, orderdomain.CreateOrderInput{
		OrderNo: "ORD-020",
		Lines:   []orderdomain.LineInput{{ProductID: 10, Quantity: 1}},
	})
	require.NoError(t, err)

	// Fulfillment cannot start before payment confirms the order.
	err = svc.UpdateStatus(ctx, order.ID, orderdomain.StatusShipped)
	assert.ErrorIs(t, err, orderdomain.ErrInvalidTransition)

	_, err = svc.MarkConfirmed(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, order.ID, orderdomain.StatusProcessing))
	require.NoError(t, svc.UpdateStatus(ctx, order.ID, orderdomain.StatusShipped))
	require.NoError(t, svc.UpdateStatus(ctx, order.ID, orderdomain.StatusDelivered))

	err = svc.UpdateStatus(ctx, order.ID, orderdomain.StatusProcessing)
	assert.ErrorIs(t, err, orderdomain.ErrInvalidTransition)
}

func TestCancel_OnlyPending(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedProduct(t, conn, 10, "TEA", 25_000, 25, 100)
	order, err := svc.Create(ctx, orderdomain.CreateOrderInput{
		OrderNo: "ORD-030",
		Lines:   []orderdomain.LineInput{{ProductID: 10, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, order.ID))

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusCancelled, got.Status)

	paid, err := svc.Create(ctx, orderdomain.CreateOrderInput{
		OrderNo: "ORD-031",
		Lines:   []orderdomain.LineInput{{ProductID: 10, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.MarkConfirmed(ctx, paid.ID)
	require.NoError(t, err)

	err = svc.Cancel(ctx, paid.ID)
	assert.ErrorIs(t, err, orderdomain.ErrNotPending)
}

func TestLinkMember(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedProduct(t, conn, 10, "TEA", 25_000, 25, 100)
	order, err := svc.Create(ctx, orderdomain.CreateOrderInput{
		OrderNo: "ORD-040",
		Lines:   []orderdomain.LineInput{{ProductID: 10, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Zero(t, order.MemberID)

	require.NoError(t, svc.LinkMember(ctx, order.ID, 77))

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(77), got.MemberID)

	// An order linked to someone else stays with them.
	require.NoError(t, svc.LinkMember(ctx, order.ID, 88))
	got, err = svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(77), got.MemberID)

	err = svc.LinkMember(ctx, snowflake.ID(404), 77)
	assert.ErrorIs(t, err, orderdomain.ErrOrderNotFound)
}
