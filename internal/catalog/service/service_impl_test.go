package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/solventlabs/solvent/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) catalogdomain.Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(&catalogdomain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
	})
}

func TestCreateAndFindProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, catalogdomain.CreateProductInput{
		SKU:    "SKU-001",
		Name:   "Herbal Tea",
		Price:  25_000,
		Points: 25,
		Stock:  10,
	})
	require.NoError(t, err)
	assert.True(t, product.Active)

	found, err := svc.FindBySKU(ctx, "SKU-001")
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)

	_, err = svc.Create(ctx, catalogdomain.CreateProductInput{SKU: "", Name: "x"})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidProduct)

	_, err = svc.FindBySKU(ctx, "SKU-404")
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
}

func TestDeductStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, catalogdomain.CreateProductInput{
		SKU:   "SKU-002",
		Name:  "Honey",
		Price: 40_000,
		Stock: 5,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeductStock(ctx, product.ID, 3))

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Stock)

	// Not enough left; the stock must be untouched.
	err = svc.DeductStock(ctx, product.ID, 3)
	assert.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)

	got, err = svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Stock)

	err = svc.DeductStock(ctx, snowflake.ID(404), 1)
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
}

func TestRestoreStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, catalogdomain.CreateProductInput{
		SKU:   "SKU-003",
		Name:  "Propolis",
		Price: 90_000,
		Stock: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeductStock(ctx, product.ID, 1))
	require.NoError(t, svc.RestoreStock(ctx, product.ID, 1))

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Stock)
}
