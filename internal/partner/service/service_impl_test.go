package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/solventlabs/solvent/internal/config"
	ledgerdomain "github.com/solventlabs/solvent/internal/ledger/domain"
	ledgerservice "github.com/solventlabs/solvent/internal/ledger/service"
	partnerdomain "github.com/solventlabs/solvent/internal/partner/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (partnerdomain.Service, ledgerdomain.Service) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&partnerdomain.Partner{},
		&ledgerdomain.LedgerEntry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
	})

	svc := NewService(Params{
		DB:      conn,
		Log:     zap.NewNop(),
		GenID:   node,
		Program: config.NewStaticProgramConfigHolder(config.DefaultProgramConfig()),
		Ledger:  ledgerSvc,
	})
	return svc, ledgerSvc
}

func TestCreateFromTier(t *testing.T) {
	svc, ledgerSvc := newTestService(t)
	ctx := context.Background()
	memberID := snowflake.ID(77)

	partner, err := svc.CreateFromTier(ctx, memberID, "Gold")
	require.NoError(t, err)
	assert.Equal(t, "gold", partner.Tier)
	assert.Equal(t, int64(2), partner.Tokens)

	// Welcome points land on the member's point balance.
	points, err := ledgerSvc.GetBalance(ctx, memberID, ledgerdomain.BalancePoints)
	require.NoError(t, err)
	assert.Equal(t, int64(250), points)

	_, err = svc.CreateFromTier(ctx, memberID, "silver")
	assert.ErrorIs(t, err, partnerdomain.ErrAlreadyPartner)

	_, err = svc.CreateFromTier(ctx, snowflake.ID(78), "diamond")
	assert.ErrorIs(t, err, partnerdomain.ErrUnknownTier)
}

func TestAdjustTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	partner, err := svc.CreateFromTier(ctx, 10, "silver")
	require.NoError(t, err)

	adjusted, err := svc.AdjustTokens(ctx, partner.ID, 3, "promo grant")
	require.NoError(t, err)
	assert.Equal(t, int64(4), adjusted.Tokens)

	adjusted, err = svc.AdjustTokens(ctx, partner.ID, -4, "clawback")
	require.NoError(t, err)
	assert.Equal(t, int64(0), adjusted.Tokens)

	// The count may never go negative.
	_, err = svc.AdjustTokens(ctx, partner.ID, -1, "too far")
	assert.ErrorIs(t, err, partnerdomain.ErrNegativeTokens)

	_, err = svc.AdjustTokens(ctx, snowflake.ID(404), 1, "missing")
	assert.ErrorIs(t, err, partnerdomain.ErrPartnerNotFound)
}

func TestListHolders_SkipsZeroTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateFromTier(ctx, 1, "silver")
	require.NoError(t, err)
	second, err := svc.CreateFromTier(ctx, 2, "platinum")
	require.NoError(t, err)

	_, err = svc.AdjustTokens(ctx, first.ID, -1, "drained")
	require.NoError(t, err)

	holders, err := svc.ListHolders(ctx)
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, second.ID, holders[0].ID)
}
