package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/solventlabs/solvent/internal/config"
	ledgerdomain "github.com/solventlabs/solvent/internal/ledger/domain"
	ledgerservice "github.com/solventlabs/solvent/internal/ledger/service"
	memberdomain "github.com/solventlabs/solvent/internal/member/domain"
	memberservice "github.com/solventlabs/solvent/internal/member/service"
	referraldomain "github.com/solventlabs/solvent/internal/referral/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	referral referraldomain.Service
	member   memberdomain.Service
	ledger   ledgerdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&memberdomain.Member{},
		&memberdomain.MemberReferrer{},
		&ledgerdomain.LedgerEntry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.DefaultProgramConfig()
	cfg.ReferralLevels = []config.ReferralLevel{
		{Level: 1, RateBP: 500},
		{Level: 2, RateBP: 200},
	}

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
	})
	memberSvc := memberservice.NewService(memberservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
	})
	referralSvc := NewService(Params{
		Log:     zap.NewNop(),
		Program: config.NewStaticProgramConfigHolder(cfg),
		Member:  memberSvc,
		Ledger:  ledgerSvc,
	})

	return &fixture{referral: referralSvc, member: memberSvc, ledger: ledgerSvc}
}

func (f *fixture) newMember(t *testing.T, externalID string) *memberdomain.Member {
	t.Helper()
	member, err := f.member.ResolveOrCreate(context.Background(), memberdomain.ResolveInput{ExternalID: externalID})
	require.NoError(t, err)
	return member
}

func TestPayCommissions_WalksChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// grandparent referred parent, parent referred buyer.
	grandparent := f.newMember(t, "grandparent")
	parent := f.newMember(t, "parent")
	buyer := f.newMember(t, "buyer")

	_, err := f.member.AttachReferrer(ctx, parent.ID, grandparent.ID)
	require.NoError(t, err)
	_, err = f.member.AttachReferrer(ctx, buyer.ID, parent.ID)
	require.NoError(t, err)

	credits, err := f.referral.PayCommissions(ctx, referraldomain.CommissionInput{
		OrderID:    9001,
		BuyerID:    buyer.ID,
		Amount:     10_000,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, credits, 2)

	assert.Equal(t, 1, credits[0].Level)
	assert.Equal(t, parent.ID, credits[0].ReferrerID)
	assert.Equal(t, int64(500), credits[0].Amount)

	assert.Equal(t, 2, credits[1].Level)
	assert.Equal(t, grandparent.ID, credits[1].ReferrerID)
	assert.Equal(t, int64(200), credits[1].Amount)

	cash, err := f.ledger.GetBalance(ctx, parent.ID, ledgerdomain.BalanceCash)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cash)

	cash, err = f.ledger.GetBalance(ctx, grandparent.ID, ledgerdomain.BalanceCash)
	require.NoError(t, err)
	assert.Equal(t, int64(200), cash)
}

func TestPayCommissions_StopsWithoutReferrer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	buyer := f.newMember(t, "orphan")

	credits, err := f.referral.PayCommissions(ctx, referraldomain.CommissionInput{
		OrderID:    9002,
		BuyerID:    buyer.ID,
		Amount:     10_000,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Empty(t, credits)
}

func TestPayCommissions_DuplicateOrderDoesNotDoubleCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	referrer := f.newMember(t, "referrer")
	buyer := f.newMember(t, "buyer")
	_, err := f.member.AttachReferrer(ctx, buyer.ID, referrer.ID)
	require.NoError(t, err)

	in := referraldomain.CommissionInput{
		OrderID:    9003,
		BuyerID:    buyer.ID,
		Amount:     10_000,
		OccurredAt: time.Now().UTC(),
	}

	_, err = f.referral.PayCommissions(ctx, in)
	require.NoError(t, err)
	_, err = f.referral.PayCommissions(ctx, in)
	require.NoError(t, err)

	cash, err := f.ledger.GetBalance(ctx, referrer.ID, ledgerdomain.BalanceCash)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cash)
}

func TestPayCommissions_LoopIsCutShort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// a and b referred each other; the walk must not revisit either.
	a := f.newMember(t, "loop-a")
	b := f.newMember(t, "loop-b")
	_, err := f.member.AttachReferrer(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.member.AttachReferrer(ctx, b.ID, a.ID)
	require.NoError(t, err)

	credits, err := f.referral.PayCommissions(ctx, referraldomain.CommissionInput{
		OrderID:    9004,
		BuyerID:    a.ID,
		Amount:     10_000,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	// Level one pays b; level two would land back on a and is skipped.
	require.Len(t, credits, 1)
	assert.Equal(t, b.ID, credits[0].ReferrerID)
}

func TestPayCommissions_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.referral.PayCommissions(context.Background(), referraldomain.CommissionInput{})
	assert.ErrorIs(t, err, referraldomain.ErrInvalidCommission)
}
