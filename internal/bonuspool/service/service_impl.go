package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	bonuspooldomain "github.com/solventlabs/solvent/internal/bonuspool/domain"
	"github.com/solventlabs/solvent/internal/clock"
	"github.com/solventlabs/solvent/internal/config"
	ledgerdomain "github.com/solventlabs/solvent/internal/ledger/domain"
	"github.com/solventlabs/solvent/internal/metrics"
	partnerdomain "github.com/solventlabs/solvent/internal/partner/domain"
	"github.com/solventlabs/solvent/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Program *config.ProgramConfigHolder
	Ledger  ledgerdomain.Service
	Partner partnerdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	program *config.ProgramConfigHolder
	ledger  ledgerdomain.Service
	partner partnerdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) bonuspooldomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("bonuspool.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		program: p.Program,
		ledger:  p.Ledger,
		partner: p.Partner,
		metrics: p.Metrics,
	}
}

func (s *Service) EnsureOpenCycle(ctx context.Context) (*bonuspooldomain.BonusCycle, error) {
	open, err := s.GetOpen(ctx)
	if err != nil && err != bonuspooldomain.ErrNoOpenCycle {
		return nil, err
	}
	if open != nil {
		return open, nil
	}

	var last bonuspooldomain.BonusCycle
	hasLast := true
	err = s.db.WithContext(ctx).Order("sequence DESC").First(&last).Error
	if err == gorm.ErrRecordNotFound {
		hasLast = false
	} else if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	program := s.program.Get()
	cycle := bonuspooldomain.BonusCycle{
		ID:        s.genID.Generate(),
		Sequence:  1,
		Status:    bonuspooldomain.CycleStatusOpen,
		StartAt:   now,
		RateBP:    program.ContributionRateBP,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if hasLast {
		cycle.Sequence = last.Sequence + 1
		// The new window begins where the settled one ended and inherits
		// its unpaid remainder.
		cycle.StartAt = last.EndAt
		cycle.PoolAmount = last.DustAmount
	}
	cycle.EndAt = cycle.StartAt.AddDate(0, 0, program.CycleLengthDays)

	if err := s.db.WithContext(ctx).Create(&cycle).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Another opener won; use their cycle.
			return s.GetOpen(ctx)
		}
		return nil, err
	}

	s.log.Info("bonus cycle opened",
		zap.Int64("sequence", cycle.Sequence),
		zap.Int64("opening_pool", cycle.PoolAmount),
		zap.Time("start_at", cycle.StartAt),
		zap.Time("end_at", cycle.EndAt),
	)
	return &cycle, nil
}

func (s *Service) GetOpen(ctx context.Context) (*bonuspooldomain.BonusCycle, error) {
	var cycle bonuspooldomain.BonusCycle
	err := s.db.WithContext(ctx).
		Where("status = ?", string(bonuspooldomain.CycleStatusOpen)).
		First(&cycle).Error
	if err == gorm.ErrRecordNotFound {
		return nil, bonuspooldomain.ErrNoOpenCycle
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*bonuspooldomain.BonusCycle, error) {
	var cycle bonuspooldomain.BonusCycle
	err := s.db.WithContext(ctx).First(&cycle, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, bonuspooldomain.ErrCycleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]bonuspooldomain.BonusCycle, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	var cycles []bonuspooldomain.BonusCycle
	err := s.db.WithContext(ctx).
		Order("sequence DESC").
		Limit(limit).
		Find(&cycles).Error
	if err != nil {
		return nil, err
	}
	return cycles, nil
}

func (s *Service) Contribute(ctx context.Context, amount int64) error {
	if amount < 0 {
		return bonuspooldomain.ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}

	now := s.clock.Now().UTC()
	result := s.db.WithContext(ctx).Exec(
		`UPDATE bonus_cycles SET pool_amount = pool_amount + ?, updated_at = ? WHERE status = ?`,
		amount, now, string(bonuspooldomain.CycleStatusOpen),
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := s.EnsureOpenCycle(ctx); err != nil {
			return err
		}
		retry := s.db.WithContext(ctx).Exec(
			`UPDATE bonus_cycles SET pool_amount = pool_amount + ?, updated_at = ? WHERE status = ?`,
			amount, now, string(bonuspooldomain.CycleStatusOpen),
		)
		if retry.Error != nil {
			return retry.Error
		}
		if retry.RowsAffected == 0 {
			return bonuspooldomain.ErrNoOpenCycle
		}
	}

	s.metrics.AddPoolContribution(amount)
	return nil
}

func (s *Service) SettleDue(ctx context.Context) (*bonuspooldomain.SettleResult, error) {
	now := s.clock.Now().UTC()

	open, err := s.GetOpen(ctx)
	if err == bonuspooldomain.ErrNoOpenCycle {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if open.EndAt.After(now) {
		return nil, nil
	}

	holders, err := s.partner.ListHolders(ctx)
	if err != nil {
		return nil, err
	}

	var totalTokens int64
	for _, h := range holders {
		totalTokens += h.Tokens
	}

	pool := open.PoolAmount
	var perTokenMicro int64
	var payouts []bonuspooldomain.Payout
	var paid int64
	if totalTokens > 0 {
		perTokenMicro = pool * 1_000_000 / totalTokens
		for _, h := range holders {
			amount := h.Tokens * pool / totalTokens
			paid += amount
			payouts = append(payouts, bonuspooldomain.Payout{
				PartnerID: h.ID,
				MemberID:  h.MemberID,
				Tokens:    h.Tokens,
				Amount:    amount,
			})
		}
	} else {
		s.log.Warn("no token holders, full pool carries over",
			zap.Int64("sequence", open.Sequence),
			zap.Int64("pool", pool),
		)
	}

	// Payout entries go in before the settled flag. A failure here leaves
	// the cycle open so a later run re-drives the missing entries; the
	// conditional insert turns the ones already written into no-ops.
	for _, payout := range payouts {
		if payout.Amount == 0 {
			continue
		}
		inserted, err := s.ledger.RecordEntry(ctx, ledgerdomain.NewEntry{
			OwnerID:     payout.MemberID,
			EntryType:   ledgerdomain.EntryTypeBonusPayout,
			Balance:     ledgerdomain.BalanceCash,
			Amount:      payout.Amount,
			Description: "bonus pool payout",
			SourceType:  ledgerdomain.SourceTypeBonusCycle,
			SourceID:    open.ID,
			OccurredAt:  now,
		})
		if err != nil {
			return nil, err
		}
		if !inserted {
			s.log.Info("payout entry already recorded",
				zap.String("cycle_id", open.ID.String()),
				zap.String("member_id", payout.MemberID.String()),
			)
		}
	}

	// Dust is taken from the live pool column so contributions racing this
	// settlement are carried forward rather than dropped.
	claim := s.db.WithContext(ctx).Exec(
		`UPDATE bonus_cycles
		 SET status = ?, total_tokens = ?, per_token_micro = ?, dust_amount = pool_amount - ?, settled_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(bonuspooldomain.CycleStatusSettled),
		totalTokens, perTokenMicro, paid, now, now,
		open.ID, string(bonuspooldomain.CycleStatusOpen),
	)
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		// A concurrent settler claimed the cycle; the entries above
		// converged with theirs.
		return nil, bonuspooldomain.ErrAlreadySettled
	}

	settled, err := s.Get(ctx, open.ID)
	if err != nil {
		return nil, err
	}
	dust := settled.DustAmount

	s.metrics.ObserveSettlement(paid, dust)
	s.log.Info("bonus cycle settled",
		zap.Int64("sequence", open.Sequence),
		zap.Int64("pool", pool),
		zap.Int64("total_tokens", totalTokens),
		zap.Int64("paid", paid),
		zap.Int64("dust", dust),
		zap.Int("holders", len(payouts)),
	)

	next, err := s.EnsureOpenCycle(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("next cycle ready", zap.Int64("sequence", next.Sequence))

	return &bonuspooldomain.SettleResult{
		Cycle:   settled,
		Payouts: payouts,
		Dust:    dust,
	}, nil
}
