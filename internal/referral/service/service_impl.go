package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/solventlabs/solvent/internal/config"
	ledgerdomain "github.com/solventlabs/solvent/internal/ledger/domain"
	memberdomain "github.com/solventlabs/solvent/internal/member/domain"
	referraldomain "github.com/solventlabs/solvent/internal/referral/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Program *config.ProgramConfigHolder
	Member  memberdomain.Service
	Ledger  ledgerdomain.Service
}

type Service struct {
	log     *zap.Logger
	program *config.ProgramConfigHolder
	member  memberdomain.Service
	ledger  ledgerdomain.Service
}

func NewService(p Params) referraldomain.Service {
	return &Service{
		log:     p.Log.Named("referral.service"),
		program: p.Program,
		member:  p.Member,
		ledger:  p.Ledger,
	}
}

func (s *Service) PayCommissions(ctx context.Context, in referraldomain.CommissionInput) ([]referraldomain.Credit, error) {
	if in.OrderID == 0 || in.BuyerID == 0 || in.Amount <= 0 || in.OccurredAt.IsZero() {
		return nil, referraldomain.ErrInvalidCommission
	}

	levels := s.program.Get().ReferralLevels
	if len(levels) == 0 {
		return nil, nil
	}

	seen := map[snowflake.ID]bool{in.BuyerID: true}
	current := in.BuyerID

	var credits []referraldomain.Credit
	for _, level := range levels {
		ref, err := s.member.GetReferrer(ctx, current)
		if err != nil {
			return credits, err
		}
		if ref == nil {
			break
		}
		if seen[ref.ReferrerID] {
			s.log.Warn("referral chain loops, stopping",
				zap.String("order_id", in.OrderID.String()),
				zap.String("member_id", ref.ReferrerID.String()),
				zap.Int("level", level.Level),
			)
			break
		}
		seen[ref.ReferrerID] = true

		amount := in.Amount * level.RateBP / 10_000
		if amount > 0 {
			inserted, err := s.ledger.RecordEntry(ctx, ledgerdomain.NewEntry{
				OwnerID:     ref.ReferrerID,
				EntryType:   ledgerdomain.EntryTypeCommission,
				Balance:     ledgerdomain.BalanceCash,
				Amount:      amount,
				Description: "referral commission",
				SourceType:  ledgerdomain.SourceTypeOrder,
				SourceID:    in.OrderID,
				OccurredAt:  in.OccurredAt,
			})
			if err != nil {
				return credits, err
			}
			if !inserted {
				s.log.Info("commission already credited",
					zap.String("order_id", in.OrderID.String()),
					zap.String("referrer_id", ref.ReferrerID.String()),
				)
			}
		}

		credits = append(credits, referraldomain.Credit{
			Level:      level.Level,
			ReferrerID: ref.ReferrerID,
			Amount:     amount,
		})
		current = ref.ReferrerID
	}

	return credits, nil
}
