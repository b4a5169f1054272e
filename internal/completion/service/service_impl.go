package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/solventlabs/solvent/internal/bill/domain"
	bonuspooldomain "github.com/solventlabs/solvent/internal/bonuspool/domain"
	catalogdomain "github.com/solventlabs/solvent/internal/catalog/domain"
	"github.com/solventlabs/solvent/internal/clock"
	completiondomain "github.com/solventlabs/solvent/internal/completion/domain"
	ledgerdomain "github.com/solventlabs/solvent/internal/ledger/domain"
	memberdomain "github.com/solventlabs/solvent/internal/member/domain"
	"github.com/solventlabs/solvent/internal/metrics"
	orderdomain "github.com/solventlabs/solvent/internal/order/domain"
	referraldomain "github.com/solventlabs/solvent/internal/referral/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Order    orderdomain.Service
	Bill     billdomain.Service
	Member   memberdomain.Service
	Catalog  catalogdomain.Service
	Ledger   ledgerdomain.Service
	Pool     bonuspooldomain.Service
	Referral referraldomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	clock    clock.Clock
	order    orderdomain.Service
	bill     billdomain.Service
	member   memberdomain.Service
	catalog  catalogdomain.Service
	ledger   ledgerdomain.Service
	pool     bonuspooldomain.Service
	referral referraldomain.Service
	metrics  *metrics.Metrics
}

func NewService(p Params) completiondomain.Service {
	return &Service{
		log:      p.Log.Named("completion.service"),
		clock:    p.Clock,
		order:    p.Order,
		bill:     p.Bill,
		member:   p.Member,
		catalog:  p.Catalog,
		ledger:   p.Ledger,
		pool:     p.Pool,
		referral: p.Referral,
		metrics:  p.Metrics,
	}
}

func (s *Service) CompleteOrder(ctx context.Context, in completiondomain.CompleteOrderInput) (*completiondomain.CompleteOrderResult, error) {
	var (
		ord *orderdomain.Order
		err error
	)
	if in.OrderID != 0 {
		ord, err = s.order.Get(ctx, in.OrderID)
	} else {
		ord, err = s.order.FindByOrderNo(ctx, in.OrderNo)
	}
	if err != nil {
		return nil, err
	}

	result := &completiondomain.CompleteOrderResult{OrderID: ord.ID, MemberID: ord.MemberID}

	// Redirect return and webhook both land here; an existing bill means
	// the pipeline already ran.
	if existing, err := s.bill.GetByOrder(ctx, ord.ID); err != nil {
		return nil, err
	} else if existing != nil {
		s.metrics.IncDuplicateCompletion()
		s.log.Info("duplicate completion, bill exists",
			zap.String("order_id", ord.ID.String()),
		)
		result.BillID = existing.ID
		result.Duplicate = true
		return result, nil
	}

	memberID := ord.MemberID
	if strings.TrimSpace(in.MemberExternalID) != "" {
		mem, err := s.member.ResolveOrCreate(ctx, memberdomain.ResolveInput{
			ExternalID: in.MemberExternalID,
			Name:       in.MemberName,
			Email:      in.MemberEmail,
			Phone:      in.MemberPhone,
		})
		if err != nil {
			return nil, err
		}
		memberID = mem.ID
		result.MemberID = mem.ID
	}

	// Guest checkout or a provider payload without identity. The payment
	// still settles; the member-side steps have nothing to hang off.
	if memberID == 0 {
		s.log.Info("completing order without member identity",
			zap.String("order_id", ord.ID.String()),
		)
	} else {
		if code := strings.TrimSpace(in.ReferralCode); code != "" {
			s.attachReferrer(ctx, memberID, code, result)
		}

		if in.Address != nil {
			if _, err := s.member.SaveDefaultAddress(ctx, memberID, *in.Address); err != nil {
				result.Warnings = append(result.Warnings, "address: "+err.Error())
				s.warnStep(ord, "address", err)
			}
		}

		if err := s.order.LinkMember(ctx, ord.ID, memberID); err != nil {
			result.Warnings = append(result.Warnings, "member_link: "+err.Error())
			s.warnStep(ord, "member_link", err)
		}
	}

	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = s.clock.Now().UTC()
	}

	// Commit point. Whoever inserts the bill owns the monetary steps;
	// everyone else is a duplicate delivery.
	created, err := s.bill.EnsureBill(ctx, billdomain.EnsureBillInput{
		OrderID:     ord.ID,
		MemberID:    memberID,
		Amount:      ord.TotalAmount,
		Provider:    in.Provider,
		ProviderRef: in.ProviderRef,
		PaidAt:      paidAt,
	})
	if err != nil {
		return nil, err
	}

	if bill, err := s.bill.GetByOrder(ctx, ord.ID); err == nil && bill != nil {
		result.BillID = bill.ID
	}

	if !created {
		s.metrics.IncDuplicateCompletion()
		result.Duplicate = true
		return result, nil
	}

	if _, err := s.order.MarkConfirmed(ctx, ord.ID); err != nil {
		result.Warnings = append(result.Warnings, "order_status: "+err.Error())
		s.warnStep(ord, "order_status", err)
	}

	for _, item := range ord.Items {
		if err := s.catalog.DeductStock(ctx, item.ProductID, item.Quantity); err != nil {
			result.Warnings = append(result.Warnings, "inventory: "+item.SKU+": "+err.Error())
			s.warnStep(ord, "inventory", err)
		}
	}

	if memberID != 0 && ord.TotalPoints > 0 {
		_, err := s.ledger.RecordEntry(ctx, ledgerdomain.NewEntry{
			OwnerID:     memberID,
			EntryType:   ledgerdomain.EntryTypeEarn,
			Balance:     ledgerdomain.BalancePoints,
			Amount:      ord.TotalPoints,
			Description: "points earned on order " + ord.OrderNo,
			SourceType:  ledgerdomain.SourceTypeOrder,
			SourceID:    ord.ID,
			OccurredAt:  paidAt,
		})
		if err != nil {
			result.Warnings = append(result.Warnings, "points: "+err.Error())
			s.warnStep(ord, "points", err)
		}
	}

	// The contribution rate was captured when the cycle opened; a config
	// reload mid-cycle must not change what the cycle collects.
	var contribution int64
	if cycle, err := s.pool.EnsureOpenCycle(ctx); err != nil {
		result.Warnings = append(result.Warnings, "pool_contribution: "+err.Error())
		s.warnStep(ord, "pool_contribution", err)
	} else {
		contribution = ord.TotalAmount * cycle.RateBP / 10_000
		if err := s.pool.Contribute(ctx, contribution); err != nil {
			result.Warnings = append(result.Warnings, "pool_contribution: "+err.Error())
			s.warnStep(ord, "pool_contribution", err)
		}
	}

	if memberID != 0 {
		if _, err := s.referral.PayCommissions(ctx, referraldomain.CommissionInput{
			OrderID:    ord.ID,
			BuyerID:    memberID,
			Amount:     ord.TotalAmount,
			OccurredAt: paidAt,
		}); err != nil {
			result.Warnings = append(result.Warnings, "commissions: "+err.Error())
			s.warnStep(ord, "commissions", err)
		}
	}

	s.metrics.IncOrderCompleted()
	s.log.Info("order completed",
		zap.String("order_id", ord.ID.String()),
		zap.String("order_no", ord.OrderNo),
		zap.Int64("amount", ord.TotalAmount),
		zap.Int64("pool_contribution", contribution),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

func (s *Service) warnStep(ord *orderdomain.Order, step string, err error) {
	s.metrics.IncStepFailure(step)
	s.log.Warn("completion step failed",
		zap.String("order_id", ord.ID.String()),
		zap.String("step", step),
		zap.Error(err),
	)
}

func (s *Service) attachReferrer(ctx context.Context, memberID snowflake.ID, code string, result *completiondomain.CompleteOrderResult) {
	referrer, err := s.member.FindByReferralCode(ctx, code)
	if err != nil {
		result.Warnings = append(result.Warnings, "referrer: "+err.Error())
		s.log.Warn("referral code did not resolve",
			zap.String("member_id", memberID.String()),
			zap.String("referral_code", code),
			zap.Error(err),
		)
		return
	}
	if referrer.ID == memberID {
		s.log.Info("self referral skipped",
			zap.String("member_id", memberID.String()),
			zap.String("referral_code", code),
		)
		return
	}
	if _, err := s.member.AttachReferrer(ctx, memberID, referrer.ID); err != nil {
		result.Warnings = append(result.Warnings, "referrer: "+err.Error())
		s.log.Warn("referrer not attached",
			zap.String("member_id", memberID.String()),
			zap.String("referrer_id", referrer.ID.String()),
			zap.Error(err),
		)
	}
}
