package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/solventlabs/solvent/internal/bill/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) billdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("bill.service"),
		genID: p.GenID,
	}
}

func (s *Service) EnsureBill(ctx context.Context, in billdomain.EnsureBillInput) (bool, error) {
	// MemberID may be zero; guest orders settle without an identity.
	if in.OrderID == 0 || in.Amount < 0 {
		return false, billdomain.ErrInvalidBill
	}
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	result := s.db.WithContext(ctx).Exec(
		`INSERT INTO bills (id, order_id, member_id, amount, provider, provider_ref, paid_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (order_id) DO NOTHING`,
		s.genID.Generate(),
		in.OrderID,
		in.MemberID,
		in.Amount,
		in.Provider,
		in.ProviderRef,
		paidAt.UTC(),
		time.Now().UTC(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		s.log.Info("bill already exists, skipping",
			zap.String("order_id", in.OrderID.String()),
		)
		return false, nil
	}
	return true, nil
}

func (s *Service) GetByOrder(ctx context.Context, orderID snowflake.ID) (*billdomain.Bill, error) {
	var bill billdomain.Bill
	err := s.db.WithContext(ctx).First(&bill, "order_id = ?", orderID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bill, nil
}
