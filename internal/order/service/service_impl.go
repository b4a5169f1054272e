package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/solventlabs/solvent/internal/catalog/domain"
	orderdomain "github.com/solventlabs/solvent/internal/order/domain"
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

func NewService(p Params) orderdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, in orderdomain.CreateOrderInput) (*orderdomain.Order, error) {
	orderNo := strings.TrimSpace(in.OrderNo)
	if orderNo == "" {
		return nil, orderdomain.ErrInvalidOrder
	}
	if len(in.Lines) == 0 {
		return nil, orderdomain.ErrEmptyOrder
	}

	now := time.Now().UTC()
	order := orderdomain.Order{
		ID:        s.genID.Generate(),
		OrderNo:   orderNo,
		MemberID:  in.MemberID,
		Status:    orderdomain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range in.Lines {
			if line.Quantity <= 0 {
				return orderdomain.ErrInvalidOrder
			}

			var product catalogdomain.Product
			if err := tx.First(&product, "id = ?", line.ProductID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return catalogdomain.ErrProductNotFound
				}
				return err
			}

			item := orderdomain.OrderItem{
				ID:        s.genID.Generate(),
				OrderID:   order.ID,
				ProductID: product.ID,
				SKU:       product.SKU,
				Name:      product.Name,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				Points:    product.Points * line.Quantity,
				CreatedAt: now,
			}
			order.Items = append(order.Items, item)
			order.TotalAmount += product.Price * line.Quantity
			order.TotalPoints += item.Points
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, orderdomain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) FindByOrderNo(ctx context.Context, orderNo string) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("order_no = ?", strings.TrimSpace(orderNo)).
		First(&order).Error
	if err == gorm.ErrRecordNotFound {
		return nil, orderdomain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) ListByMember(ctx context.Context, memberID snowflake.ID, limit int) ([]orderdomain.Order, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	var orders []orderdomain.Order
	err := s.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Service) LinkMember(ctx context.Context, orderID, memberID snowflake.ID) error {
	if orderID == 0 || memberID == 0 {
		return orderdomain.ErrInvalidOrder
	}
	result := s.db.WithContext(ctx).Exec(
		`UPDATE orders SET member_id = ?, updated_at = ? WHERE id = ? AND member_id IN (0, ?)`,
		memberID, time.Now().UTC(), orderID, memberID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&orderdomain.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return orderdomain.ErrOrderNotFound
		}
		s.log.Warn("order already linked to another member",
			zap.String("order_id", orderID.String()),
			zap.String("member_id", memberID.String()),
		)
	}
	return nil
}

func (s *Service) MarkConfirmed(ctx context.Context, id snowflake.ID) (bool, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, confirmed_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(orderdomain.StatusConfirmed), now, now, id, string(orderdomain.StatusPending),
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&orderdomain.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return false, err
		}
		if count == 0 {
			return false, orderdomain.ErrOrderNotFound
		}
		return false, nil
	}
	return true, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, to orderdomain.Status) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !orderdomain.CanTransition(order.Status, to) {
		return orderdomain.ErrInvalidTransition
	}

	result := s.db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), time.Now().UTC(), id, string(order.Status),
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return orderdomain.ErrInvalidTransition
	}
	return nil
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(orderdomain.StatusCancelled), now, id, string(orderdomain.StatusPending),
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&orderdomain.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return orderdomain.ErrOrderNotFound
		}
		return orderdomain.ErrNotPending
	}
	return nil
}
