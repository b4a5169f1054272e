package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/solventlabs/solvent/internal/catalog/domain"
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

func NewService(p Params) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, in catalogdomain.CreateProductInput) (*catalogdomain.Product, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" || in.Price < 0 || in.Points < 0 || in.Stock < 0 {
		return nil, catalogdomain.ErrInvalidProduct
	}

	now := time.Now().UTC()
	product := catalogdomain.Product{
		ID:        s.genID.Generate(),
		SKU:       sku,
		Name:      name,
		Price:     in.Price,
		Points:    in.Points,
		Stock:     in.Stock,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*catalogdomain.Product, error) {
	var product catalogdomain.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, catalogdomain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Service) FindBySKU(ctx context.Context, sku string) (*catalogdomain.Product, error) {
	var product catalogdomain.Product
	err := s.db.WithContext(ctx).Where("sku = ?", strings.TrimSpace(sku)).First(&product).Error
	if err == gorm.ErrRecordNotFound {
		return nil, catalogdomain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]catalogdomain.Product, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	var products []catalogdomain.Product
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("sku").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Service) DeductStock(ctx context.Context, id snowflake.ID, qty int64) error {
	if qty <= 0 {
		return catalogdomain.ErrInvalidProduct
	}
	result := s.db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
		qty, time.Now().UTC(), id, qty,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&catalogdomain.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return catalogdomain.ErrProductNotFound
		}
		return catalogdomain.ErrInsufficientStock
	}
	return nil
}

func (s *Service) RestoreStock(ctx context.Context, id snowflake.ID, qty int64) error {
	if qty <= 0 {
		return catalogdomain.ErrInvalidProduct
	}
	result := s.db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
		qty, time.Now().UTC(), id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalogdomain.ErrProductNotFound
	}
	return nil
}
