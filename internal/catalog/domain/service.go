package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateProductInput struct {
	SKU    string
	Name   string
	Price  int64
	Points int64
	Stock  int64
}

type Service interface {
	Create(ctx context.Context, in CreateProductInput) (*Product, error)
	Get(ctx context.Context, id snowflake.ID) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	List(ctx context.Context, limit int) ([]Product, error)

	// DeductStock atomically lowers stock by qty and fails without side
	// effects when fewer than qty units remain.
	DeductStock(ctx context.Context, id snowflake.ID, qty int64) error
	RestoreStock(ctx context.Context, id snowflake.ID, qty int64) error
}

var (
	ErrProductNotFound   = errors.New("product_not_found")
	ErrInvalidProduct    = errors.New("invalid_product")
	ErrInsufficientStock = errors.New("insufficient_stock")
)
