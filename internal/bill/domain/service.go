package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type EnsureBillInput struct {
	OrderID     snowflake.ID
	MemberID    snowflake.ID
	Amount      int64
	Provider    string
	ProviderRef string
	PaidAt      time.Time
}

type Service interface {
	// EnsureBill inserts the bill for an order if none exists yet. The bool
	// reports whether this call created it; false means a bill was already
	// there and the caller must not re-run downstream effects.
	EnsureBill(ctx context.Context, in EnsureBillInput) (bool, error)

	GetByOrder(ctx context.Context, orderID snowflake.ID) (*Bill, error)
}

var (
	ErrInvalidBill = errors.New("invalid_bill")
)
