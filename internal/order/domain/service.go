package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type LineInput struct {
	ProductID snowflake.ID
	Quantity  int64
}

// CreateOrderInput may carry MemberID 0 for a guest checkout; the member is
// linked later by the completion pipeline.
type CreateOrderInput struct {
	OrderNo  string
	MemberID snowflake.ID
	Lines    []LineInput
}

type Service interface {
	// Create places a pending order, snapshotting product name and price
	// per line. Stock is not touched until the order is paid.
	Create(ctx context.Context, in CreateOrderInput) (*Order, error)

	Get(ctx context.Context, id snowflake.ID) (*Order, error)
	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)
	ListByMember(ctx context.Context, memberID snowflake.ID, limit int) ([]Order, error)

	// LinkMember sets the order's member when it has none. An order already
	// linked to a different member is left alone.
	LinkMember(ctx context.Context, orderID, memberID snowflake.ID) error

	// MarkConfirmed flips a pending order to confirmed after payment. It
	// reports whether this call performed the transition; a second call is
	// a no-op.
	MarkConfirmed(ctx context.Context, id snowflake.ID) (bool, error)

	// UpdateStatus advances fulfillment along
	// confirmed -> processing -> shipped -> delivered.
	UpdateStatus(ctx context.Context, id snowflake.ID, to Status) error
	Cancel(ctx context.Context, id snowflake.ID) error
}

var (
	ErrOrderNotFound     = errors.New("order_not_found")
	ErrInvalidOrder      = errors.New("invalid_order")
	ErrEmptyOrder        = errors.New("empty_order")
	ErrNotPending        = errors.New("order_not_pending")
	ErrInvalidTransition = errors.New("invalid_status_transition")
)
