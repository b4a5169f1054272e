package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// CommissionInput describes a paid order whose referral chain should be
// credited.
type CommissionInput struct {
	OrderID    snowflake.ID
	BuyerID    snowflake.ID
	Amount     int64
	OccurredAt time.Time
}

// Credit is one paid commission hop.
type Credit struct {
	Level      int          `json:"level"`
	ReferrerID snowflake.ID `json:"referrer_id"`
	Amount     int64        `json:"amount"`
}

type Service interface {
	// PayCommissions walks the buyer's referral chain, crediting each
	// configured level floor(amount * rate / 10000). The walk stops at the
	// first member without a referrer. A chain that loops back onto the
	// buyer or an already-credited member is cut short.
	PayCommissions(ctx context.Context, in CommissionInput) ([]Credit, error)
}

var (
	ErrInvalidCommission = errors.New("invalid_commission")
)
