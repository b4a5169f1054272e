package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Payout is one partner's share of a settled cycle.
type Payout struct {
	PartnerID snowflake.ID `json:"partner_id"`
	MemberID  snowflake.ID `json:"member_id"`
	Tokens    int64        `json:"tokens"`
	Amount    int64        `json:"amount"`
}

// SettleResult reports what a settlement run did.
type SettleResult struct {
	Cycle   *BonusCycle `json:"cycle"`
	Payouts []Payout    `json:"payouts"`
	Dust    int64       `json:"dust"`
}

type Service interface {
	// EnsureOpenCycle returns the open cycle, creating the next one when
	// none is open. The new cycle starts where the last settled one ended
	// and opens with that cycle's leftover dust.
	EnsureOpenCycle(ctx context.Context) (*BonusCycle, error)

	GetOpen(ctx context.Context) (*BonusCycle, error)
	Get(ctx context.Context, id snowflake.ID) (*BonusCycle, error)
	List(ctx context.Context, limit int) ([]BonusCycle, error)

	// Contribute adds amount to the open cycle's pool.
	Contribute(ctx context.Context, amount int64) error

	// SettleDue settles the open cycle if its window has passed, paying
	// each token holder floor(tokens * pool / totalTokens) and carrying the
	// remainder into the next cycle. Returns nil result when nothing is due.
	SettleDue(ctx context.Context) (*SettleResult, error)
}

var (
	ErrNoOpenCycle    = errors.New("no_open_cycle")
	ErrCycleNotFound  = errors.New("cycle_not_found")
	ErrAlreadySettled = errors.New("already_settled")
	ErrInvalidAmount  = errors.New("invalid_amount")
)
