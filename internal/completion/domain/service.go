package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/solventlabs/solvent/internal/member/domain"
)

// CompleteOrderInput identifies a paid order. Either OrderID or OrderNo must
// be set; OrderID wins when both are. Member identity, referral code and
// address are optional and come from the checkout session when present.
type CompleteOrderInput struct {
	OrderID     snowflake.ID
	OrderNo     string
	Provider    string
	ProviderRef string
	PaidAt      time.Time

	MemberExternalID string
	MemberName       string
	MemberEmail      string
	MemberPhone      string
	ReferralCode     string
	Address          *memberdomain.AddressInput
}

// CompleteOrderResult reports what the completion pipeline did. Duplicate
// means a bill already existed and no monetary step ran. Warnings carry
// monetary steps that failed softly; the bill still stands and the steps are
// retried out of band.
type CompleteOrderResult struct {
	OrderID   snowflake.ID `json:"order_id"`
	MemberID  snowflake.ID `json:"member_id,omitempty"`
	BillID    snowflake.ID `json:"bill_id,omitempty"`
	Duplicate bool         `json:"duplicate"`
	Warnings  []string     `json:"warnings,omitempty"`
}

type Service interface {
	// CompleteOrder records the payment and, exactly once per order, runs
	// the downstream side effects: member linkage, inventory, point
	// earning, bonus pool contribution and referral commissions.
	CompleteOrder(ctx context.Context, in CompleteOrderInput) (*CompleteOrderResult, error)
}
