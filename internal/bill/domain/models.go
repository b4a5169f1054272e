package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Bill is the settled record of payment for an order. Exactly one bill may
// ever exist per order; its presence marks the completion pipeline as run.
type Bill struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID     snowflake.ID `gorm:"not null;uniqueIndex:ux_bills_order_id" json:"order_id"`
	MemberID    snowflake.ID `gorm:"not null;index" json:"member_id"`
	Amount      int64        `gorm:"not null" json:"amount"`
	Provider    string       `gorm:"type:text;not null;default:''" json:"provider"`
	ProviderRef string       `gorm:"type:text;not null;default:''" json:"provider_ref"`
	PaidAt      time.Time    `gorm:"not null" json:"paid_at"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Bill) TableName() string { return "bills" }
