package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EntryType classifies a balance-affecting event.
type EntryType string

const (
	EntryTypeEarn        EntryType = "earn"
	EntryTypeSpend       EntryType = "spend"
	EntryTypeRefund      EntryType = "refund"
	EntryTypeCommission  EntryType = "commission"
	EntryTypeBonusPayout EntryType = "bonus_payout"
	EntryTypeTierGrant   EntryType = "tier_grant"
	EntryTypeAdjustment  EntryType = "adjustment"
)

// BalanceKind selects which of an owner's balances an entry applies to.
type BalanceKind string

const (
	BalancePoints BalanceKind = "points"
	BalanceCash   BalanceKind = "cash"
)

type SourceType string

const (
	SourceTypeOrder      SourceType = "order"
	SourceTypeBonusCycle SourceType = "bonus_cycle"
	SourceTypeTier       SourceType = "tier"
	SourceTypeManual     SourceType = "manual"
)

// LedgerEntry is the immutable record of a balance-affecting event. The
// current balance for any owner is always the sum of their entries; cached
// balances are derived, never authoritative.
type LedgerEntry struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	OwnerID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_ledger_entries_source,priority:1"`
	EntryType   EntryType    `gorm:"type:text;not null;uniqueIndex:ux_ledger_entries_source,priority:2"`
	Balance     BalanceKind  `gorm:"type:text;not null;default:'points'"`
	Amount      int64        `gorm:"not null"`
	Description string       `gorm:"type:text;not null;default:''"`
	SourceType  SourceType   `gorm:"type:text;not null;default:'';uniqueIndex:ux_ledger_entries_source,priority:3"`
	SourceID    snowflake.ID `gorm:"not null;default:0;uniqueIndex:ux_ledger_entries_source,priority:4"`
	OccurredAt  time.Time    `gorm:"not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }
