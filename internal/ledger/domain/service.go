package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// NewEntry describes a balance-affecting event to append.
type NewEntry struct {
	OwnerID     snowflake.ID
	EntryType   EntryType
	Balance     BalanceKind
	Amount      int64
	Description string
	SourceType  SourceType
	SourceID    snowflake.ID
	OccurredAt  time.Time
}

// Service is the only sanctioned way to change a balance. Entries are
// append-only; corrections are issued as offsetting entries.
type Service interface {
	// RecordEntry appends an entry. Re-delivery with the same
	// (owner, type, source) is a no-op; the bool reports whether this call
	// inserted the entry.
	RecordEntry(ctx context.Context, entry NewEntry) (bool, error)
	GetBalance(ctx context.Context, ownerID snowflake.ID, kind BalanceKind) (int64, error)
	ListEntries(ctx context.Context, ownerID snowflake.ID, limit int) ([]LedgerEntry, error)
	ListEntriesBySource(ctx context.Context, sourceType SourceType, sourceID snowflake.ID) ([]LedgerEntry, error)
}

var (
	ErrInvalidOwner      = errors.New("invalid_owner")
	ErrInvalidEntryType  = errors.New("invalid_entry_type")
	ErrInvalidBalance    = errors.New("invalid_balance_kind")
	ErrZeroAmount        = errors.New("zero_amount")
	ErrInvalidOccurredAt = errors.New("invalid_occurred_at")
)
