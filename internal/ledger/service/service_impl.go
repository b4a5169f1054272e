package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	ledgerdomain "github.com/solventlabs/solvent/internal/ledger/domain"
	"github.com/solventlabs/solvent/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Redis   *redis.Client    `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	cache   *balanceCache
	metrics *metrics.Metrics
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ledger.service"),
		genID:   p.GenID,
		cache:   newBalanceCache(p.Redis),
		metrics: p.Metrics,
	}
}

func (s *Service) RecordEntry(ctx context.Context, entry ledgerdomain.NewEntry) (bool, error) {
	if entry.OwnerID == 0 {
		return false, ledgerdomain.ErrInvalidOwner
	}
	entryType := ledgerdomain.EntryType(strings.TrimSpace(string(entry.EntryType)))
	if entryType == "" {
		return false, ledgerdomain.ErrInvalidEntryType
	}
	balance := entry.Balance
	if balance == "" {
		balance = ledgerdomain.BalancePoints
	}
	if balance != ledgerdomain.BalancePoints && balance != ledgerdomain.BalanceCash {
		return false, ledgerdomain.ErrInvalidBalance
	}
	if entry.Amount == 0 {
		return false, ledgerdomain.ErrZeroAmount
	}
	if entry.OccurredAt.IsZero() {
		return false, ledgerdomain.ErrInvalidOccurredAt
	}

	result := s.db.WithContext(ctx).Exec(
		`INSERT INTO ledger_entries (
			id, owner_id, entry_type, balance, amount, description, source_type, source_id, occurred_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, entry_type, source_type, source_id) DO NOTHING`,
		s.genID.Generate(),
		entry.OwnerID,
		string(entryType),
		string(balance),
		entry.Amount,
		entry.Description,
		string(entry.SourceType),
		entry.SourceID,
		entry.OccurredAt.UTC(),
		time.Now().UTC(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	// The cache must never survive a write it did not see.
	s.cache.Invalidate(ctx, entry.OwnerID, balance)
	s.metrics.IncLedgerEntry(string(entryType))
	return true, nil
}

func (s *Service) GetBalance(ctx context.Context, ownerID snowflake.ID, kind ledgerdomain.BalanceKind) (int64, error) {
	if ownerID == 0 {
		return 0, ledgerdomain.ErrInvalidOwner
	}
	if kind == "" {
		kind = ledgerdomain.BalancePoints
	}

	if cached, ok := s.cache.Get(ctx, ownerID, kind); ok {
		return cached, nil
	}

	var balance int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM ledger_entries
		 WHERE owner_id = ? AND balance = ?`,
		ownerID,
		string(kind),
	).Scan(&balance).Error
	if err != nil {
		return 0, err
	}

	s.cache.Set(ctx, ownerID, kind, balance)
	return balance, nil
}

func (s *Service) ListEntries(ctx context.Context, ownerID snowflake.ID, limit int) ([]ledgerdomain.LedgerEntry, error) {
	if ownerID == 0 {
		return nil, ledgerdomain.ErrInvalidOwner
	}
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	var entries []ledgerdomain.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) ListEntriesBySource(ctx context.Context, sourceType ledgerdomain.SourceType, sourceID snowflake.ID) ([]ledgerdomain.LedgerEntry, error) {
	var entries []ledgerdomain.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", string(sourceType), sourceID).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
