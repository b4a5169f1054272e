package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	ledgerdomain "github.com/solventlabs/solvent/internal/ledger/domain"
)

const balanceCacheTTL = 5 * time.Minute

// balanceCache is a read-through accelerator over the ledger sum. It is
// invalidated on every write for the owner; the ledger rows stay the record.
type balanceCache struct {
	client *redis.Client
}

func newBalanceCache(client *redis.Client) *balanceCache {
	return &balanceCache{client: client}
}

func balanceKey(ownerID snowflake.ID, kind ledgerdomain.BalanceKind) string {
	return fmt.Sprintf("balance:%s:%s", ownerID.String(), string(kind))
}

func (c *balanceCache) Get(ctx context.Context, ownerID snowflake.ID, kind ledgerdomain.BalanceKind) (int64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	raw, err := c.client.Get(ctx, balanceKey(ownerID, kind)).Result()
	if err != nil {
		return 0, false
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func (c *balanceCache) Set(ctx context.Context, ownerID snowflake.ID, kind ledgerdomain.BalanceKind, value int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, balanceKey(ownerID, kind), strconv.FormatInt(value, 10), balanceCacheTTL).Err()
}

func (c *balanceCache) Invalidate(ctx context.Context, ownerID snowflake.ID, kind ledgerdomain.BalanceKind) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, balanceKey(ownerID, kind)).Err()
}
