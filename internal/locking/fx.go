package locking

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/solventlabs/solvent/internal/config"
	"go.uber.org/fx"
)

// NewRedisClient returns nil when no redis address is configured; locks and
// caches then degrade to no-ops.
func NewRedisClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

var Module = fx.Module("locking",
	fx.Provide(NewRedisClient),
	fx.Provide(NewLocker),
)
