package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"orderpipeline/internal/observability"
)

const redisKeyPrefix = "dedup:order:"

// RedisCache keys recently processed order ids in Redis with the window as
// TTL, so expiry needs no sweeping here either. Redis errors fail open: a
// broken cache must not reject live orders, it only weakens dedup until the
// backend recovers.
type RedisCache struct {
	client *redis.Client
	window time.Duration
	log    observability.Logger
}

func NewRedisCache(client *redis.Client, window time.Duration, logger observability.Logger) *RedisCache {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &RedisCache{
		client: client,
		window: window,
		log:    logger.With(observability.F("component", "dedup_redis")),
	}
}

func (c *RedisCache) IsDuplicate(ctx context.Context, orderID string) bool {
	n, err := c.client.Exists(ctx, redisKeyPrefix+orderID).Result()
	if err != nil {
		c.log.Warn("dedup_lookup_failed",
			observability.F("order_id", orderID),
			observability.F("error", err.Error()),
		)
		return false
	}
	return n > 0
}

func (c *RedisCache) Record(ctx context.Context, orderID string, at time.Time) {
	err := c.client.Set(ctx, redisKeyPrefix+orderID, at.UTC().Format(time.RFC3339Nano), c.window).Err()
	if err != nil {
		c.log.Warn("dedup_record_failed",
			observability.F("order_id", orderID),
			observability.F("error", err.Error()),
		)
	}
}
