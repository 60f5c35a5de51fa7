package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-shop-services/internal/logging"
	"github.com/ariefcatur/go-shop-services/internal/orders"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OrderCache stores orders as JSON. Redis errors are logged and treated as
// misses so the order service keeps working without the cache.
type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ orders.Cache = (*OrderCache)(nil)

func NewOrderCache(rdb *redis.Client, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = TTLOrderCache
	}
	return &OrderCache{rdb: rdb, ttl: ttl}
}

func orderKey(id int64) string { return fmt.Sprintf(KeyOrder, id) }

func (c *OrderCache) Get(ctx context.Context, id int64) (*orders.Order, bool) {
	b, err := c.rdb.Get(ctx, orderKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logging.FromContext(ctx).Warn("order_cache_get_failed", zap.Int64("order_id", id), zap.Error(err))
		return nil, false
	}
	var o orders.Order
	if err := json.Unmarshal(b, &o); err != nil {
		logging.FromContext(ctx).Warn("order_cache_corrupt", zap.Int64("order_id", id), zap.Error(err))
		_ = c.rdb.Del(ctx, orderKey(id)).Err()
		return nil, false
	}
	return &o, true
}

func (c *OrderCache) Set(ctx context.Context, o *orders.Order) {
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, orderKey(o.ID), b, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("order_cache_set_failed", zap.Int64("order_id", o.ID), zap.Error(err))
	}
}

func (c *OrderCache) Delete(ctx context.Context, id int64) {
	if err := c.rdb.Del(ctx, orderKey(id)).Err(); err != nil {
		logging.FromContext(ctx).Warn("order_cache_delete_failed", zap.Int64("order_id", id), zap.Error(err))
	}
}
