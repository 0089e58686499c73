package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyIdemCheckout maps idem:checkout:{customer_id}:{idempotency_key} to an order id.
const KeyIdemCheckout = "idem:checkout:%s"

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// IdempotencyCache stores keys under the KeyIdemCheckout namespace. It is a fast
// path in front of the orders table, which stays the source of truth.
type IdempotencyCache struct {
	rdb redis.Cmdable
}

func NewIdempotencyCache(rdb redis.Cmdable) *IdempotencyCache {
	return &IdempotencyCache{rdb: rdb}
}

func (c *IdempotencyCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, fmt.Sprintf(KeyIdemCheckout, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("rdb.Get: %w", err)
	}
	return v, nil
}

func (c *IdempotencyCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, fmt.Sprintf(KeyIdemCheckout, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("rdb.Set: %w", err)
	}
	return nil
}
