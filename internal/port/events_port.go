package port

import (
	"context"
	"time"

	"github.com/rajarohan/foodiez/internal/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}

// IdempotencyCache remembers which order a client idempotency key produced.
// Get returns "" and no error on a miss.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
