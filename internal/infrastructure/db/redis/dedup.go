package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tickDedupTTL = 48 * time.Hour

// TickDedup provides idempotency checks for scheduler work items backed by
// Redis. Keys are the scheduler's item keys, e.g.
// tick:booking:<id>:expire.
type TickDedup struct {
	client *redis.Client
}

// NewTickDedup creates a TickDedup wrapping the given Redis client.
func NewTickDedup(client *redis.Client) *TickDedup {
	return &TickDedup{client: client}
}

// Seen reports whether this work item has already been processed.
func (d *TickDedup) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("tick dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this work item has been processed (expires after
// tickDedupTTL).
func (d *TickDedup) Mark(ctx context.Context, key string) error {
	return d.client.Set(ctx, key, "1", tickDedupTTL).Err()
}
