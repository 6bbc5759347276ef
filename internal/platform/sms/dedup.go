package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const dedupKeyPrefix = "sms:inbound:"

// Dedup drops duplicate inbound deliveries. The gateway is at-least-once,
// so the same message ID can arrive more than once; the first delivery
// claims the ID with SETNX and later ones are dropped until the TTL lapses.
type Dedup struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDedup builds a duplicate-delivery guard. A nil client disables the
// guard: every delivery is treated as new.
func NewDedup(rdb *redis.Client, ttl time.Duration) *Dedup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Dedup{rdb: rdb, ttl: ttl}
}

// Seen reports whether messageID was already delivered. The first call for
// an ID claims it and returns false.
func (d *Dedup) Seen(ctx context.Context, messageID string) (bool, error) {
	if d.rdb == nil || messageID == "" {
		return false, nil
	}
	claimed, err := d.rdb.SetNX(ctx, dedupKeyPrefix+messageID, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup setnx: %w", err)
	}
	return !claimed, nil
}
