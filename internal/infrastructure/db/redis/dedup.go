package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = time.Hour

// DedupChecker remembers which purchase events were already applied.
// Key format: dedup:<order_number>:<status>:<unix_timestamp>
type DedupChecker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client, ttl: dedupTTL}
}

// IsDuplicate reports whether this exact event has already been processed.
func (d *DedupChecker) IsDuplicate(ctx context.Context, orderNumber, status string, ts time.Time) (bool, error) {
	n, err := d.client.Exists(ctx, dedupKey(orderNumber, status, ts)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that the event has been processed. The key expires after an hour.
func (d *DedupChecker) Mark(ctx context.Context, orderNumber, status string, ts time.Time) error {
	if err := d.client.Set(ctx, dedupKey(orderNumber, status, ts), "1", d.ttl).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

func dedupKey(orderNumber, status string, ts time.Time) string {
	return fmt.Sprintf("dedup:%s:%s:%d", orderNumber, status, ts.Unix())
}
