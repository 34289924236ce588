package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	revokedCacheSize = 4096
	revokedCacheTTL  = 5 * time.Minute
)

// TokenRevoker keeps the ids of logged-out tokens until they would have
// expired anyway.
// Key format: revoked:<jti>
//
// Positive answers are also remembered in a small in-process LRU. A revoked
// token never becomes valid again, so only hits are cached.
type TokenRevoker struct {
	client *redis.Client
	known  *expirable.LRU[string, struct{}]
}

func NewTokenRevoker(client *redis.Client) *TokenRevoker {
	return &TokenRevoker{
		client: client,
		known:  expirable.NewLRU[string, struct{}](revokedCacheSize, nil, revokedCacheTTL),
	}
}

func (r *TokenRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	r.known.Add(tokenID, struct{}{})
	return nil
}

func (r *TokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	if _, ok := r.known.Get(tokenID); ok {
		return true, nil
	}
	n, err := r.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	if n > 0 {
		r.known.Add(tokenID, struct{}{})
		return true, nil
	}
	return false, nil
}

func revokedKey(tokenID string) string {
	return "revoked:" + tokenID
}
