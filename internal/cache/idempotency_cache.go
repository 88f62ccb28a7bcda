package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyCache maps idempotency keys to already-produced screening ids
type IdempotencyCache interface {
	Lookup(ctx context.Context, key string) (string, error)
	Remember(ctx context.Context, key, screeningID string) error
}

type idempotencyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyCache creates a new idempotency cache
func NewIdempotencyCache(client *redis.Client, ttl time.Duration) IdempotencyCache {
	return &idempotencyCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *idempotencyCache) key(key string) string {
	return fmt.Sprintf("idem:%s", key)
}

// Lookup returns "" when the key has not been seen within the TTL
func (c *idempotencyCache) Lookup(ctx context.Context, key string) (string, error) {
	id, err := c.client.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// Remember stores the first screening id for a key; later calls keep it
func (c *idempotencyCache) Remember(ctx context.Context, key, screeningID string) error {
	return c.client.SetNX(ctx, c.key(key), screeningID, c.ttl).Err()
}
