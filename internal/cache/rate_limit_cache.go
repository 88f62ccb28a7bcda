package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitCache counts requests per client in fixed Redis windows
type RateLimitCache interface {
	// Allow records one request for key and reports whether it fits in the
	// current window. When denied, retryAfter is the time left in the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

type rateLimitCache struct {
	client *redis.Client
	now    func() time.Time
}

// NewRateLimitCache creates a new rate limit cache
func NewRateLimitCache(client *redis.Client) RateLimitCache {
	return &rateLimitCache{
		client: client,
		now:    time.Now,
	}
}

func (c *rateLimitCache) key(key string, windowStart int64) string {
	return fmt.Sprintf("ratelimit:%s:%d", key, windowStart)
}

func (c *rateLimitCache) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := c.now()
	windowStart := now.Truncate(window)
	redisKey := c.key(key, windowStart.Unix())

	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	if incr.Val() > int64(limit) {
		return false, windowStart.Add(window).Sub(now), nil
	}
	return true, 0, nil
}
