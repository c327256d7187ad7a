package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/georgemunganga/souq-backend/internal/modules/store"
)

// RedisCache keeps resolved stores for a short TTL. Cache failures are
// logged and treated as misses. The payment secret key is never cached.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, log: log}
}

func cacheKey(slug string) string { return "souq:tenant:" + slug }

func (c *RedisCache) Get(ctx context.Context, slug string) (*store.Store, bool) {
	raw, err := c.client.Get(ctx, cacheKey(slug)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("slug", slug).Msg("tenant cache get")
		return nil, false
	}
	var s store.Store
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *RedisCache) Set(ctx context.Context, s *store.Store) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(s.Slug), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("slug", s.Slug).Msg("tenant cache set")
	}
}

func (c *RedisCache) Delete(ctx context.Context, slug string) {
	if err := c.client.Del(ctx, cacheKey(slug)).Err(); err != nil {
		c.log.Warn().Err(err).Str("slug", slug).Msg("tenant cache delete")
	}
}
