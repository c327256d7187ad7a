package order

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// Idempotency remembers which order a client-supplied key produced.
type Idempotency interface {
	// Reserve claims key. When the key is already taken it returns the order
	// id recorded for it, or "" while that order is still being placed.
	Reserve(ctx context.Context, key string) (existingID string, reserved bool, err error)
	Complete(ctx context.Context, key, orderID string)
	Release(ctx context.Context, key string)
}

const pendingMarker = "pending"

// RedisIdempotency keeps keys in Redis for 24 hours.
type RedisIdempotency struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisIdempotency(client *redis.Client, log zerolog.Logger) *RedisIdempotency {
	return &RedisIdempotency{client: client, log: log}
}

func idempotencyKey(key string) string { return "souq:idempotency:order:" + key }

func (r *RedisIdempotency) Reserve(ctx context.Context, key string) (string, bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKey(key), pendingMarker, idempotencyTTL).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	existing, err := r.client.Get(ctx, idempotencyKey(key)).Result()
	if err == redis.Nil {
		// Expired between the two calls; let the caller retry.
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if existing == pendingMarker {
		return "", false, nil
	}
	return existing, false, nil
}

func (r *RedisIdempotency) Complete(ctx context.Context, key, orderID string) {
	if err := r.client.Set(ctx, idempotencyKey(key), orderID, idempotencyTTL).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("record idempotency key")
	}
}

func (r *RedisIdempotency) Release(ctx context.Context, key string) {
	if err := r.client.Del(ctx, idempotencyKey(key)).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("release idempotency key")
	}
}
