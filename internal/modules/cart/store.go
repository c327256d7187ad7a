package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Store persists carts. Load returns an empty cart when none is stored.
type Store interface {
	Load(ctx context.Context, storeID uuid.UUID, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, storeID uuid.UUID, id string) error
}

// RedisStore keeps each cart as one JSON value that expires ttl after the
// last change.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(storeID uuid.UUID, id string) string {
	return fmt.Sprintf("souq:cart:%s:%s", storeID, id)
}

func (s *RedisStore) Load(ctx context.Context, storeID uuid.UUID, id string) (*Cart, error) {
	raw, err := s.client.Get(ctx, redisKey(storeID, id)).Bytes()
	if err == redis.Nil {
		return &Cart{ID: id, StoreID: storeID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Save(ctx context.Context, c *Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(c.StoreID, c.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, storeID uuid.UUID, id string) error {
	return s.client.Del(ctx, redisKey(storeID, id)).Err()
}

// MemoryStore keeps carts in process. Used when Redis is not configured.
// Carts expire ttl after their last save, as they do in Redis.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	carts     map[string]memoryCart
	lastSweep time.Time
	now       func() time.Time
}

type memoryCart struct {
	cart    Cart
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, carts: map[string]memoryCart{}, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, storeID uuid.UUID, id string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := redisKey(storeID, id)
	e, ok := s.carts[key]
	if !ok || !s.now().Before(e.expires) {
		delete(s.carts, key)
		return &Cart{ID: id, StoreID: storeID}, nil
	}
	c := e.cart
	c.Items = append([]Item(nil), c.Items...)
	return &c, nil
}

func (s *MemoryStore) Save(_ context.Context, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	cp := *c
	cp.Items = append([]Item(nil), c.Items...)
	s.carts[redisKey(c.StoreID, c.ID)] = memoryCart{cart: cp, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, storeID uuid.UUID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, redisKey(storeID, id))
	return nil
}

// Len reports how many carts are held, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// sweep drops expired carts, at most once per ttl. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for k, e := range s.carts {
		if !now.Before(e.expires) {
			delete(s.carts, k)
		}
	}
}
