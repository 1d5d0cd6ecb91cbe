package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores encoded upstream responses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type MemCache struct {
	mu  sync.Mutex
	m   map[string]memEntry
	now func() time.Time
}

type memEntry struct {
	val     []byte
	expires time.Time
}

func NewMemCache() *MemCache {
	return &MemCache{m: make(map[string]memEntry), now: time.Now}
}

func (c *MemCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.m, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (c *MemCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = memEntry{val: val, expires: c.now().Add(ttl)}
	return nil
}

type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisCache(rdb *redis.Client, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.prefix+key, val, ttl).Err()
}

const (
	keyProducts   = "products"
	keyCategories = "categories"
	keyShowcase   = "showcase"
)

// CachedStore serves reads from a cache and fills it from the wrapped store.
// Cache failures are logged and fall through to the store.
type CachedStore struct {
	Store Store
	Cache Cache
	TTL   time.Duration
	Log   *zap.Logger
}

func (s *CachedStore) Ping(ctx context.Context) error { return s.Store.Ping(ctx) }

func (s *CachedStore) Products(ctx context.Context) ([]Product, error) {
	return cached(ctx, s, keyProducts, s.Store.Products)
}

func (s *CachedStore) Categories(ctx context.Context) ([]Category, error) {
	return cached(ctx, s, keyCategories, s.Store.Categories)
}

func (s *CachedStore) Showcase(ctx context.Context) ([]ShowcaseItem, error) {
	return cached(ctx, s, keyShowcase, s.Store.Showcase)
}

func cached[T any](ctx context.Context, s *CachedStore, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if b, ok, err := s.Cache.Get(ctx, key); err != nil {
		s.warn("cache get failed", key, err)
	} else if ok {
		var out []T
		derr := json.Unmarshal(b, &out)
		if derr == nil {
			return out, nil
		}
		s.warn("cache decode failed", key, derr)
	}

	out, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		if err := s.Cache.Set(ctx, key, b, s.TTL); err != nil {
			s.warn("cache set failed", key, err)
		}
	}
	return out, nil
}

func (s *CachedStore) warn(msg, key string, err error) {
	if s.Log != nil {
		s.Log.Warn(msg, zap.String("key", key), zap.Error(err))
	}
}
