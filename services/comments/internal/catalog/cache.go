package catalog

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/tubesocial/services/comments/internal/store"
)

// Cache is the key/marker store behind Cached.
type Cache interface {
	Has(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) error
	Forget(ctx context.Context, keys ...string) error
}

type RedisCache struct {
	Client *redis.Client
}

func NewRedisCache(url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisCache{Client: redis.NewClient(opt)}, nil
}

func (c *RedisCache) Has(ctx context.Context, key string) (bool, error) {
	n, err := c.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisCache) Mark(ctx context.Context, key string, ttl time.Duration) error {
	return c.Client.Set(ctx, key, 1, ttl).Err()
}

func (c *RedisCache) Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// CacheKey is the cache key for a known-existing parent. UUID ids are keyed
// in canonical form so lookups and evictions agree on spelling.
func CacheKey(kind store.ParentKind, id string) string {
	return "comments:parent:" + string(kind) + ":" + key(id)
}

// Cached remembers positive answers from next for ttl. Negative answers are
// never cached so a freshly created parent is visible immediately. Cache
// failures are logged and fall through to next.
type Cached struct {
	kind  store.ParentKind
	next  ExistenceChecker
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCached(kind store.ParentKind, next ExistenceChecker, cache Cache, ttl time.Duration, log *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{kind: kind, next: next, cache: cache, ttl: ttl, log: log}
}

func (c *Cached) Exists(ctx context.Context, id string) (bool, error) {
	key := CacheKey(c.kind, id)
	hit, err := c.cache.Has(ctx, key)
	if err != nil {
		c.log.Warn("parent cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return true, nil
	}

	ok, err := c.next.Exists(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	if err := c.cache.Mark(ctx, key, c.ttl); err != nil {
		c.log.Warn("parent cache write failed", zap.String("key", key), zap.Error(err))
	}
	return true, nil
}

// Evict drops the cached entry for id.
func (c *Cached) Evict(ctx context.Context, id string) error {
	return c.cache.Forget(ctx, CacheKey(c.kind, id))
}
