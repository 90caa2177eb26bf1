package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ExportsVersionKey versions every cached BibLaTeX export. Any change to a
// publication, author, journal or project bumps it.
const ExportsVersionKey = "exports:version"

// Cache is a JSON cache with version counters for invalidation. A nil
// *Cache or one without a client misses every lookup and ignores writes.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// InitRedis connects to addr and returns a disabled cache when redis is
// not configured or not reachable.
func InitRedis(ctx context.Context, addr string) *Cache {
	if addr == "" {
		log.Info().Msg("redis not configured, running without cache")
		return &Cache{}
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis not available, running without cache")
		client.Close()
		return &Cache{}
	}

	log.Info().Str("addr", addr).Msg("redis connected successfully")
	return &Cache{client: client}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetVersion returns the counter stored at key, zero when unset.
func (c *Cache) GetVersion(ctx context.Context, key string) int64 {
	if !c.Enabled() {
		return 0
	}
	v, err := c.client.Get(ctx, key).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("key", key).Msg("cache version read failed")
	}
	return v
}

// IncrementVersion bumps the counter so entries keyed on the old value
// are never read again.
func (c *Cache) IncrementVersion(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Incr(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache version bump failed")
	}
}

// InvalidateExports drops every cached export.
func (c *Cache) InvalidateExports(ctx context.Context) {
	c.IncrementVersion(ctx, ExportsVersionKey)
}

// Get decodes the value at key into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
