package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"recipe-manager/internal/pkg/common"
)

// Cache is a thin read-through cache on redis. A nil *Cache is valid and
// disables caching, so callers never branch on configuration.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to redis and verifies the connection with a ping.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	common.LogInfo("connected to redis", zap.String("addr", addr))
	return &Cache{client: client, ttl: ttl}, nil
}

// IngredientsKey caches the full ingredient listing.
const IngredientsKey = "ingredients:all"

// RecipeKey caches a single recipe by id.
func RecipeKey(id string) string {
	return "recipe:" + id
}

// Get returns the cached payload for key, or false on miss. Redis failures
// count as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		common.LogWarn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return data, true
}

// Set stores the payload under key with the configured TTL. Failures are
// logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, data []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		common.LogWarn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete invalidates keys after a write. Failures are logged and swallowed.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		common.LogWarn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
