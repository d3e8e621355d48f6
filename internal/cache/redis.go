package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/openroam/pricing/internal/config"
	"github.com/openroam/pricing/internal/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// ScanCount determines how many keys to scan at once when using SCAN
	ScanCount = 100
)

// RedisCache implements the Cache interface using Redis
type RedisCache struct {
	client *redis.Client
	log    *logger.Logger
}

// Redis cache instance
var redisCache *RedisCache

// NewRedisCache creates a new Redis cache
func NewRedisCache(cfg *config.Configuration, log *logger.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return &RedisCache{client: client, log: log}
}

// InitializeRedisCache initializes the global Redis cache instance
func InitializeRedisCache(cfg *config.Configuration, log *logger.Logger) {
	if redisCache == nil {
		redisCache = NewRedisCache(cfg, log)
	}
}

// GetRedisCache returns the global Redis cache instance
func GetRedisCache() *RedisCache {
	return redisCache
}

// Get retrieves a value from the cache
func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false
		}
		c.log.Errorw("redis GET error", "key", key, "error", err)
		return nil, false
	}
	return value, true
}

// Set stores a value in the cache with an expiration. Values are stored as
// JSON so they survive the round trip through Redis.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if expiration <= 0 {
		expiration = ExpiryDefaultRedis
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.log.Errorw("redis SET marshal error", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, key, string(data), expiration).Err(); err != nil {
		c.log.Errorw("redis SET error", "key", key, "error", err)
	}
}

// Delete removes a value from the cache
func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Errorw("redis DEL error", "key", key, "error", err)
	}
}

// DeleteByPrefix removes all values whose key starts with the given prefix
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) {
	iter := c.client.Scan(ctx, 0, prefix+"*", ScanCount).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Errorw("redis DEL error", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Errorw("redis SCAN error", "prefix", prefix, "error", err)
	}
}

// Flush removes all values from the cache
func (c *RedisCache) Flush(ctx context.Context) {
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		c.log.Errorw("redis FLUSHDB error", "error", err)
	}
}
