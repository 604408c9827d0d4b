package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisMedium stores values as plain Redis strings under a key prefix.
type RedisMedium struct {
	redis  *redis.Client
	prefix string
}

// NewRedisMedium creates a Redis-backed medium.
func NewRedisMedium(redisClient *redis.Client, prefix string) *RedisMedium {
	if redisClient == nil {
		panic("kvstore: redis client required")
	}
	return &RedisMedium{redis: redisClient, prefix: prefix}
}

func (r *RedisMedium) key(key string) string {
	return fmt.Sprintf("%s%s", r.prefix, key)
}

// Get retrieves the value under key; redis.Nil is reported as not found.
func (r *RedisMedium) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.redis.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("get", key, err)
	}
	return value, true, nil
}

// Set stores value under key without expiry.
func (r *RedisMedium) Set(ctx context.Context, key, value string) error {
	if err := r.redis.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return wrap("set", key, classifyRedisError(err))
	}
	return nil
}

// Delete removes key.
func (r *RedisMedium) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return wrap("delete", key, err)
	}
	return nil
}

// classifyRedisError maps maxmemory rejections onto ErrQuotaExceeded.
func classifyRedisError(err error) error {
	if strings.HasPrefix(err.Error(), "OOM ") {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}
