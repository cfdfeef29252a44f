package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opencodeiiita/careercraft-backend/internal/shared/telemetry"
)

const opTimeout = 2 * time.Second

// Redis implements Cache against a Redis backend.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the Redis instance described by redisURL and verifies
// connectivity before returning.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	if redisURL == "" {
		return nil, errors.New("redis url is empty")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Redis{client: client}, nil
}

// Get returns the value for key, treating any backend error as a miss.
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := r.client.Get(opCtx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			telemetry.Warn("cache.get.failed", map[string]any{"key": key, "err": err.Error()})
		}
		return "", false
	}
	return val, true
}

// Set stores value under key with ttl; write failures are logged and reported
// through the return value only.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.client.Set(opCtx, key, value, ttl).Err(); err != nil {
		telemetry.Warn("cache.set.failed", map[string]any{"key": key, "err": err.Error()})
		return false
	}
	return true
}

// Invalidate deletes key, logging but swallowing backend failures.
func (r *Redis) Invalidate(ctx context.Context, key string) bool {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.client.Del(opCtx, key).Err(); err != nil {
		telemetry.Warn("cache.invalidate.failed", map[string]any{"key": key, "err": err.Error()})
		return false
	}
	return true
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Cache = (*Redis)(nil)
