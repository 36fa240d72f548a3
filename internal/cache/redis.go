package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GTDGit/kbank_qr/internal/config"
)

// ErrMiss is returned when a key is absent.
var ErrMiss = errors.New("cache miss")

// dialCheckTimeout bounds the reachability check in NewRedisClient.
const dialCheckTimeout = 3 * time.Second

// RedisClient is the Store backing TokenCache.
type RedisClient struct {
	rdb *redis.Client
}

// NewRedisClient connects to the configured Redis and fails if it cannot be
// reached within dialCheckTimeout.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, dialCheckTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", rdb.Options().Addr, err)
	}
	return &RedisClient{rdb: rdb}, nil
}

// Set writes value under key; it expires after ttl.
func (r *RedisClient) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// Get reads key. A missing key yields ErrMiss.
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	return r.rdb.Del(ctx, keys...).Err()
}

func (r *RedisClient) Close() error {
	return r.rdb.Close()
}
