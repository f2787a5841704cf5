package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient implements Client for both single-node and cluster modes
type RedisClient struct {
	mode      RedisMode
	rdb       redis.UniversalClient
	keyPrefix string
}

// NewRedisClient connects according to opts and verifies the connection with PING
func NewRedisClient(ctx context.Context, opts Options) (*RedisClient, error) {
	var rdb redis.UniversalClient

	switch opts.Mode {
	case ModeSingle, "":
		rdb = redis.NewClient(&redis.Options{
			Addr:         opts.Addr,
			Password:     opts.Password,
			DB:           opts.DB,
			PoolSize:     opts.PoolSize,
			DialTimeout:  opts.DialTimeout,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		})
	case ModeCluster:
		if len(opts.ClusterNodes) == 0 {
			return nil, fmt.Errorf("redis cluster nodes not specified")
		}
		rdb = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        opts.ClusterNodes,
			Password:     opts.Password,
			PoolSize:     opts.PoolSize,
			DialTimeout:  opts.DialTimeout,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported Redis mode: %s", opts.Mode)
	}

	client := &RedisClient{mode: opts.Mode, rdb: rdb, keyPrefix: opts.KeyPrefix}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis (%s): %w", opts.Mode, err)
	}

	return client, nil
}

// buildKey prepends the logical prefix
func (r *RedisClient) buildKey(key string) string {
	return r.keyPrefix + key
}

// Set stores a string value with expiration (0 keeps it forever)
func (r *RedisClient) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return r.rdb.Set(ctx, r.buildKey(key), value, expiration).Err()
}

// Get retrieves a value, returning ErrNotFound for missing keys
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := r.rdb.Get(ctx, r.buildKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

// Delete removes one or more keys
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	finalKeys := make([]string, len(keys))
	for i, key := range keys {
		finalKeys[i] = r.buildKey(key)
	}
	return r.rdb.Del(ctx, finalKeys...).Err()
}

// Health pings the server
func (r *RedisClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.rdb.Ping(ctx).Err()
}

// Close closes the connection pool
func (r *RedisClient) Close() error {
	return r.rdb.Close()
}
