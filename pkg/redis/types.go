package redis

import (
	"context"
	"errors"
	"time"
)

// RedisMode defines the Redis deployment mode
type RedisMode string

const (
	ModeSingle  RedisMode = "single"  // Single-node Redis
	ModeCluster RedisMode = "cluster" // Redis Cluster
)

// PrefixSessions separates console profile keys in cluster mode (no DB selection there)
const PrefixSessions = "sessions:"

// ErrNotFound is returned by Get when the key does not exist
var ErrNotFound = errors.New("redis: key not found")

// Client is the subset of Redis operations the console relies on
type Client interface {
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	Health(ctx context.Context) error
	Close() error
}

// Options holds connection settings for a client
type Options struct {
	Mode         RedisMode
	Addr         string
	ClusterNodes []string
	Password     string
	DB           int
	KeyPrefix    string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}
