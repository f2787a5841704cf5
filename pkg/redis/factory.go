package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/benedict-erwin/license-console/config"
	"github.com/benedict-erwin/license-console/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// optionsFromConfig maps application config onto client options for the sessions keyspace
func optionsFromConfig(cfg config.RedisConfig) (Options, error) {
	mode := RedisMode(cfg.Mode)
	if mode == "" {
		mode = ModeSingle
	}

	opts := Options{
		Mode:         mode,
		PoolSize:     10,
		DialTimeout:  defaultTimeout,
		ReadTimeout:  defaultTimeout,
		WriteTimeout: defaultTimeout,
	}

	switch mode {
	case ModeSingle:
		if cfg.Host == "" {
			return Options{}, fmt.Errorf("redis host not specified for single-node mode")
		}
		if cfg.Port <= 0 || cfg.Port > 65535 {
			return Options{}, fmt.Errorf("invalid Redis port: %d", cfg.Port)
		}
		opts.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		opts.Password = cfg.Password
		opts.DB = cfg.DB
	case ModeCluster:
		if len(cfg.Cluster.Nodes) == 0 {
			return Options{}, fmt.Errorf("redis cluster nodes not specified")
		}
		opts.ClusterNodes = cfg.Cluster.Nodes
		opts.Password = cfg.Cluster.Password
		opts.KeyPrefix = PrefixSessions
	default:
		return Options{}, fmt.Errorf("unsupported Redis mode: %s", cfg.Mode)
	}
	return opts, nil
}

// NewClientForSessions returns a Redis client for console profile storage
func NewClientForSessions(ctx context.Context) (Client, error) {
	opts, err := optionsFromConfig(config.Get().Redis)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis configuration: %w", err)
	}

	client, err := NewRedisClient(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions Redis client: %w", err)
	}

	logger.WithScope("redis").Info().
		Str("mode", string(opts.Mode)).
		Str("prefix", opts.KeyPrefix).
		Int("db", opts.DB).
		Msg("Sessions Redis client initialized")

	return client, nil
}
