package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/benedict-erwin/license-console/pkg/logger"
	"github.com/benedict-erwin/license-console/pkg/redis"
)

// Backend stores tokens for many profiles. Unlike Store it reports errors.
type Backend interface {
	Load(ctx context.Context, profileID string) (string, bool, error)
	Save(ctx context.Context, profileID, token string) error
	Delete(ctx context.Context, profileID string) error
}

// Profiled binds a Backend to a single profile id, giving each browser its own Store
type Profiled struct {
	backend   Backend
	profileID string
	log       *logger.ScopedLogger
}

// ForProfile returns the Store of one profile
func ForProfile(backend Backend, profileID string) *Profiled {
	return &Profiled{
		backend:   backend,
		profileID: profileID,
		log:       logger.WithScope("tokenstore.Profiled"),
	}
}

// Get returns the profile's token, absent on backend failure
func (p *Profiled) Get(ctx context.Context) (string, bool) {
	token, ok, err := p.backend.Load(ctx, p.profileID)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to load token, treating as absent")
		return "", false
	}
	return token, ok && token != ""
}

// Set stores the profile's token
func (p *Profiled) Set(ctx context.Context, token string) {
	if err := p.backend.Save(ctx, p.profileID, token); err != nil {
		p.log.Warn().Err(err).Msg("Failed to save token")
	}
}

// Clear removes the profile's token
func (p *Profiled) Clear(ctx context.Context) {
	if err := p.backend.Delete(ctx, p.profileID); err != nil {
		p.log.Warn().Err(err).Msg("Failed to clear token")
	}
}

// LRUBackend keeps profiles in a bounded in-process cache with idle expiry
type LRUBackend struct {
	cache *expirable.LRU[string, string]
}

// NewLRUBackend returns a backend holding at most size profiles for ttl each
func NewLRUBackend(size int, ttl time.Duration) *LRUBackend {
	if size <= 0 {
		size = 1024
	}
	return &LRUBackend{cache: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Load returns the token of a profile
func (b *LRUBackend) Load(_ context.Context, profileID string) (string, bool, error) {
	token, ok := b.cache.Get(profileID)
	return token, ok, nil
}

// Save stores the token of a profile
func (b *LRUBackend) Save(_ context.Context, profileID, token string) error {
	b.cache.Add(profileID, token)
	return nil
}

// Delete forgets a profile
func (b *LRUBackend) Delete(_ context.Context, profileID string) error {
	b.cache.Remove(profileID)
	return nil
}

// Len reports the number of live profiles
func (b *LRUBackend) Len() int {
	return b.cache.Len()
}

// RedisBackend shares profiles between console instances through Redis
type RedisBackend struct {
	client redis.Client
	ttl    time.Duration
}

// NewRedisBackend stores tokens under "<profile>:authToken" with the given ttl
func NewRedisBackend(client redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl}
}

func redisKey(profileID string) string {
	return profileID + ":" + Key
}

// Load returns the token of a profile
func (b *RedisBackend) Load(ctx context.Context, profileID string) (string, bool, error) {
	token, err := b.client.Get(ctx, redisKey(profileID))
	if errors.Is(err, redis.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// Save stores the token of a profile
func (b *RedisBackend) Save(ctx context.Context, profileID, token string) error {
	return b.client.Set(ctx, redisKey(profileID), token, b.ttl)
}

// Delete forgets a profile
func (b *RedisBackend) Delete(ctx context.Context, profileID string) error {
	return b.client.Delete(ctx, redisKey(profileID))
}
