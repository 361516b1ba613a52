package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/notion-client/internal/constants"
)

// Type represents the type of cache backend.
type Type string

const (
	// TypeMemory represents in-memory cache.
	TypeMemory Type = "memory"

	// TypeNATS represents NATS KV cache.
	TypeNATS Type = "nats"

	// TypeRedis represents a Redis cache.
	TypeRedis Type = "redis"

	// TypeNone represents no caching.
	TypeNone Type = "none"
)

// Static errors for err113 compliance.
var (
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrRedisConfigRequired   = errors.New("redis configuration required for redis cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// Config configures the cache backend.
type Config struct {
	// Type is the cache backend type
	Type Type

	// TTL of directory entries.
	TTL time.Duration

	// Memory cache configuration
	MaxSize int

	// NATS KV cache configuration
	NATS *NATSKVConfig

	// Redis cache configuration
	Redis *RedisConfig
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() *Config {
	return &Config{
		Type:    TypeMemory,
		TTL:     constants.DefaultCacheTTL,
		MaxSize: constants.DefaultCacheSize,
	}
}

// New creates a cache backend from configuration.
func New(config *Config) (Cache, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Type {
	case TypeMemory, "":
		maxSize := config.MaxSize
		if maxSize <= 0 {
			maxSize = constants.DefaultCacheSize
		}

		return NewMemoryCache(maxSize), nil

	case TypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		nats := *config.NATS
		if nats.TTL == 0 {
			nats.TTL = config.TTL
		}

		return NewNATSKVCache(&nats)

	case TypeRedis:
		if config.Redis == nil {
			return nil, ErrRedisConfigRequired
		}

		return NewRedisCache(config.Redis)

	case TypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

// NoOpCache is a cache that does nothing (no caching).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always returns an error (nothing cached).
func (c *NoOpCache) Get(ctx context.Context, key string) (*Entry, error) {
	return nil, ErrCacheDisabled
}

// Set does nothing.
func (c *NoOpCache) Set(ctx context.Context, key string, entry *Entry) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear does nothing.
func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

// Has always returns false.
func (c *NoOpCache) Has(ctx context.Context, key string) bool {
	return false
}

// Chain implements a chain of cache backends (L1, L2, etc.)
type Chain struct {
	caches []Cache
}

// NewChain creates a new cache chain.
func NewChain(caches ...Cache) *Chain {
	return &Chain{
		caches: caches,
	}
}

// Get retrieves an item from the first cache that has it and back-fills the
// caches in front of it.
func (c *Chain) Get(ctx context.Context, key string) (*Entry, error) {
	for i, cache := range c.caches {
		entry, err := cache.Get(ctx, key)
		if err == nil {
			for j := range i {
				_ = c.caches[j].Set(ctx, key, entry)
			}

			return entry, nil
		}
	}

	return nil, ErrKeyNotFoundInAnyCache
}

// Set stores an item in all caches.
func (c *Chain) Set(ctx context.Context, key string, entry *Entry) error {
	var errs []error

	for _, cache := range c.caches {
		err := cache.Set(ctx, key, entry)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Delete removes an item from all caches.
func (c *Chain) Delete(ctx context.Context, key string) error {
	var errs []error

	for _, cache := range c.caches {
		err := cache.Delete(ctx, key)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Clear removes all items from all caches.
func (c *Chain) Clear(ctx context.Context) error {
	var errs []error

	for _, cache := range c.caches {
		err := cache.Clear(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Has checks if a key exists in any cache.
func (c *Chain) Has(ctx context.Context, key string) bool {
	for _, cache := range c.caches {
		if cache.Has(ctx, key) {
			return true
		}
	}

	return false
}
