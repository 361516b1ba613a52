package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/notion-client/internal/auth"
	"github.com/fivetwenty-io/notion-client/internal/cache"
	"github.com/fivetwenty-io/notion-client/internal/client"
	"github.com/fivetwenty-io/notion-client/internal/constants"
	"github.com/fivetwenty-io/notion-client/internal/logging"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// Session bundles the client and database directory used by one command run.
type Session struct {
	Client    notion.Client
	Directory *cache.Directory

	logger *logging.Logger
	closer io.Closer
}

// NewSession builds a client from the effective configuration, reading the
// token through a config-backed token manager.
func NewSession(stderr io.Writer) (*Session, error) {
	config := loadConfig()

	logger, err := newLogger(config, stderr)
	if err != nil {
		return nil, err
	}

	notionConfig := buildNotionConfig(config)
	if logger != nil {
		notionConfig.Logger = logger
	}

	tokenManager := auth.NewConfigTokenManager(NewConfigPersister())

	c, err := client.NewWithTokenManager(notionConfig, tokenManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	backend, err := newCacheBackend(config.Cache)
	if err != nil {
		// A missing cache only costs extra listings.
		_, _ = fmt.Fprintf(stderr, "Warning: database cache disabled: %v\n", err)
		backend = cache.NewNoOpCache()
	}

	session := &Session{
		Client:    c,
		Directory: cache.NewDirectory(backend, c, cacheTTL(config.Cache)),
		logger:    logger,
	}

	if closer, ok := backend.(io.Closer); ok {
		session.closer = closer
	}

	return session, nil
}

// Close releases the cache connection and flushes the logger.
func (s *Session) Close() {
	if s.closer != nil {
		_ = s.closer.Close()
	}

	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

// ResolveDatabase maps a database title or id to an id. Values that parse as
// ids are used as-is without listing.
func (s *Session) ResolveDatabase(ctx context.Context, ref string) (string, error) {
	if _, err := uuid.Parse(ref); err == nil {
		return ref, nil
	}

	return s.Directory.Resolve(ctx, ref)
}

// Database resolves ref and fetches the database with its schema.
func (s *Session) Database(ctx context.Context, ref string) (*notion.Database, error) {
	id, err := s.ResolveDatabase(ctx, ref)
	if err != nil {
		return nil, err
	}

	return s.Client.GetDatabase(ctx, id)
}

func buildNotionConfig(config *Config) *notion.Config {
	return &notion.Config{
		BaseURL:   config.BaseURL,
		PageSize:  config.PageSize,
		RateLimit: config.RateLimit,
		Debug:     viper.GetBool("verbose"),
	}
}

// newLogger returns nil unless verbose output or a log level was requested.
func newLogger(config *Config, stderr io.Writer) (*logging.Logger, error) {
	level := config.LogLevel

	if viper.GetBool("verbose") {
		level = "debug"
	}

	if level == "" {
		return nil, nil //nolint:nilnil
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	logger, err := logging.New(logging.Config{
		Level:  level,
		Format: config.LogFormat,
		Output: stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}

func newCacheBackend(config CacheConfig) (cache.Cache, error) {
	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultCacheBucket
	}

	ttl := cacheTTL(config)

	cacheConfig := &cache.Config{
		Type:    cache.Type(config.Type),
		TTL:     ttl,
		MaxSize: constants.DefaultCacheSize,
	}

	switch cacheConfig.Type {
	case cache.TypeNATS:
		cacheConfig.NATS = &cache.NATSKVConfig{
			URL:    config.NATSURL,
			Bucket: bucket,
			TTL:    ttl,
		}
	case cache.TypeRedis:
		cacheConfig.Redis = &cache.RedisConfig{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
			Prefix:   bucket,
		}
	}

	backend, err := cache.New(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("creating %s cache: %w", cacheConfig.Type, err)
	}

	return backend, nil
}

func cacheTTL(config CacheConfig) time.Duration {
	if config.TTL == "" {
		return constants.DefaultCacheTTL
	}

	ttl, err := time.ParseDuration(config.TTL)
	if err != nil || ttl <= 0 {
		return constants.DefaultCacheTTL
	}

	return ttl
}
