package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"wallet/internal/cache"
	"wallet/internal/ledger"
	applog "wallet/internal/log"
	"wallet/internal/storage"
	"wallet/internal/storage/memory"
)

const (
	defaultCacheTTL  = 5 * time.Minute
	redisFeedPrefix  = "wallet:feed:"
	cacheSweepPeriod = time.Minute
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}

	feedCache, closeCache, err := f.createCache(ctx, config)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &BackendResult{
		Store:    store,
		Cache:    feedCache,
		Instance: instanceName(config),
		Cleanup: func() error {
			return errors.Join(closeCache(), store.Close())
		},
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(ctx, config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return repo, nil
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		f.logger.Info("Initialized memory backend", "data_directory", dataDir)
		return memory.NewFromFiles(dataDir), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// instanceName scopes shared feed cache keys to one database. Memory
// stores restart their revision at zero, so each gets a fresh name.
func instanceName(config Config) string {
	switch config.Type {
	case SQLiteBackend:
		path := config.SQLiteDBPath
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		return "sqlite-" + digest(path)
	case PostgresBackend:
		return "postgres-" + digest(config.PostgresURL)
	default:
		return "memory-" + uuid.NewString()
	}
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:6])
}

// createCache returns the feed cache and a function releasing it.
func (f *DefaultFactory) createCache(ctx context.Context, config Config) (cache.Cache[ledger.Feed], func() error, error) {
	noop := func() error { return nil }
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	switch config.Cache {
	case LRUCache:
		lru := cache.NewLRUCache[ledger.Feed](config.CacheSize, ttl)
		manager := cache.NewManager(f.logger.Logger)
		manager.Register(lru)
		manager.StartCleanup(cacheSweepPeriod)
		f.logger.Info("Feed cache enabled", "type", config.Cache, "size", config.CacheSize, "ttl", ttl)
		return lru, func() error { manager.Stop(); return nil }, nil
	case RedisCache:
		rdb, err := cache.NewRedisClient(ctx, config.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		f.logger.Info("Feed cache enabled", "type", config.Cache, "addr", config.RedisAddr, "ttl", ttl)
		return cache.NewRedisCache[ledger.Feed](rdb, redisFeedPrefix, ttl, f.logger.Logger), rdb.Close, nil
	default:
		return cache.Noop[ledger.Feed]{}, noop, nil
	}
}
