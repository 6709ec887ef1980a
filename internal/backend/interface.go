// Package backend opens the ledger store and feed cache selected by
// configuration.
package backend

import (
	"context"
	"time"

	"wallet/internal/cache"
	"wallet/internal/ledger"
	"wallet/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the opened store, the feed cache and a cleanup
// function releasing both.
type BackendResult struct {
	Store storage.Store
	Cache cache.Cache[ledger.Feed]
	// Instance identifies the database behind Store: stable for a SQLite
	// file or Postgres database, fresh for every memory store.
	Instance string
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresURL string

	// Memory backend specific
	DataDirectory string

	// Feed cache
	Cache     CacheType
	CacheTTL  time.Duration
	CacheSize int
	RedisAddr string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// CacheType selects where built feeds are cached.
type CacheType string

const (
	NoCache    CacheType = "none"
	LRUCache   CacheType = "lru"
	RedisCache CacheType = "redis"
)

func (ct CacheType) IsValid() bool {
	switch ct {
	case NoCache, LRUCache, RedisCache:
		return true
	default:
		return false
	}
}
