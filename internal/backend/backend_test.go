package backend

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wallet/internal/cache"
	"wallet/internal/config"
	"wallet/internal/ledger"
	applog "wallet/internal/log"
)

func quietFactory() Factory {
	return NewFactory(applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)}))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown backend", Config{Type: "sheets"}, true},
		{"redis without addr", Config{Type: MemoryBackend, Cache: RedisCache}, true},
		{"unknown cache", Config{Type: MemoryBackend, Cache: "memcached"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) should fail")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "postgres",
		PostgresURL:  "postgres://localhost/wallet",
		SeedDir:      "seed",
		CacheBackend: "redis",
		CacheTTL:     time.Minute,
		RedisAddr:    "localhost:6379",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.Cache != RedisCache || cfg.DataDirectory != "seed" || cfg.CacheTTL != time.Minute {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "memory", CacheBackend: "disk"}); err == nil {
		t.Error("FromAppConfig() should reject an unknown cache backend")
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "memory" || got[2] != "postgres" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestCreateBackend_MemoryWithLRU(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("Salary\n# comment\nRoyalties\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := quietFactory().CreateBackend(context.Background(), Config{
		Type:          MemoryBackend,
		DataDirectory: dir,
		Cache:         LRUCache,
		CacheSize:     2,
		CacheTTL:      time.Minute,
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	cats, err := res.Store.ListCategories(context.Background())
	if err != nil || len(cats) != 2 {
		t.Fatalf("ListCategories() = %v, %v", cats, err)
	}
	if _, ok := res.Cache.(*cache.LRUCache[ledger.Feed]); !ok {
		t.Errorf("Cache = %T, want LRU", res.Cache)
	}
}

func TestCreateBackend_SQLiteWithoutCache(t *testing.T) {
	res, err := quietFactory().CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "wallet.db"),
		Cache:        NoCache,
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if _, ok := res.Cache.(cache.Noop[ledger.Feed]); !ok {
		t.Errorf("Cache = %T, want Noop", res.Cache)
	}
	rev, err := res.Store.Revision(context.Background())
	if err != nil || rev != 0 {
		t.Errorf("Revision() = %d, %v", rev, err)
	}
	if !strings.HasPrefix(res.Instance, "sqlite-") {
		t.Errorf("Instance = %q, want sqlite- prefix", res.Instance)
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}

func TestCreateBackend_InvalidConfig(t *testing.T) {
	if _, err := quietFactory().CreateBackend(context.Background(), Config{Type: "oracle"}); err == nil {
		t.Error("CreateBackend() should reject unknown backends")
	}
}

func TestInstanceName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallet.db")

	sqlite := Config{Type: SQLiteBackend, SQLiteDBPath: path}
	if a, b := instanceName(sqlite), instanceName(sqlite); a != b {
		t.Errorf("same SQLite file should keep its instance name: %q vs %q", a, b)
	}
	if a, b := instanceName(sqlite), instanceName(Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "other.db")}); a == b {
		t.Errorf("different SQLite files share instance name %q", a)
	}

	pg := Config{Type: PostgresBackend, PostgresURL: "postgres://localhost/wallet"}
	if a, b := instanceName(pg), instanceName(pg); a != b {
		t.Errorf("same Postgres database should keep its instance name: %q vs %q", a, b)
	}

	mem := Config{Type: MemoryBackend}
	if a, b := instanceName(mem), instanceName(mem); a == b {
		t.Errorf("memory stores restart at revision 0 and must not share instance name %q", a)
	}
}
