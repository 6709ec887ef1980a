package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("WALLET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("WALLET_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, addr)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rdb.Close()

	type payload struct {
		Name  string
		Count int
	}
	c := NewRedisCache[payload](rdb, "wallet:test:", time.Minute, nil)
	c.Delete(ctx, "k")

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss")
	}
	c.Set(ctx, "k", payload{Name: "feed", Count: 3})
	got, ok := c.Get(ctx, "k")
	if !ok || got.Name != "feed" || got.Count != 3 {
		t.Fatalf("unexpected value %+v (hit=%v)", got, ok)
	}
	if st := c.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}
