package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestLRU(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUGetSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestLRU(2, time.Minute)

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Set(ctx, "a", "1")
	if v, ok := c.Get(ctx, "a"); !ok || v != "1" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Size != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.HitRatio() != 0.5 {
		t.Fatalf("unexpected hit ratio %v", st.HitRatio())
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestLRU(2, time.Minute)

	c.Set(ctx, "a", "1")
	c.Set(ctx, "b", "2")
	c.Get(ctx, "a")
	c.Set(ctx, "c", "3")

	if _, ok := c.Get(ctx, "b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatalf("expected a to survive")
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestLRU(10, time.Minute)

	c.Set(ctx, "a", "1")
	c.Set(ctx, "b", "2")
	clock.t = clock.t.Add(2 * time.Minute)
	c.Set(ctx, "c", "3")

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatalf("expected a to be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry removed, got %d", n)
	}
	if c.Size() != 1 {
		t.Fatalf("expected only c left, size %d", c.Size())
	}
}

func TestLRUDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestLRU(2, time.Minute)
	c.Set(ctx, "a", "1")
	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestLRU(10, time.Second)
	c.Set(ctx, "a", "1")
	clock.t = clock.t.Add(time.Hour)

	m := NewManager(nil)
	m.Register(c)
	m.Register(Noop[string]{})
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("expected 1 cleaned, got %d", n)
	}

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestNoop(t *testing.T) {
	var c Cache[int] = Noop[int]{}
	c.Set(context.Background(), "k", 1)
	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Fatalf("noop cache must never hit")
	}
}
