package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()

	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "value" {
		t.Errorf("got %q, want %q", got, "value")
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()

	_, err := c.Get(context.Background(), "missing")
	if err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "short", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	if err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "key", []byte("value"), 0)

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	has, err := c.Has(ctx, "key")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if has {
		t.Error("key should be gone after Delete")
	}
}

func TestMemoryCacheDeleteByPrefix(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "shops:1", []byte("a"), 0)
	c.Set(ctx, "shops:2", []byte("b"), 0)
	c.Set(ctx, "categories:1", []byte("c"), 0)

	if err := c.DeleteByPrefix(ctx, "shops:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}

	if has, _ := c.Has(ctx, "shops:1"); has {
		t.Error("shops:1 should be gone")
	}
	if has, _ := c.Has(ctx, "categories:1"); !has {
		t.Error("categories:1 should survive")
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	c.Close()

	if err := c.Set(context.Background(), "key", []byte("v"), 0); err != ErrCacheClosed {
		t.Errorf("expected ErrCacheClosed, got %v", err)
	}
}

func TestMemoryCacheStats(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "key", []byte("value"), 0)
	c.Get(ctx, "key")
	c.Get(ctx, "missing")

	stats := c.Stats()
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Sets != 1 {
		t.Errorf("Sets = %d, want 1", stats.Sets)
	}
}

func TestTypedCacheRoundTrip(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()

	type widget struct {
		Name  string
		Count int
	}

	tc := NewTypedCache[widget](c, time.Minute)
	ctx := context.Background()

	if err := tc.Set(ctx, "w", &widget{Name: "oyster", Count: 3}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := tc.Get(ctx, "w")
	if !ok {
		t.Fatal("Get: not found")
	}
	if got.Name != "oyster" || got.Count != 3 {
		t.Errorf("got %+v, want oyster/3", got)
	}
}

func TestTypedCacheGetOrSet(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()

	tc := NewTypedCache[int](c, time.Minute)
	ctx := context.Background()

	calls := 0
	fn := func() (*int, error) {
		calls++
		v := 42
		return &v, nil
	}

	v, err := tc.GetOrSet(ctx, "answer", fn)
	if err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}
	if *v != 42 {
		t.Errorf("v = %d, want 42", *v)
	}

	// Second call should hit the cache
	_, err = tc.GetOrSet(ctx, "answer", fn)
	if err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
