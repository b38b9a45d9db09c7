package cache

import (
	"context"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("new file cache: %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "draft:t1", []byte(`{"blocks":[]}`), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	data, found, err := c.Get(ctx, "draft:t1")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if string(data) != `{"blocks":[]}` {
		t.Fatalf("data: %q", data)
	}

	if err := c.Delete(ctx, "draft:t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := c.Get(ctx, "draft:t1"); found {
		t.Fatal("deleted key should miss")
	}
	if err := c.Delete(ctx, "draft:t1"); err != nil {
		t.Fatalf("double delete should be clean: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("new file cache: %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatal("expired entry must miss")
	}
}

func TestNullCacheAlwaysMisses(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatal("null cache must never hit")
	}
}

func TestScopedCacheIsolatesTenants(t *testing.T) {
	backend, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("new file cache: %v", err)
	}
	ctx := context.Background()

	org1 := NewScopedCache(backend, "org:1:")
	org2 := NewScopedCache(backend, "org:2:")

	if err := org1.Set(ctx, "draft:t1", []byte("one"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, found, _ := org2.Get(ctx, "draft:t1"); found {
		t.Fatal("tenants must not see each other's keys")
	}
	data, found, _ := org1.Get(ctx, "draft:t1")
	if !found || string(data) != "one" {
		t.Fatalf("own tenant read failed: found=%v data=%q", found, data)
	}
}

func TestScopedCacheNilInnerFallsBackToNull(t *testing.T) {
	c := NewScopedCache(nil, "p:")
	if err := c.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found, _ := c.Get(context.Background(), "k"); found {
		t.Fatal("nil inner should behave as a null cache")
	}
}
