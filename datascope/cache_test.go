package datascope

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCachePutGet(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()

	if _, hit, err := cache.Get(ctx, "sys:user"); err != nil || hit {
		t.Fatalf("expected clean miss, hit=%v err=%v", hit, err)
	}

	configs := []RoleScopeConfig{{RoleID: 1, ScopeType: "SELF"}}
	if err := cache.Put(ctx, "sys:user", configs); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, hit, err := cache.Get(ctx, "sys:user")
	if err != nil || !hit {
		t.Fatalf("expected hit, hit=%v err=%v", hit, err)
	}
	if len(got) != 1 || got[0].RoleID != 1 {
		t.Fatalf("unexpected cached configs: %v", got)
	}
}

func TestMemoryCacheNegativeCaching(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()

	if err := cache.Put(ctx, "sys:empty", nil); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, hit, err := cache.Get(ctx, "sys:empty")
	if err != nil || !hit {
		t.Fatalf("expected hit for cached empty config, hit=%v err=%v", hit, err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty configs, got: %v", got)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2026, 5, 15, 10, 0, 0, 0, time.UTC)
	freezeTime(t, now)

	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()
	if err := cache.Put(ctx, "sys:user", []RoleScopeConfig{{RoleID: 1}}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	timeNow = func() time.Time { return now.Add(2 * time.Minute) }
	if _, hit, _ := cache.Get(ctx, "sys:user"); hit {
		t.Fatalf("expected expired entry to miss")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, len=%d", cache.Len())
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()

	for _, resource := range []string{"sys:user", "sys:order", "sys:report"} {
		if err := cache.Put(ctx, resource, []RoleScopeConfig{{RoleID: 1}}); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}

	if err := cache.Invalidate(ctx, "sys:user", "sys:order"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if _, hit, _ := cache.Get(ctx, "sys:user"); hit {
		t.Fatalf("expected sys:user to be invalidated")
	}
	if _, hit, _ := cache.Get(ctx, "sys:report"); !hit {
		t.Fatalf("expected sys:report to survive")
	}
}
