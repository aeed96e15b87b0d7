package tyjson

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryCacheExpires(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	c := NewMemoryCache(time.Minute, 10)
	c.now = clock.now

	c.Set(ctx, "k", "v")
	if v, ok := c.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("Get = %q, %t; want v, true", v, ok)
	}
	clock.advance(time.Minute)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire after the TTL")
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, 10)
	c.Set(ctx, "k", "v")
	c.Delete(ctx, "k")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected deleted entry to be gone")
	}
}

func TestMemoryCacheEvictsOldestHalf(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	c := NewMemoryCache(time.Hour, 4)
	c.now = clock.now

	for i := 0; i < 5; i++ {
		c.Set(ctx, fmt.Sprintf("k%d", i), "v")
		clock.advance(time.Second)
	}
	if c.Len() > 4 {
		t.Fatalf("expected cap to hold, got %d entries", c.Len())
	}
	if _, ok := c.Get(ctx, "k0"); ok {
		t.Errorf("expected oldest entry to be evicted")
	}
	if _, ok := c.Get(ctx, "k4"); !ok {
		t.Errorf("expected newest entry to survive")
	}
}

func TestMemoryCacheEvictsExpiredFirst(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	c := NewMemoryCache(time.Minute, 2)
	c.now = clock.now

	c.Set(ctx, "old", "v")
	clock.advance(2 * time.Minute)
	c.Set(ctx, "a", "v")
	c.Set(ctx, "b", "v")
	if c.Len() != 2 {
		t.Fatalf("expected only the expired entry dropped, got %d entries", c.Len())
	}
}
