package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if ok := m.Set(ctx, "k", "v", time.Minute); !ok {
		t.Fatal("expected set to succeed")
	}
	got, ok := m.Get(ctx, "k")
	if !ok || got != "v" {
		t.Fatalf("expected hit with v, got %q ok=%v", got, ok)
	}
}

func TestMemoryExpiration(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	base := time.Now()
	m.now = func() time.Time { return base }
	m.Set(ctx, "k", "v", time.Minute)

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := m.Get(ctx, "k"); ok {
		t.Fatal("expected expired entry to be treated as absent")
	}
	if m.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, have %d entries", m.Len())
	}
}

func TestMemoryInvalidate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "k", "v", 0)
	if ok := m.Invalidate(ctx, "k"); !ok {
		t.Fatal("expected invalidate to succeed")
	}
	if _, ok := m.Get(ctx, "k"); ok {
		t.Fatal("expected key to be gone after invalidate")
	}
}

func TestNoopAlwaysMisses(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()

	if ok := c.Set(ctx, "k", "v", time.Minute); ok {
		t.Fatal("noop set should report failure")
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("noop get should miss")
	}
}
