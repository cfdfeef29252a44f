// Package cache provides the result cache fronting expensive analysis calls.
//
// The cache is a pure performance optimization over deterministic downstream
// computation, so every operation is total: backend failures degrade to a
// miss (or a false success flag) and are logged, never surfaced to callers.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with TTL semantics and best-effort writes.
type Cache interface {
	// Get returns the cached value for key. Backend errors and expired
	// entries report absent.
	Get(ctx context.Context, key string) (string, bool)
	// Set stores value under key for ttl. Returns whether the write took
	// effect; a failed write simply means the value is recomputed next time.
	Set(ctx context.Context, key, value string, ttl time.Duration) bool
	// Invalidate removes key. Returns whether the delete took effect.
	Invalidate(ctx context.Context, key string) bool
}

// Noop is the disabled-cache implementation used when no backend is configured.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) (string, bool)                  { return "", false }
func (Noop) Set(ctx context.Context, key, value string, ttl time.Duration) bool { return false }
func (Noop) Invalidate(ctx context.Context, key string) bool                    { return false }

var _ Cache = Noop{}
