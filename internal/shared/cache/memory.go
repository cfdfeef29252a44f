package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Cache used for development and tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemory constructs an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value for key. Entries past their expiration are absent.
func (m *Memory) Get(ctx context.Context, key string) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false
	}
	return entry.value, true
}

// Set stores value under key for ttl. A ttl of zero means no expiration.
func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return true
}

// Invalidate removes key.
func (m *Memory) Invalidate(ctx context.Context, key string) bool {
	if ctx.Err() != nil {
		return false
	}
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return true
}

// Len reports the number of live entries, for tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ Cache = (*Memory)(nil)
