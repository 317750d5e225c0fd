package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redhope/backend/internal/domain/providers"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryAdapter is a bounded in-process cache. The LRU evicts the least
// recently used key once size is reached and drops keys after ttl; a
// shorter per-key expiration passed to Set is honored on read.
type MemoryAdapter struct {
	lru *expirable.LRU[string, memoryEntry]
	ttl time.Duration
	now func() time.Time
}

// NewMemoryAdapter creates a cache holding at most size entries for at most ttl.
func NewMemoryAdapter(size int, ttl time.Duration) *MemoryAdapter {
	if size <= 0 {
		size = 1000
	}
	return &MemoryAdapter{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, ttl),
		ttl: ttl,
		now: time.Now,
	}
}

var _ providers.CacheProvider = (*MemoryAdapter)(nil)

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	entry, ok := a.lru.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	if !entry.expiresAt.IsZero() && !a.now().Before(entry.expiresAt) {
		a.lru.Remove(key)
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, nil
}

// Set stores a copy of value
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	entry := memoryEntry{data: make([]byte, len(value))}
	copy(entry.data, value)
	if expirationSeconds > 0 {
		d := time.Duration(expirationSeconds) * time.Second
		if a.ttl <= 0 || d < a.ttl {
			entry.expiresAt = a.now().Add(d)
		}
	}
	a.lru.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.lru.Remove(key)
	return nil
}

// Exists checks if a live key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.Get(ctx, key)
	return err == nil, nil
}

// Len returns the number of stored entries, expired ones included until swept.
func (a *MemoryAdapter) Len() int {
	return a.lru.Len()
}

// Purge drops every entry.
func (a *MemoryAdapter) Purge() {
	a.lru.Purge()
}
