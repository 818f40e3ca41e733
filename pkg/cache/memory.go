package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries is the capacity used when NewMemoryCache gets a
// non-positive size.
const DefaultMemoryEntries = 256

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is a bounded in-process LRU cache. It is safe for concurrent
// use.
type MemoryCache struct {
	lru *lru.Cache[string, memoryEntry]
	now func() time.Time
}

// NewMemoryCache creates an LRU cache holding at most size entries.
func NewMemoryCache(size int) (Cache, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	l, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}
	return &MemoryCache{lru: l, now: time.Now}, nil
}

// Get retrieves a value from the cache. Expired entries are evicted.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores a copy of data in the cache.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := memoryEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}

// Len returns the number of cached entries, including expired ones not yet
// evicted.
func (c *MemoryCache) Len() int { return c.lru.Len() }

var _ Cache = (*MemoryCache)(nil)
