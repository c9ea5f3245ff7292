// Package cache stores rendered API responses keyed by a hash of the request.
package cache

import (
	"context"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Repository is a string key/value store for cached responses.
type Repository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// Key derives a cache key from a prefix and the canonical request payload.
func Key(prefix string, payload []byte) string {
	return prefix + ":" + strconv.FormatUint(xxhash.Sum64(payload), 16)
}

// MemoryCache is an in-process Repository without expiry.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]string)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
