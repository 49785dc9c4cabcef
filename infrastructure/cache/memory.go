package cache

import (
	"context"
	"time"

	"github.com/codeGROOVE-dev/sfcache"
)

// DefaultMemoryEntries bounds the in-process store before S3-FIFO eviction starts
const DefaultMemoryEntries = 16384

// MemoryStore is a process-local store backed by sfcache. Expiry is checked
// on read; there is no background sweep.
type MemoryStore struct {
	cache *sfcache.MemoryCache[string, []byte]
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: sfcache.New[string, []byte](sfcache.Size(DefaultMemoryEntries)),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool) {
	value, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, true
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.cache.Set(key, stored, clampTTL(ttl))
}

func (m *MemoryStore) Del(ctx context.Context, key string) {
	m.cache.Delete(key)
}

// Len returns the number of entries, expired ones not yet evicted included
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

func (m *MemoryStore) Name() string { return BackendMemory }

func (m *MemoryStore) Close() error {
	m.cache.Flush()
	m.cache.Close()
	return nil
}
