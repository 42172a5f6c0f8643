package kvcache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// memoryCache is the in-process fallback store. Expiry is evaluated lazily:
// a read of an expired entry removes it and reports absence.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func newMemoryCache(now func() time.Time) *memoryCache {
	return &memoryCache{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

func (m *memoryCache) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(key)
}

func (m *memoryCache) getLocked(key string) ([]byte, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(m.now()) {
		delete(m.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (m *memoryCache) set(key string, value []byte, ttl time.Duration) {
	entry := memoryEntry{value: value}
	if ttl != 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
}

func (m *memoryCache) del(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// getDel removes and returns the entry under one lock so that concurrent
// callers observe at most one hit.
func (m *memoryCache) getDel(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.getLocked(key)
	if ok {
		delete(m.entries, key)
	}
	return value, ok
}
