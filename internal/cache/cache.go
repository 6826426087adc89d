package cache

import (
	"sync"

	"github.com/Shadownc/favicon-api/internal/favicon"
)

// Cache is a concurrency-safe key/value store.
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache
	Get(key K) (V, bool)

	// Set stores a value, replacing any previous one
	Set(key K, value V)

	// Len returns the number of stored entries
	Len() int
}

// Favicons maps a normalized domain to its resolved icon.
type Favicons = Cache[string, favicon.Result]

// Memory is an unbounded map guarded by a RWMutex.
type Memory[K comparable, V any] struct {
	mutex   sync.RWMutex
	entries map[K]V
}

func NewMemory[K comparable, V any]() *Memory[K, V] {
	return &Memory[K, V]{
		entries: make(map[K]V),
	}
}

func (m *Memory[K, V]) Get(key K) (V, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	v, ok := m.entries[key]
	return v, ok
}

// Set stores value under key. Concurrent writers of the same key race
// harmlessly: the last write wins.
func (m *Memory[K, V]) Set(key K, value V) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries[key] = value
}

func (m *Memory[K, V]) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.entries)
}
