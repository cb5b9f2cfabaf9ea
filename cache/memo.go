package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the default maximum number of memoized entries.
const DefaultCapacity = 256

// Memo is a thread-safe LRU cache that memoizes fallible loads by key.
// Failed loads are not cached.
type Memo[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*list.Element
	lru      *list.List // front = most recent
	capacity int

	// Statistics (atomic for zero-allocation reads)
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type memoEntry[K comparable, V any] struct {
	key   K
	value V
}

// Stats contains cache statistics for monitoring.
type Stats struct {
	// Len is the number of cached entries.
	Len int
	// Capacity is the maximum number of entries.
	Capacity int
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses.
	Misses uint64
	// HitRate is the cache hit rate (0.0 to 1.0).
	HitRate float64
	// Evictions is the number of entries evicted.
	Evictions uint64
}

// NewMemo creates a memo holding at most capacity entries.
// If capacity <= 0, DefaultCapacity is used.
func NewMemo[K comparable, V any](capacity int) *Memo[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memo[K, V]{
		entries:  make(map[K]*list.Element),
		lru:      list.New(),
		capacity: capacity,
	}
}

// setLocked stores a value, evicting the least recently used entry when
// full.
func (m *Memo[K, V]) setLocked(key K, value V) {
	if el, ok := m.entries[key]; ok {
		el.Value.(*memoEntry[K, V]).value = value
		m.lru.MoveToFront(el)
		return
	}

	for m.lru.Len() >= m.capacity {
		oldest := m.lru.Back()
		if oldest == nil {
			break
		}
		m.lru.Remove(oldest)
		delete(m.entries, oldest.Value.(*memoEntry[K, V]).key)
		m.evictions.Add(1)
	}

	m.entries[key] = m.lru.PushFront(&memoEntry[K, V]{key: key, value: value})
}

// GetOrLoad returns the cached value for key or calls load to produce it.
// The load runs with the lock held, so concurrent callers for the same key
// load once. A load error is returned and nothing is cached.
func (m *Memo[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		m.lru.MoveToFront(el)
		m.hits.Add(1)
		return el.Value.(*memoEntry[K, V]).value, nil
	}
	m.misses.Add(1)

	value, err := load()
	if err != nil {
		return value, err
	}
	m.setLocked(key, value)
	return value, nil
}

// Clear removes all entries. Statistics are kept.
func (m *Memo[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[K]*list.Element)
	m.lru.Init()
}

// Len returns the number of entries.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Capacity returns the maximum number of entries.
func (m *Memo[K, V]) Capacity() int { return m.capacity }

// Stats returns current cache statistics.
func (m *Memo[K, V]) Stats() Stats {
	hits := m.hits.Load()
	misses := m.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Len:       m.Len(),
		Capacity:  m.capacity,
		Hits:      hits,
		Misses:    misses,
		HitRate:   hitRate,
		Evictions: m.evictions.Load(),
	}
}
