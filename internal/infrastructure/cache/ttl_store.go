package cache

import (
	"sync"
	"time"

	"github.com/hszk-dev/clashstream/internal/infrastructure/metrics"
)

// Clock supplies the current time. It is injected so TTL behaviour can be tested
// without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Entry is a cached value together with its insertion time.
type Entry[V any] struct {
	Value     V
	CreatedAt time.Time
}

// TTLStore is a concurrency-safe string-keyed map whose entries expire a fixed
// duration after they were written. Expired entries are ignored on read and
// removed by Sweep.
type TTLStore[V any] struct {
	name  string
	ttl   time.Duration
	clock Clock

	mu      sync.RWMutex
	entries map[string]Entry[V]
}

// NewTTLStore creates an empty store. name is used as the metrics label.
func NewTTLStore[V any](name string, ttl time.Duration, clock Clock) *TTLStore[V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TTLStore[V]{
		name:    name,
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]Entry[V]),
	}
}

// Get returns the live entry for key.
// An expired entry is reported as a miss and dropped.
func (s *TTLStore[V]) Get(key string) (Entry[V], bool) {
	now := s.clock.Now()

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && s.expired(entry, now) {
		s.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have replaced it.
		if current, still := s.entries[key]; still && s.expired(current, now) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		ok = false
	}

	if !ok {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, s.name).Inc()
		return Entry[V]{}, false
	}
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, s.name).Inc()
	return entry, true
}

// Set stores value under key, replacing any previous entry.
func (s *TTLStore[V]) Set(key string, value V) Entry[V] {
	entry := Entry[V]{Value: value, CreatedAt: s.clock.Now()}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, s.name).Inc()
	return entry
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *TTLStore[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, s.name).Inc()
}

// Len returns the number of stored entries, including ones not yet swept.
func (s *TTLStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes every expired entry and returns how many were dropped.
func (s *TTLStore[V]) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if s.expired(entry, now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Clear drops all entries.
func (s *TTLStore[V]) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]Entry[V])
	s.mu.Unlock()
}

func (s *TTLStore[V]) expired(entry Entry[V], now time.Time) bool {
	return now.Sub(entry.CreatedAt) >= s.ttl
}
