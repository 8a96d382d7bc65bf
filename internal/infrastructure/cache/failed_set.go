package cache

import "sync"

// FailedSet remembers identifiers whose extraction exhausted every strategy.
// It is bounded by clearing itself in full once it grows past its capacity.
type FailedSet struct {
	capacity int

	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewFailedSet creates an empty set holding at most capacity identifiers.
func NewFailedSet(capacity int) *FailedSet {
	return &FailedSet{
		capacity: capacity,
		ids:      make(map[string]struct{}),
	}
}

// Add records id. If the set now exceeds its capacity it is emptied.
func (f *FailedSet) Add(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ids[id] = struct{}{}
	f.trimLocked()
}

// Remove forgets id.
func (f *FailedSet) Remove(id string) {
	f.mu.Lock()
	delete(f.ids, id)
	f.mu.Unlock()
}

// Contains reports whether id is recorded.
func (f *FailedSet) Contains(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.ids[id]
	return ok
}

// Len returns the number of recorded identifiers.
func (f *FailedSet) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Trim empties the set if it is over capacity and reports whether it did.
func (f *FailedSet) Trim() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trimLocked()
}

// Clear empties the set.
func (f *FailedSet) Clear() {
	f.mu.Lock()
	f.ids = make(map[string]struct{})
	f.mu.Unlock()
}

func (f *FailedSet) trimLocked() bool {
	if f.capacity <= 0 || len(f.ids) <= f.capacity {
		return false
	}
	f.ids = make(map[string]struct{})
	return true
}
