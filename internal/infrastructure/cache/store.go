package cache

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/hszk-dev/clashstream/internal/domain/model"
)

// Cache names, used as metrics labels.
const (
	NameTracks   = "tracks"
	NameSearches = "searches"
)

// StoreConfig holds configuration for Store.
type StoreConfig struct {
	// TrackTTL is how long a resolved track stays servable from memory.
	TrackTTL time.Duration
	// SearchTTL is how long a search result list stays servable from memory.
	SearchTTL time.Duration
	// FailedCap is the size past which the failed set is cleared.
	FailedCap int
}

// DefaultStoreConfig returns the default configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		TrackTTL:  30 * time.Minute,
		SearchTTL: 5 * time.Minute,
		FailedCap: 100,
	}
}

// Stats is a point-in-time view of the store sizes.
type Stats struct {
	Tracks   int
	Searches int
	Failed   int
}

// Store groups the process-wide caches. It is built once at startup and shared by
// every request handler.
type Store struct {
	Tracks   *TTLStore[*model.Track]
	Searches *TTLStore[[]model.SearchHit]
	Failed   *FailedSet
}

// NewStore creates an empty Store.
func NewStore(cfg StoreConfig, clock Clock) *Store {
	return &Store{
		Tracks:   NewTTLStore[*model.Track](NameTracks, cfg.TrackTTL, clock),
		Searches: NewTTLStore[[]model.SearchHit](NameSearches, cfg.SearchTTL, clock),
		Failed:   NewFailedSet(cfg.FailedCap),
	}
}

// SearchKey builds the search cache key for a query and result count.
func SearchKey(query string, count int) string {
	return fmt.Sprintf("%s_%d", query, count)
}

// Stats returns the current sizes.
func (s *Store) Stats() Stats {
	return Stats{
		Tracks:   s.Tracks.Len(),
		Searches: s.Searches.Len(),
		Failed:   s.Failed.Len(),
	}
}

// Clear drops every cache.
func (s *Store) Clear() {
	s.Tracks.Clear()
	s.Searches.Clear()
	s.Failed.Clear()
}

// Sweep removes expired entries and bounds the failed set.
func (s *Store) Sweep() {
	tracks := s.Tracks.Sweep()
	searches := s.Searches.Sweep()
	failedCleared := s.Failed.Trim()

	if tracks > 0 || searches > 0 || failedCleared {
		slog.Debug("cache sweep",
			"tracks_removed", tracks,
			"searches_removed", searches,
			"failed_cleared", failedCleared,
		)
	}
}

// Run sweeps on every interval tick until ctx is done.
// A panic inside a sweep is logged and does not stop the loop.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.safeSweep()
		}
	}
}

func (s *Store) safeSweep() {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic recovered in cache sweep",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	s.Sweep()
}
