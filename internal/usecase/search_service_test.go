package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hszk-dev/clashstream/internal/domain/model"
	"github.com/hszk-dev/clashstream/internal/domain/repository"
	"github.com/hszk-dev/clashstream/internal/infrastructure/cache"
)

func TestSearchService_Search_FiltersUnplayable(t *testing.T) {
	store := newTestStore(nil)
	store.Failed.Add("failedid123")

	source := &mockMediaSource{
		searchFn: func(ctx context.Context, query string, count int) ([]repository.SearchEntry, error) {
			return []repository.SearchEntry{
				{ID: "UCabcdefghi", Title: "A channel"},
				{ID: "shortid", Title: "Too short"},
				{ID: "goodid12345", Title: "Good"},
				{ID: "failedid123", Title: "Known bad"},
			}, nil
		},
	}
	svc := NewSearchService(source, store)

	hits, err := svc.Search(context.Background(), "test", 4)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(hits) != 1 || hits[0].ID != "goodid12345" {
		t.Errorf("hits = %+v, want only goodid12345", hits)
	}
}

func TestSearchService_Search_Normalizes(t *testing.T) {
	source := &mockMediaSource{
		searchFn: func(ctx context.Context, query string, count int) ([]repository.SearchEntry, error) {
			return []repository.SearchEntry{
				{ID: "aaaaaaaaaaa"},
				{
					ID:         "bbbbbbbbbbb",
					Title:      "Titled",
					Duration:   99,
					Channel:    "Only Channel",
					Thumbnails: []repository.Thumbnail{{URL: "https://img/b.jpg"}},
				},
			}, nil
		},
	}
	svc := NewSearchService(source, newTestStore(nil))

	hits, err := svc.Search(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	want := []model.SearchHit{
		{
			ID:        "aaaaaaaaaaa",
			Title:     model.UnknownTitle,
			Thumbnail: model.ThumbnailURL("aaaaaaaaaaa"),
			Channel:   model.UnknownChannel,
		},
		{
			ID:        "bbbbbbbbbbb",
			Title:     "Titled",
			Thumbnail: "https://img/b.jpg",
			Duration:  99,
			Channel:   "Only Channel",
		},
	}
	if len(hits) != len(want) {
		t.Fatalf("got %d hits, want %d", len(hits), len(want))
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Errorf("hit[%d] = %+v, want %+v", i, hits[i], want[i])
		}
	}
}

func TestSearchService_Search_Memoized(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)
	source := &mockMediaSource{
		searchFn: func(ctx context.Context, query string, count int) ([]repository.SearchEntry, error) {
			return []repository.SearchEntry{{ID: "goodid12345"}}, nil
		},
	}
	svc := NewSearchService(source, store)

	for range 3 {
		if _, err := svc.Search(context.Background(), "lofi", 5); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
	}
	if got := source.searchCount.Load(); got != 1 {
		t.Errorf("tool searched %d times, want 1", got)
	}

	// A different count is a different key.
	if _, err := svc.Search(context.Background(), "lofi", 6); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if got := source.searchCount.Load(); got != 2 {
		t.Errorf("tool searched %d times, want 2", got)
	}

	clock.Advance(cache.DefaultStoreConfig().SearchTTL + time.Second)

	if _, err := svc.Search(context.Background(), "lofi", 5); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if got := source.searchCount.Load(); got != 3 {
		t.Errorf("tool searched %d times after expiry, want 3", got)
	}
}

func TestSearchService_Search_CachesEmptyResult(t *testing.T) {
	store := newTestStore(nil)
	source := &mockMediaSource{
		searchFn: func(ctx context.Context, query string, count int) ([]repository.SearchEntry, error) {
			return []repository.SearchEntry{{ID: "UCabcdefghi"}}, nil
		},
	}
	svc := NewSearchService(source, store)

	for range 2 {
		hits, err := svc.Search(context.Background(), "channels only", 3)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(hits) != 0 {
			t.Errorf("hits = %+v, want none", hits)
		}
	}
	if got := source.searchCount.Load(); got != 1 {
		t.Errorf("tool searched %d times, want 1", got)
	}
	if store.Searches.Len() != 1 {
		t.Errorf("search cache size = %d, want 1", store.Searches.Len())
	}
}

func TestSearchService_Search_ToolError(t *testing.T) {
	store := newTestStore(nil)
	source := &mockMediaSource{
		searchFn: func(ctx context.Context, query string, count int) ([]repository.SearchEntry, error) {
			return nil, repository.ErrToolFailed
		},
	}
	svc := NewSearchService(source, store)

	_, err := svc.Search(context.Background(), "q", 3)
	if !errors.Is(err, repository.ErrToolFailed) {
		t.Errorf("expected ErrToolFailed, got %v", err)
	}
	if store.Searches.Len() != 0 {
		t.Error("failed search must not be cached")
	}
}

func TestSearchService_Search_EmptyQuery(t *testing.T) {
	source := &mockMediaSource{}
	svc := NewSearchService(source, newTestStore(nil))

	for _, q := range []string{"", "   "} {
		if _, err := svc.Search(context.Background(), q, 3); !errors.Is(err, model.ErrEmptyQuery) {
			t.Errorf("Search(%q) error = %v, want ErrEmptyQuery", q, err)
		}
	}
	if source.searchCount.Load() != 0 {
		t.Error("tool must not be invoked for an empty query")
	}
}

func TestSearchService_Search_ClampsCount(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"zero", 0, 1},
		{"negative", -4, 1},
		{"in range", 12, 12},
		{"too large", 500, MaxSearchCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int
			source := &mockMediaSource{
				searchFn: func(ctx context.Context, query string, count int) ([]repository.SearchEntry, error) {
					got = count
					return nil, nil
				},
			}
			svc := NewSearchService(source, newTestStore(nil))

			if _, err := svc.Search(context.Background(), "q", tt.count); err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("tool count = %d, want %d", got, tt.want)
			}
		})
	}
}
