package usecase

import (
	"context"
	"strings"

	"github.com/hszk-dev/clashstream/internal/domain/model"
	"github.com/hszk-dev/clashstream/internal/domain/repository"
	"github.com/hszk-dev/clashstream/internal/infrastructure/cache"
)

// MaxSearchCount bounds how many results a single search may ask the tool for.
const MaxSearchCount = 50

// SearchService runs memoized searches against the extraction tool.
type SearchService interface {
	// Search returns up to count playable hits for query.
	// The returned slice is shared with the cache and must not be modified.
	Search(ctx context.Context, query string, count int) ([]model.SearchHit, error)
}

type searchService struct {
	source repository.MediaSource
	store  *cache.Store
}

// NewSearchService creates a new SearchService.
func NewSearchService(source repository.MediaSource, store *cache.Store) SearchService {
	return &searchService{
		source: source,
		store:  store,
	}
}

func (s *searchService) Search(ctx context.Context, query string, count int) ([]model.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.ErrEmptyQuery
	}
	count = clampCount(count)

	key := cache.SearchKey(query, count)
	if entry, ok := s.store.Searches.Get(key); ok {
		return entry.Value, nil
	}

	entries, err := s.source.Search(ctx, query, count)
	if err != nil {
		return nil, err
	}

	hits := make([]model.SearchHit, 0, len(entries))
	for _, e := range entries {
		if !model.IsPlayableID(e.ID) || s.store.Failed.Contains(e.ID) {
			continue
		}
		hits = append(hits, toSearchHit(e))
	}

	s.store.Searches.Set(key, hits)
	return hits, nil
}

func toSearchHit(e repository.SearchEntry) model.SearchHit {
	thumbnail := model.ThumbnailURL(e.ID)
	if len(e.Thumbnails) > 0 && e.Thumbnails[0].URL != "" {
		thumbnail = e.Thumbnails[0].URL
	}

	return model.SearchHit{
		ID:        e.ID,
		Title:     model.FirstNonEmpty(model.UnknownTitle, e.Title),
		Thumbnail: thumbnail,
		Duration:  e.Duration,
		Channel:   model.FirstNonEmpty(model.UnknownChannel, e.Uploader, e.Channel),
	}
}

func clampCount(count int) int {
	switch {
	case count < 1:
		return 1
	case count > MaxSearchCount:
		return MaxSearchCount
	default:
		return count
	}
}
