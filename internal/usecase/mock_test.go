package usecase

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hszk-dev/clashstream/internal/domain/model"
	"github.com/hszk-dev/clashstream/internal/domain/repository"
)

// mockMediaSource provides a configurable mock for MediaSource.
type mockMediaSource struct {
	probeFn     func(ctx context.Context, videoID, playerClient string) (*repository.MediaInfo, error)
	directURLFn func(ctx context.Context, videoID string) (string, error)
	searchFn    func(ctx context.Context, query string, count int) ([]repository.SearchEntry, error)

	probeCount  atomic.Int32
	searchCount atomic.Int32
}

func (m *mockMediaSource) Probe(ctx context.Context, videoID, playerClient string) (*repository.MediaInfo, error) {
	m.probeCount.Add(1)
	if m.probeFn != nil {
		return m.probeFn(ctx, videoID, playerClient)
	}
	return nil, repository.ErrToolFailed
}

func (m *mockMediaSource) DirectURL(ctx context.Context, videoID string) (string, error) {
	if m.directURLFn != nil {
		return m.directURLFn(ctx, videoID)
	}
	return "", repository.ErrToolFailed
}

func (m *mockMediaSource) Search(ctx context.Context, query string, count int) ([]repository.SearchEntry, error) {
	m.searchCount.Add(1)
	if m.searchFn != nil {
		return m.searchFn(ctx, query, count)
	}
	return nil, nil
}

// mockStrategy provides a configurable mock for Strategy.
type mockStrategy struct {
	name      string
	extractFn func(ctx context.Context, videoID string) (*model.Track, error)
	calls     atomic.Int32
}

func (m *mockStrategy) Name() string {
	return m.name
}

func (m *mockStrategy) Extract(ctx context.Context, videoID string) (*model.Track, error) {
	m.calls.Add(1)
	if m.extractFn != nil {
		return m.extractFn(ctx, videoID)
	}
	return nil, repository.ErrToolFailed
}

// mockExtractor provides a configurable mock for Extractor.
type mockExtractor struct {
	extractFn func(ctx context.Context, videoID string) (*model.Track, error)
	calls     atomic.Int32
}

func (m *mockExtractor) Extract(ctx context.Context, videoID string) (*model.Track, error) {
	m.calls.Add(1)
	if m.extractFn != nil {
		return m.extractFn(ctx, videoID)
	}
	return newTestTrack(videoID, "https://media.example/"+videoID), nil
}

// mockTrackService provides a configurable mock for TrackService.
type mockTrackService struct {
	resolveFn    func(ctx context.Context, videoID string) (*model.Track, error)
	refreshFn    func(ctx context.Context, videoID string) (*model.Track, error)
	lookupFn     func(videoID string) (*model.Track, bool)
	invalidateFn func(videoID string)

	resolveCount    atomic.Int32
	refreshCount    atomic.Int32
	invalidateCount atomic.Int32
}

func (m *mockTrackService) Resolve(ctx context.Context, videoID string) (*model.Track, error) {
	m.resolveCount.Add(1)
	if m.resolveFn != nil {
		return m.resolveFn(ctx, videoID)
	}
	return nil, ErrExtractionFailed
}

func (m *mockTrackService) Refresh(ctx context.Context, videoID string) (*model.Track, error) {
	m.refreshCount.Add(1)
	if m.refreshFn != nil {
		return m.refreshFn(ctx, videoID)
	}
	return nil, ErrExtractionFailed
}

func (m *mockTrackService) Lookup(videoID string) (*model.Track, bool) {
	if m.lookupFn != nil {
		return m.lookupFn(videoID)
	}
	return nil, false
}

func (m *mockTrackService) Invalidate(videoID string) {
	m.invalidateCount.Add(1)
	if m.invalidateFn != nil {
		m.invalidateFn(videoID)
	}
}

// mockSearchService provides a configurable mock for SearchService.
type mockSearchService struct {
	searchFn func(ctx context.Context, query string, count int) ([]model.SearchHit, error)
}

func (m *mockSearchService) Search(ctx context.Context, query string, count int) ([]model.SearchHit, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, count)
	}
	return nil, nil
}

// mockFetcher provides a configurable mock for Fetcher.
type mockFetcher struct {
	fetchFn func(ctx context.Context, rawURL, rangeHeader string) (*http.Response, error)
	calls   atomic.Int32
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL, rangeHeader string) (*http.Response, error) {
	m.calls.Add(1)
	if m.fetchFn != nil {
		return m.fetchFn(ctx, rawURL, rangeHeader)
	}
	return nil, context.DeadlineExceeded
}

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	now atomic.Pointer[time.Time]
}

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now.Store(&start)
	return c
}

func (c *fakeClock) Now() time.Time {
	return *c.now.Load()
}

func (c *fakeClock) Advance(d time.Duration) {
	next := c.Now().Add(d)
	c.now.Store(&next)
}

func newTestTrack(id, mediaURL string) *model.Track {
	return &model.Track{
		ID:          id,
		Title:       "Test Song",
		Thumbnail:   model.ThumbnailURL(id),
		AudioURL:    mediaURL,
		ContentType: model.ContentTypeMP4Audio,
		Duration:    180,
		Channel:     "Test Artist",
	}
}
