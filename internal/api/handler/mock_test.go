package handler

import (
	"context"

	"github.com/hszk-dev/clashstream/internal/domain/model"
	"github.com/hszk-dev/clashstream/internal/usecase"
)

type mockTrackService struct {
	resolveFn func(ctx context.Context, videoID string) (*model.Track, error)
	refreshFn func(ctx context.Context, videoID string) (*model.Track, error)
}

func (m *mockTrackService) Resolve(ctx context.Context, videoID string) (*model.Track, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, videoID)
	}
	return nil, usecase.ErrExtractionFailed
}

func (m *mockTrackService) Refresh(ctx context.Context, videoID string) (*model.Track, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, videoID)
	}
	return nil, usecase.ErrExtractionFailed
}

func (m *mockTrackService) Lookup(videoID string) (*model.Track, bool) {
	return nil, false
}

func (m *mockTrackService) Invalidate(videoID string) {}

type mockSearchService struct {
	searchFn func(ctx context.Context, query string, count int) ([]model.SearchHit, error)
}

func (m *mockSearchService) Search(ctx context.Context, query string, count int) ([]model.SearchHit, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, count)
	}
	return nil, nil
}

type mockDiscoveryService struct {
	playFromQueryFn func(ctx context.Context, query string) (*model.Track, error)
	trendingFn      func(ctx context.Context, count int) ([]model.SearchHit, error)
	relatedFn       func(ctx context.Context, videoID string, count int) ([]model.SearchHit, error)
}

func (m *mockDiscoveryService) PlayFromQuery(ctx context.Context, query string) (*model.Track, error) {
	if m.playFromQueryFn != nil {
		return m.playFromQueryFn(ctx, query)
	}
	return nil, usecase.ErrNoResults
}

func (m *mockDiscoveryService) Trending(ctx context.Context, count int) ([]model.SearchHit, error) {
	if m.trendingFn != nil {
		return m.trendingFn(ctx, count)
	}
	return nil, nil
}

func (m *mockDiscoveryService) Related(ctx context.Context, videoID string, count int) ([]model.SearchHit, error) {
	if m.relatedFn != nil {
		return m.relatedFn(ctx, videoID, count)
	}
	return nil, nil
}

type mockStreamService struct {
	openFn func(ctx context.Context, videoID, rangeHeader string) (*usecase.StreamResponse, error)
}

func (m *mockStreamService) Open(ctx context.Context, videoID, rangeHeader string) (*usecase.StreamResponse, error) {
	if m.openFn != nil {
		return m.openFn(ctx, videoID, rangeHeader)
	}
	return nil, usecase.ErrExtractionFailed
}

func testTrack(id string) *model.Track {
	return &model.Track{
		ID:          id,
		Title:       "Test Song",
		Thumbnail:   model.ThumbnailURL(id),
		AudioURL:    "https://media.example/" + id,
		ContentType: model.ContentTypeMP4Audio,
		Duration:    180,
		Channel:     "Test Artist",
	}
}
