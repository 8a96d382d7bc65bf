package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hszk-dev/clashstream/internal/domain/model"
	"github.com/hszk-dev/clashstream/internal/infrastructure/metrics"
	"github.com/hszk-dev/clashstream/internal/infrastructure/upstream"
)

// Fetcher opens a media URL. Implementations follow redirects and report
// non-success statuses as errors.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, rangeHeader string) (*http.Response, error)
}

// StreamResponse is an open upstream media response ready to be relayed.
type StreamResponse struct {
	StatusCode    int
	ContentType   string
	ContentLength int64 // -1 when unknown
	ContentRange  string
	Body          io.ReadCloser
}

// StreamServiceConfig holds configuration for StreamService.
type StreamServiceConfig struct {
	// MaxRetries is how many times a failed open is retried with a fresh extraction.
	MaxRetries int
}

// DefaultStreamServiceConfig returns the default configuration.
func DefaultStreamServiceConfig() StreamServiceConfig {
	return StreamServiceConfig{
		MaxRetries: 2,
	}
}

// StreamService opens upstream media for a track, re-extracting on failure.
type StreamService interface {
	// Open resolves videoID and opens its media, forwarding rangeHeader.
	// The caller must close the returned body.
	Open(ctx context.Context, videoID, rangeHeader string) (*StreamResponse, error)
}

type streamService struct {
	tracks     TrackService
	fetcher    Fetcher
	maxRetries int
}

// NewStreamService creates a new StreamService.
func NewStreamService(tracks TrackService, fetcher Fetcher, cfg StreamServiceConfig) StreamService {
	return &streamService{
		tracks:     tracks,
		fetcher:    fetcher,
		maxRetries: max(cfg.MaxRetries, 0),
	}
}

func (s *streamService) Open(ctx context.Context, videoID, rangeHeader string) (*StreamResponse, error) {
	if err := model.ValidateID(videoID); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		resp, err := s.open(ctx, videoID, rangeHeader, attempt)
		if err == nil {
			metrics.StreamRequestsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		slog.Warn("stream attempt failed",
			"video_id", videoID,
			"attempt", attempt+1,
			"error", err,
		)

		if errors.Is(err, upstream.ErrRedirectLoop) {
			break
		}
	}

	metrics.StreamRequestsTotal.WithLabelValues(metrics.ResultFailure).Inc()
	return nil, lastErr
}

// open performs one attempt. Attempts after the first discard the cached
// media URL and extract afresh.
func (s *streamService) open(ctx context.Context, videoID, rangeHeader string, attempt int) (*StreamResponse, error) {
	var (
		track *model.Track
		err   error
	)
	if attempt == 0 {
		track, err = s.tracks.Resolve(ctx, videoID)
	} else {
		metrics.StreamRetriesTotal.Inc()
		s.tracks.Invalidate(videoID)
		track, err = s.tracks.Refresh(ctx, videoID)
	}
	if err != nil {
		return nil, err
	}

	resp, err := s.fetcher.Fetch(ctx, track.AudioURL, rangeHeader)
	if err != nil {
		return nil, err
	}

	return &StreamResponse{
		StatusCode:    resp.StatusCode,
		ContentType:   model.FirstNonEmpty(model.ContentTypeMP4Audio, resp.Header.Get("Content-Type"), track.ContentType),
		ContentLength: resp.ContentLength,
		ContentRange:  resp.Header.Get("Content-Range"),
		Body:          resp.Body,
	}, nil
}
