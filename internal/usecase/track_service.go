package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/clashstream/internal/domain/model"
	"github.com/hszk-dev/clashstream/internal/infrastructure/cache"
	"github.com/hszk-dev/clashstream/internal/infrastructure/metrics"
)

// TrackService resolves identifiers into playable tracks.
type TrackService interface {
	// Resolve returns the cached track for videoID, extracting it on a miss.
	Resolve(ctx context.Context, videoID string) (*model.Track, error)

	// Refresh bypasses the cache, extracts videoID again and replaces the cached entry.
	Refresh(ctx context.Context, videoID string) (*model.Track, error)

	// Lookup returns the cached track for videoID without extracting.
	Lookup(videoID string) (*model.Track, bool)

	// Invalidate drops the cached track for videoID.
	Invalidate(videoID string)
}

const refreshKeyPrefix = "refresh:"

// trackService puts the extraction cache and failed-set bookkeeping in front of an Extractor.
// Concurrent extractions of the same identifier are collapsed into one.
type trackService struct {
	extractor Extractor
	store     *cache.Store
	clock     cache.Clock
	sfGroup   singleflight.Group
}

// NewTrackService creates a new TrackService.
func NewTrackService(extractor Extractor, store *cache.Store, clock cache.Clock) TrackService {
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &trackService{
		extractor: extractor,
		store:     store,
		clock:     clock,
	}
}

func (s *trackService) Resolve(ctx context.Context, videoID string) (*model.Track, error) {
	if err := model.ValidateID(videoID); err != nil {
		return nil, err
	}

	if track, ok := s.Lookup(videoID); ok {
		return track, nil
	}

	return s.extractShared(ctx, videoID, true)
}

func (s *trackService) Refresh(ctx context.Context, videoID string) (*model.Track, error) {
	if err := model.ValidateID(videoID); err != nil {
		return nil, err
	}

	return s.extractShared(ctx, videoID, false)
}

func (s *trackService) Lookup(videoID string) (*model.Track, bool) {
	entry, ok := s.store.Tracks.Get(videoID)
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

func (s *trackService) Invalidate(videoID string) {
	s.store.Tracks.Delete(videoID)
}

// extractShared runs at most one extraction per identifier at a time.
// Refreshes fly under their own key so they never join a flight that may be
// answered from the cache.
// The extraction is detached from ctx so one caller leaving does not fail the
// others waiting on it; each caller still returns as soon as its own ctx ends.
func (s *trackService) extractShared(ctx context.Context, videoID string, useCache bool) (*model.Track, error) {
	detached := context.WithoutCancel(ctx)

	key := videoID
	if !useCache {
		key = refreshKeyPrefix + videoID
	}

	ch := s.sfGroup.DoChan(key, func() (track any, err error) {
		// The flight runs on its own goroutine, out of reach of any caller's recover.
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered in extraction",
					slog.String("video_id", videoID),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				track, err = nil, fmt.Errorf("%w: panic: %v", ErrExtractionFailed, rec)
			}
		}()

		if useCache {
			// A flight that finished just before this one may have filled the cache.
			if cached, ok := s.Lookup(videoID); ok {
				return cached, nil
			}
		}
		return s.extract(detached, videoID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
		} else {
			metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Track), nil
	}
}

func (s *trackService) extract(ctx context.Context, videoID string) (*model.Track, error) {
	track, err := s.extractor.Extract(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrExtractionFailed) {
			s.store.Failed.Add(videoID)
		}
		slog.Error("extraction failed",
			"video_id", videoID,
			"error", err,
		)
		return nil, err
	}

	track.ExtractedAt = s.clock.Now()
	s.store.Tracks.Set(videoID, track)
	s.store.Failed.Remove(videoID)

	return track, nil
}
