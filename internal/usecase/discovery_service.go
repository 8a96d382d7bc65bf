package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/hszk-dev/clashstream/internal/domain/model"
)

// DiscoveryServiceConfig holds configuration for DiscoveryService.
type DiscoveryServiceConfig struct {
	// PlayCandidates is how many results a play-from-query search asks for.
	PlayCandidates int
	// PlayAttempts is how many of those results are tried before giving up.
	PlayAttempts int
	// TrendingTopics are the queries trending picks from at random.
	TrendingTopics []string
	// RelatedFallbackTopic is searched when the seed track is not cached.
	RelatedFallbackTopic string
	// RelatedLimit bounds the related list.
	RelatedLimit int
}

// DefaultDiscoveryServiceConfig returns the default configuration.
func DefaultDiscoveryServiceConfig() DiscoveryServiceConfig {
	return DiscoveryServiceConfig{
		PlayCandidates:       12,
		PlayAttempts:         5,
		TrendingTopics:       []string{"top songs 2024", "bollywood hits", "english pop hits", "anime openings"},
		RelatedFallbackTopic: "popular music",
		RelatedLimit:         8,
	}
}

// DiscoveryService builds listings and picks tracks from free-text queries.
type DiscoveryService interface {
	// PlayFromQuery searches for query and resolves the first result that extracts.
	PlayFromQuery(ctx context.Context, query string) (*model.Track, error)

	// Trending returns results for a randomly chosen trending topic.
	Trending(ctx context.Context, count int) ([]model.SearchHit, error)

	// Related returns tracks similar to videoID, excluding videoID itself.
	Related(ctx context.Context, videoID string, count int) ([]model.SearchHit, error)
}

type discoveryService struct {
	tracks   TrackService
	searches SearchService
	cfg      DiscoveryServiceConfig
	pick     func(n int) int
}

// NewDiscoveryService creates a new DiscoveryService.
func NewDiscoveryService(tracks TrackService, searches SearchService, cfg DiscoveryServiceConfig) DiscoveryService {
	if len(cfg.TrendingTopics) == 0 {
		cfg.TrendingTopics = DefaultDiscoveryServiceConfig().TrendingTopics
	}
	return &discoveryService{
		tracks:   tracks,
		searches: searches,
		cfg:      cfg,
		pick:     rand.IntN,
	}
}

func (s *discoveryService) PlayFromQuery(ctx context.Context, query string) (*model.Track, error) {
	hits, err := s.searches.Search(ctx, query, s.cfg.PlayCandidates)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, ErrNoResults
	}

	attempts := min(s.cfg.PlayAttempts, len(hits))
	for _, hit := range hits[:attempts] {
		track, err := s.tracks.Resolve(ctx, hit.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Info("skipping unplayable search result",
				"video_id", hit.ID,
				"error", err,
			)
			continue
		}
		return track, nil
	}

	return nil, fmt.Errorf("%w: tried %d of %d results", ErrNoPlayableResult, attempts, len(hits))
}

func (s *discoveryService) Trending(ctx context.Context, count int) ([]model.SearchHit, error) {
	topic := s.cfg.TrendingTopics[s.pick(len(s.cfg.TrendingTopics))]
	return s.searches.Search(ctx, topic, count)
}

func (s *discoveryService) Related(ctx context.Context, videoID string, count int) ([]model.SearchHit, error) {
	query := s.cfg.RelatedFallbackTopic
	if track, ok := s.tracks.Lookup(videoID); ok {
		query = track.Title
	}

	hits, err := s.searches.Search(ctx, query, count)
	if err != nil {
		return nil, err
	}

	related := make([]model.SearchHit, 0, min(len(hits), s.cfg.RelatedLimit))
	for _, hit := range hits {
		if hit.ID == videoID {
			continue
		}
		if len(related) == s.cfg.RelatedLimit {
			break
		}
		related = append(related, hit)
	}
	return related, nil
}
