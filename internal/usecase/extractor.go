package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hszk-dev/clashstream/internal/domain/model"
	"github.com/hszk-dev/clashstream/internal/domain/repository"
	"github.com/hszk-dev/clashstream/internal/infrastructure/metrics"
)

// DefaultPlayerClients is the order in which player client profiles are tried.
var DefaultPlayerClients = []string{"android", "ios", "web", "tv_embedded"}

// StrategyDirectURL is the name of the metadata-less fallback strategy.
const StrategyDirectURL = "direct_url"

var errNoUsableFormat = errors.New("no usable format")

// Extractor turns a video identifier into a playable track.
type Extractor interface {
	Extract(ctx context.Context, videoID string) (*model.Track, error)
}

// Strategy is a single named way of extracting a track.
type Strategy interface {
	Extractor
	Name() string
}

// ClientStrategy probes full metadata while presenting one player client profile.
type ClientStrategy struct {
	source repository.MediaSource
	client string
}

// NewClientStrategy creates a strategy for the given player client.
func NewClientStrategy(source repository.MediaSource, client string) *ClientStrategy {
	return &ClientStrategy{source: source, client: client}
}

// Name returns the player client name.
func (s *ClientStrategy) Name() string {
	return s.client
}

// Extract probes videoID and builds a track from the best format.
func (s *ClientStrategy) Extract(ctx context.Context, videoID string) (*model.Track, error) {
	info, err := s.source.Probe(ctx, videoID, s.client)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: empty probe result", repository.ErrMalformedOutput)
	}

	format, ok := selectFormat(info.Formats)
	if !ok {
		return nil, fmt.Errorf("%w among %d formats", errNoUsableFormat, len(info.Formats))
	}

	return &model.Track{
		ID:          videoID,
		Title:       model.FirstNonEmpty(model.UnknownTitle, info.Title),
		Thumbnail:   model.FirstNonEmpty(model.ThumbnailURL(videoID), info.Thumbnail),
		AudioURL:    format.URL,
		ContentType: model.ContentTypeForExt(format.Ext),
		Duration:    info.Duration,
		Channel:     model.FirstNonEmpty(model.UnknownChannel, info.Uploader, info.Channel),
	}, nil
}

// DirectURLStrategy asks the tool for a single best-audio URL without metadata.
type DirectURLStrategy struct {
	source repository.MediaSource
}

// NewDirectURLStrategy creates the metadata-less fallback strategy.
func NewDirectURLStrategy(source repository.MediaSource) *DirectURLStrategy {
	return &DirectURLStrategy{source: source}
}

// Name returns StrategyDirectURL.
func (s *DirectURLStrategy) Name() string {
	return StrategyDirectURL
}

// Extract returns a minimal placeholder track around the direct media URL.
func (s *DirectURLStrategy) Extract(ctx context.Context, videoID string) (*model.Track, error) {
	mediaURL, err := s.source.DirectURL(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(mediaURL, "http://") && !strings.HasPrefix(mediaURL, "https://") {
		return nil, fmt.Errorf("%w: not an http URL", repository.ErrMalformedOutput)
	}

	return &model.Track{
		ID:          videoID,
		Title:       model.PendingTitle,
		Thumbnail:   model.ThumbnailURL(videoID),
		AudioURL:    mediaURL,
		ContentType: model.ContentTypeMP4Audio,
		Channel:     model.UnknownChannel,
	}, nil
}

// ChainExtractor tries strategies in order and returns the first success.
// Individual strategy failures are logged and swallowed.
type ChainExtractor struct {
	strategies []Strategy
}

// NewChainExtractor creates an extractor over the given strategies.
func NewChainExtractor(strategies ...Strategy) *ChainExtractor {
	return &ChainExtractor{strategies: strategies}
}

// NewDefaultExtractor builds the standard chain: one strategy per player client,
// then the direct URL fallback.
func NewDefaultExtractor(source repository.MediaSource, clients []string) *ChainExtractor {
	if len(clients) == 0 {
		clients = DefaultPlayerClients
	}

	strategies := make([]Strategy, 0, len(clients)+1)
	for _, c := range clients {
		strategies = append(strategies, NewClientStrategy(source, c))
	}
	strategies = append(strategies, NewDirectURLStrategy(source))
	return NewChainExtractor(strategies...)
}

// Extract runs the chain. It returns ErrExtractionFailed when every strategy failed,
// or the context error when ctx ends first.
func (e *ChainExtractor) Extract(ctx context.Context, videoID string) (*model.Track, error) {
	var lastErr error

	for _, s := range e.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		track, err := s.Extract(ctx, videoID)
		metrics.ExtractionAttemptsTotal.WithLabelValues(s.Name(), metrics.Result(err)).Inc()
		if err != nil {
			slog.Warn("extraction strategy failed",
				"video_id", videoID,
				"strategy", s.Name(),
				"error", err,
			)
			lastErr = err
			continue
		}

		slog.Info("extraction succeeded",
			"video_id", videoID,
			"strategy", s.Name(),
			"content_type", track.ContentType,
		)
		return track, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lastErr == nil {
		return nil, fmt.Errorf("%w: %s: no strategies configured", ErrExtractionFailed, videoID)
	}
	return nil, fmt.Errorf("%w: %s: %d strategies exhausted, last error: %v",
		ErrExtractionFailed, videoID, len(e.strategies), lastErr)
}
