package repository

import (
	"context"
)

// MediaFormat is one downloadable rendition reported by the extraction tool.
type MediaFormat struct {
	FormatID string  `json:"format_id"`
	URL      string  `json:"url"`
	Ext      string  `json:"ext"`
	ACodec   string  `json:"acodec"`
	VCodec   string  `json:"vcodec"`
	Protocol string  `json:"protocol"`
	ABR      float64 `json:"abr"`
}

// HasAudio reports whether the format carries an audio channel.
func (f MediaFormat) HasAudio() bool {
	return f.ACodec != "" && f.ACodec != "none"
}

// IsAudioOnly reports whether the format carries audio and no video.
func (f MediaFormat) IsAudioOnly() bool {
	return f.HasAudio() && f.VCodec == "none"
}

// MediaInfo is the full metadata document for a single video.
type MediaInfo struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Thumbnail string        `json:"thumbnail"`
	Duration  float64       `json:"duration"`
	Uploader  string        `json:"uploader"`
	Channel   string        `json:"channel"`
	Formats   []MediaFormat `json:"formats"`
}

// Thumbnail is a single entry of a search result's thumbnail list.
type Thumbnail struct {
	URL string `json:"url"`
}

// SearchEntry is a flat search result as reported by the extraction tool.
type SearchEntry struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Duration   float64     `json:"duration"`
	Uploader   string      `json:"uploader"`
	Channel    string      `json:"channel"`
	Thumbnails []Thumbnail `json:"thumbnails"`
}

// MediaSource is the contract of the external extraction tool.
// Implementations should be provided by the infrastructure layer (e.g., yt-dlp).
type MediaSource interface {
	// Probe fetches full metadata for videoID, presenting the given player client
	// profile to the platform.
	Probe(ctx context.Context, videoID, playerClient string) (*MediaInfo, error)

	// DirectURL asks for a single best-audio media URL without metadata.
	DirectURL(ctx context.Context, videoID string) (string, error)

	// Search returns up to count flat results for a free-text query.
	Search(ctx context.Context, query string, count int) ([]SearchEntry, error)
}
