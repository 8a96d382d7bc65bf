package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// IDLength is the fixed length of a platform video identifier.
const IDLength = 11

// channelIDPrefix marks channel identifiers, which share the 11+ char space with videos
// in search results but are never playable.
const channelIDPrefix = "UC"

// Placeholders used when the extraction tool omits a field.
const (
	UnknownTitle   = "Unknown"
	UnknownChannel = "Unknown"
	PendingTitle   = "Loading..."
)

// Content types derived from the selected container.
const (
	ContentTypeMP4Audio  = "audio/mp4"
	ContentTypeWebMAudio = "audio/webm"
	ContentTypeMP4Video  = "video/mp4"
)

var (
	ErrInvalidID  = errors.New("invalid video ID")
	ErrEmptyQuery = errors.New("query required")
)

// Track is a resolved, playable media item.
// AudioURL is the upstream media URL as extracted; handlers replace it with the
// proxy path before returning it to clients.
type Track struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Thumbnail   string    `json:"thumbnail"`
	AudioURL    string    `json:"audioUrl"`
	ContentType string    `json:"contentType"`
	Duration    float64   `json:"duration"`
	Channel     string    `json:"channel"`
	ExtractedAt time.Time `json:"-"`
}

// WithStreamURL returns a copy of the track whose AudioURL points at the local proxy.
func (t *Track) WithStreamURL() *Track {
	c := *t
	c.AudioURL = StreamPath(t.ID)
	return &c
}

// SearchHit is the lightweight projection returned by search listings.
type SearchHit struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Duration  float64 `json:"duration"`
	Channel   string  `json:"channel"`
}

// ValidateID checks that id has the fixed identifier length.
func ValidateID(id string) error {
	if len(id) != IDLength {
		return ErrInvalidID
	}
	return nil
}

// IsPlayableID reports whether a search result id can refer to a single video.
func IsPlayableID(id string) bool {
	return len(id) == IDLength && !strings.HasPrefix(id, channelIDPrefix)
}

// ThumbnailURL returns the deterministic thumbnail location for a video.
func ThumbnailURL(id string) string {
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", id)
}

// WatchURL returns the canonical page URL handed to the extraction tool.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// StreamPath returns the proxy path serving the media bytes for id.
func StreamPath(id string) string {
	return "/stream/" + id
}

// ContentTypeForExt maps a container extension to the content type sent to clients.
func ContentTypeForExt(ext string) string {
	switch ext {
	case "m4a":
		return ContentTypeMP4Audio
	case "webm":
		return ContentTypeWebMAudio
	default:
		return ContentTypeMP4Video
	}
}

// FirstNonEmpty returns the first non-empty value, or fallback.
func FirstNonEmpty(fallback string, values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return fallback
}
