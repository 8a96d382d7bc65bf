package usecase

import (
	"strings"

	"github.com/hszk-dev/clashstream/internal/domain/repository"
)

// preferredFormatIDs are well-known renditions tried when no audio-only format is listed:
// AAC 128k, Opus 160k/70k/50k, then the muxed 360p and 720p MP4s.
var preferredFormatIDs = []string{"140", "251", "250", "249", "18", "22"}

// selectFormat picks the rendition to stream from a probe's format list.
// Formats without a URL and HLS manifests are never chosen.
func selectFormat(formats []repository.MediaFormat) (repository.MediaFormat, bool) {
	usable := make([]repository.MediaFormat, 0, len(formats))
	for _, f := range formats {
		if f.URL == "" || isManifest(f) {
			continue
		}
		usable = append(usable, f)
	}
	if len(usable) == 0 {
		return repository.MediaFormat{}, false
	}

	if f, ok := findFormat(usable, func(f repository.MediaFormat) bool {
		return f.IsAudioOnly() && f.Ext == "m4a"
	}); ok {
		return f, true
	}
	if f, ok := findFormat(usable, repository.MediaFormat.IsAudioOnly); ok {
		return f, true
	}
	for _, id := range preferredFormatIDs {
		if f, ok := findFormat(usable, func(f repository.MediaFormat) bool {
			return f.FormatID == id
		}); ok {
			return f, true
		}
	}
	if f, ok := findFormat(usable, repository.MediaFormat.HasAudio); ok {
		return f, true
	}

	return usable[len(usable)-1], true
}

func findFormat(formats []repository.MediaFormat, match func(repository.MediaFormat) bool) (repository.MediaFormat, bool) {
	for _, f := range formats {
		if match(f) {
			return f, true
		}
	}
	return repository.MediaFormat{}, false
}

func isManifest(f repository.MediaFormat) bool {
	return strings.Contains(f.URL, ".m3u8") || strings.HasPrefix(f.Protocol, "m3u8")
}
