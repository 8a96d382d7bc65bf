package usecase

import (
	"testing"

	"github.com/hszk-dev/clashstream/internal/domain/repository"
)

func TestSelectFormat(t *testing.T) {
	var (
		m4aAudio  = repository.MediaFormat{FormatID: "140", URL: "https://m/140", Ext: "m4a", ACodec: "mp4a.40.2", VCodec: "none"}
		webmAudio = repository.MediaFormat{FormatID: "251", URL: "https://m/251", Ext: "webm", ACodec: "opus", VCodec: "none"}
		muxed18   = repository.MediaFormat{FormatID: "18", URL: "https://m/18", Ext: "mp4", ACodec: "mp4a.40.2", VCodec: "avc1"}
		muxed22   = repository.MediaFormat{FormatID: "22", URL: "https://m/22", Ext: "mp4", ACodec: "mp4a.40.2", VCodec: "avc1"}
		muxedX    = repository.MediaFormat{FormatID: "95", URL: "https://m/95", Ext: "mp4", ACodec: "mp4a.40.2", VCodec: "avc1"}
		videoOnly = repository.MediaFormat{FormatID: "137", URL: "https://m/137", Ext: "mp4", ACodec: "none", VCodec: "avc1"}
		videoLast = repository.MediaFormat{FormatID: "248", URL: "https://m/248", Ext: "webm", ACodec: "none", VCodec: "vp9"}
		hlsAudio  = repository.MediaFormat{FormatID: "233", URL: "https://m/233/index.m3u8", Ext: "m4a", ACodec: "mp4a.40.2", VCodec: "none"}
		hlsProto  = repository.MediaFormat{FormatID: "234", URL: "https://m/234", Ext: "m4a", ACodec: "mp4a.40.2", VCodec: "none", Protocol: "m3u8_native"}
		noURL     = repository.MediaFormat{FormatID: "139", Ext: "m4a", ACodec: "mp4a.40.5", VCodec: "none"}
	)

	tests := []struct {
		name    string
		formats []repository.MediaFormat
		wantID  string
		wantOK  bool
	}{
		{"empty list", nil, "", false},
		{"only unusable formats", []repository.MediaFormat{noURL, hlsAudio, hlsProto}, "", false},
		{"m4a audio-only preferred over earlier webm", []repository.MediaFormat{webmAudio, m4aAudio}, "140", true},
		{"any audio-only when no m4a", []repository.MediaFormat{muxed18, webmAudio}, "251", true},
		{"manifests never chosen", []repository.MediaFormat{hlsAudio, hlsProto, webmAudio}, "251", true},
		{"format without url skipped", []repository.MediaFormat{noURL, muxed22}, "22", true},
		{"known ids in preference order", []repository.MediaFormat{muxed22, muxed18}, "18", true},
		{"any format with audio", []repository.MediaFormat{videoOnly, muxedX}, "95", true},
		{"last format as final fallback", []repository.MediaFormat{videoOnly, videoLast}, "248", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := selectFormat(tt.formats)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.FormatID != tt.wantID {
				t.Errorf("selected %q, want %q", got.FormatID, tt.wantID)
			}
		})
	}
}
