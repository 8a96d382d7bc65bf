package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/clashstream/internal/domain/model"
	"github.com/hszk-dev/clashstream/internal/usecase"
)

const streamBufferSize = 32 * 1024

// StreamHandler relays upstream media bytes to clients.
type StreamHandler struct {
	streams usecase.StreamService
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(streams usecase.StreamService) *StreamHandler {
	return &StreamHandler{streams: streams}
}

// Stream handles GET /stream/{id}
// Once the status line is written, failures only end the response.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	videoID := chi.URLParam(r, "id")

	resp, err := h.streams.Open(r.Context(), videoID, r.Header.Get("Range"))
	if err != nil {
		if r.Context().Err() != nil {
			slog.Debug("stream cancelled by client", "video_id", videoID)
			return
		}
		if errors.Is(err, model.ErrInvalidID) {
			Error(w, http.StatusBadRequest, "Invalid video ID")
			return
		}
		slog.Error("stream failed",
			"video_id", videoID,
			"error", err,
		)
		Error(w, http.StatusInternalServerError, "Stream failed")
		return
	}
	defer resp.Body.Close()

	header := w.Header()
	header.Set("Content-Type", resp.ContentType)
	if resp.ContentLength >= 0 {
		header.Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}
	if resp.ContentRange != "" {
		header.Set("Content-Range", resp.ContentRange)
	}
	header.Set("Accept-Ranges", "bytes")
	header.Set("Cache-Control", "no-cache")
	w.WriteHeader(resp.StatusCode)

	written, err := copyFlushing(w, resp.Body)
	if err != nil && r.Context().Err() == nil {
		slog.Warn("stream interrupted",
			"video_id", videoID,
			"bytes_written", written,
			"error", err,
		)
	}
}

// Preflight handles OPTIONS /stream/{id}
func (h *StreamHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.WriteHeader(http.StatusNoContent)
}

func setCORSHeaders(w http.ResponseWriter) {
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Headers", "Range")
	header.Set("Access-Control-Expose-Headers", "Content-Range, Content-Length, Accept-Ranges")
}

// copyFlushing copies src to w, flushing after every chunk so playback can start
// before the body is complete.
func copyFlushing(w http.ResponseWriter, src io.Reader) (int64, error) {
	rc := http.NewResponseController(w)
	buf := make([]byte, streamBufferSize)

	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			m, err := w.Write(buf[:n])
			written += int64(m)
			if err != nil {
				return written, err
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return written, err
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
