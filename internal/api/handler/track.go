package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/clashstream/internal/domain/model"
	"github.com/hszk-dev/clashstream/internal/usecase"
)

// Default listing sizes.
const (
	DefaultSearchListCount = 12
	DefaultTrendingCount   = 15
	DefaultRelatedCount    = 10
)

type TracksResponse struct {
	Tracks []model.SearchHit `json:"tracks"`
}

// TrackHandler handles track resolution and listing requests.
type TrackHandler struct {
	tracks    usecase.TrackService
	searches  usecase.SearchService
	discovery usecase.DiscoveryService
}

// NewTrackHandler creates a new TrackHandler.
func NewTrackHandler(
	tracks usecase.TrackService,
	searches usecase.SearchService,
	discovery usecase.DiscoveryService,
) *TrackHandler {
	return &TrackHandler{
		tracks:    tracks,
		searches:  searches,
		discovery: discovery,
	}
}

// Play handles GET /play/{id}
func (h *TrackHandler) Play(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	var (
		track *model.Track
		err   error
	)
	if queryFlag(r, "refresh") {
		track, err = h.tracks.Refresh(r.Context(), videoID)
	} else {
		track, err = h.tracks.Resolve(r.Context(), videoID)
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, track.WithStreamURL())
}

// Search handles GET /search?query=
func (h *TrackHandler) Search(w http.ResponseWriter, r *http.Request) {
	track, err := h.discovery.PlayFromQuery(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, track.WithStreamURL())
}

// SearchList handles GET /search-list?query=&count=
func (h *TrackHandler) SearchList(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", DefaultSearchListCount)

	hits, err := h.searches.Search(r.Context(), r.URL.Query().Get("query"), count)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toTracksResponse(hits))
}

// Trending handles GET /trending?count=
func (h *TrackHandler) Trending(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", DefaultTrendingCount)

	hits, err := h.discovery.Trending(r.Context(), count)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toTracksResponse(hits))
}

// Related handles GET /related/{id}?count=
func (h *TrackHandler) Related(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", DefaultRelatedCount)

	hits, err := h.discovery.Related(r.Context(), chi.URLParam(r, "id"), count)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toTracksResponse(hits))
}

func toTracksResponse(hits []model.SearchHit) TracksResponse {
	if hits == nil {
		hits = []model.SearchHit{}
	}
	return TracksResponse{Tracks: hits}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidID):
		Error(w, http.StatusBadRequest, "Invalid video ID")
	case errors.Is(err, model.ErrEmptyQuery):
		Error(w, http.StatusBadRequest, "Query required")
	case errors.Is(err, usecase.ErrNoResults):
		Error(w, http.StatusNotFound, "No results")
	case errors.Is(err, usecase.ErrNoPlayableResult):
		Error(w, http.StatusInternalServerError, "No playable results")
	case errors.Is(err, usecase.ErrExtractionFailed):
		Error(w, http.StatusInternalServerError, "Extraction failed")
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// Client went away; nobody reads the response.
		slog.Debug("request cancelled by client", "path", r.URL.Path)
	default:
		slog.Error("request failed",
			"path", r.URL.Path,
			"error", err,
		)
		Error(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
