package handler

import (
	"log/slog"
	"net/http"

	"github.com/hszk-dev/clashstream/internal/infrastructure/cache"
)

// CacheAdmin exposes cache sizes and a reset.
type CacheAdmin interface {
	Stats() cache.Stats
	Clear()
}

type HealthResponse struct {
	OK       bool `json:"ok"`
	Cached   int  `json:"cached"`
	Failed   int  `json:"failed"`
	Searches int  `json:"searches"`
}

// HealthHandler reports liveness and manages the caches.
type HealthHandler struct {
	caches CacheAdmin
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(caches CacheAdmin) *HealthHandler {
	return &HealthHandler{caches: caches}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.caches.Stats()
	JSON(w, http.StatusOK, HealthResponse{
		OK:       true,
		Cached:   stats.Tracks,
		Failed:   stats.Failed,
		Searches: stats.Searches,
	})
}

// ClearCache handles POST /api/clear-cache
func (h *HealthHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.caches.Clear()
	slog.Info("caches cleared")
	JSON(w, http.StatusOK, OKResponse{OK: true})
}
