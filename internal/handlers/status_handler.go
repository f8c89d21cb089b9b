package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
)

// StatusHandler reports service health and build information
type StatusHandler struct {
	articles ArticleCounter
	model    ModelStatus
	logger   arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(articles ArticleCounter, model ModelStatus, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		articles: articles,
		model:    model,
		logger:   logger,
	}
}

// HealthHandler handles GET /api/health
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	count, err := h.articles.Count(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Health check could not count articles")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"error":  "article store unavailable",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"article_count":   count,
		"model_available": h.model.ModelAvailable(),
	})
}

// VersionHandler handles GET /api/version
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}
