package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
)

// RecapHandler serves the daily market recap
type RecapHandler struct {
	recap  RecapGenerator
	logger arbor.ILogger
}

// NewRecapHandler creates a recap handler
func NewRecapHandler(recap RecapGenerator, logger arbor.ILogger) *RecapHandler {
	return &RecapHandler{
		recap:  recap,
		logger: logger,
	}
}

// DailyHandler handles GET /api/recap
func (h *RecapHandler) DailyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	summary, err := h.recap.DailyRecap(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build daily recap")
		WriteError(w, http.StatusInternalServerError, "Failed to build daily recap")
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}
