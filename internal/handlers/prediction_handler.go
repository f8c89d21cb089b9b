package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
)

// PredictionHandler serves single-symbol predictions and ranked picks
type PredictionHandler struct {
	predictor Predictor
	logger    arbor.ILogger
}

// NewPredictionHandler creates a prediction handler
func NewPredictionHandler(predictor Predictor, logger arbor.ILogger) *PredictionHandler {
	return &PredictionHandler{
		predictor: predictor,
		logger:    logger,
	}
}

// PredictHandler handles GET /api/predict/{symbol}
func (h *PredictionHandler) PredictHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r.URL.Path, "/api/predict/")
	if code := common.ParseTicker(symbol).Code; !common.IsValidCode(code) {
		WriteError(w, http.StatusBadRequest, "A valid symbol is required")
		return
	}

	result := h.predictor.Predict(r.Context(), symbol)
	if result.Failed() {
		WriteJSON(w, http.StatusNotFound, result)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// PicksHandler handles GET /api/picks
func (h *PredictionHandler) PicksHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, h.predictor.RankWatchlist(r.Context()))
}
