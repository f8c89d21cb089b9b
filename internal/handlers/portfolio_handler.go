package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
	"github.com/ternarybob/pasar/internal/services/portfolio"
)

// PortfolioHandler manages the holdings ledger
type PortfolioHandler struct {
	portfolio PortfolioManager
	logger    arbor.ILogger
}

// NewPortfolioHandler creates a portfolio handler
func NewPortfolioHandler(portfolio PortfolioManager, logger arbor.ILogger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolio: portfolio,
		logger:    logger,
	}
}

// ListHandler handles GET /api/portfolio
func (h *PortfolioHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	valuations, err := h.portfolio.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list holdings")
		WriteError(w, http.StatusInternalServerError, "Failed to list holdings")
		return
	}
	WriteJSON(w, http.StatusOK, valuations)
}

// BuyHandler handles POST /api/portfolio
func (h *PortfolioHandler) BuyHandler(w http.ResponseWriter, r *http.Request) {
	var tx models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	holding, err := h.portfolio.Buy(r.Context(), tx)
	if errors.Is(err, portfolio.ErrInvalidTransaction) {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", tx.Symbol).Msg("Failed to record transaction")
		WriteError(w, http.StatusInternalServerError, "Failed to record transaction")
		return
	}
	WriteJSON(w, http.StatusOK, holding)
}

// GetHandler handles GET /api/portfolio/{symbol}
func (h *PortfolioHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	symbol := PathParam(r.URL.Path, "/api/portfolio/")
	valuation, err := h.portfolio.Get(r.Context(), symbol)
	if errors.Is(err, interfaces.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Asset not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to get holding")
		WriteError(w, http.StatusInternalServerError, "Failed to get holding")
		return
	}
	WriteJSON(w, http.StatusOK, valuation)
}

// DeleteHandler handles DELETE /api/portfolio/{symbol}
func (h *PortfolioHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	symbol := PathParam(r.URL.Path, "/api/portfolio/")
	err := h.portfolio.Delete(r.Context(), symbol)
	if errors.Is(err, interfaces.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Asset not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to delete holding")
		WriteError(w, http.StatusInternalServerError, "Failed to delete holding")
		return
	}
	WriteSuccess(w, fmt.Sprintf("%s removed from portfolio", symbol))
}
