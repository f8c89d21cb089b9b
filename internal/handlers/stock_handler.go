package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/eodhd"
)

// StockHandler serves market summary, index, search and per-symbol detail
type StockHandler struct {
	market StockMarket
	logger arbor.ILogger
}

// NewStockHandler creates a stock handler
func NewStockHandler(market StockMarket, logger arbor.ILogger) *StockHandler {
	return &StockHandler{
		market: market,
		logger: logger,
	}
}

// SummaryHandler handles GET /api/stocks
func (h *StockHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.market.MarketSummary(r.Context())
	if err != nil {
		h.writeUpstreamError(w, err, "", "Market data unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// IndexHandler handles GET /api/stocks/ihsg
func (h *StockHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	series, err := h.market.Index(r.Context())
	if err != nil {
		h.writeUpstreamError(w, err, "IHSG", "Index data unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, series)
}

// SearchHandler handles GET /api/stocks/search?q=CODE
func (h *StockHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		WriteError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	results, err := h.market.Search(r.Context(), query)
	if err != nil {
		h.writeUpstreamError(w, err, query, "Search unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, results)
}

// DetailHandler handles GET /api/stocks/{symbol}
func (h *StockHandler) DetailHandler(w http.ResponseWriter, r *http.Request) {
	symbol := PathParam(r.URL.Path, "/api/stocks/")
	if code := common.ParseTicker(symbol).Code; !common.IsValidCode(code) {
		WriteError(w, http.StatusBadRequest, "A valid symbol is required")
		return
	}

	detail, err := h.market.Detail(r.Context(), symbol)
	if err != nil {
		h.writeUpstreamError(w, err, symbol, "Market data unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

// writeUpstreamError maps provider failures: unknown symbols are 404, rate
// limits 503, anything else 502
func (h *StockHandler) writeUpstreamError(w http.ResponseWriter, err error, symbol, message string) {
	var apiErr *eodhd.APIError
	var rlErr *eodhd.RateLimitError
	switch {
	case errors.Is(err, eodhd.ErrNoData), errors.As(err, &apiErr) && apiErr.NotFound():
		notFound := "No market data"
		if symbol != "" {
			notFound += " for " + symbol
		}
		WriteError(w, http.StatusNotFound, notFound)
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(rlErr.RetryAfter.Seconds())))
		}
		WriteError(w, http.StatusServiceUnavailable, message)
	default:
		h.logger.Warn().Err(err).Str("symbol", symbol).Msg(message)
		WriteError(w, http.StatusBadGateway, message)
	}
}
