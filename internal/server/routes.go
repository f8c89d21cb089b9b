package server

import (
	"net/http"
)

// setupRoutes registers the API on a method-aware mux. Unmatched paths and
// methods get the JSON error body the handlers use.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// News
	mux.HandleFunc("GET /api/news", s.app.NewsHandler.ListHandler) // ?q=Global|SYMBOL

	// Market data
	mux.HandleFunc("GET /api/stocks", s.app.StockHandler.SummaryHandler)
	mux.HandleFunc("GET /api/stocks/ihsg", s.app.StockHandler.IndexHandler)
	mux.HandleFunc("GET /api/stocks/search", s.app.StockHandler.SearchHandler) // ?q=CODE
	mux.HandleFunc("GET /api/stocks/{symbol}", s.app.StockHandler.DetailHandler)

	// Scoring
	mux.HandleFunc("GET /api/predict/{symbol}", s.app.PredictionHandler.PredictHandler)
	mux.HandleFunc("GET /api/picks", s.app.PredictionHandler.PicksHandler)
	mux.HandleFunc("GET /api/recap", s.app.RecapHandler.DailyHandler)

	// Holdings ledger
	mux.HandleFunc("GET /api/portfolio", s.app.PortfolioHandler.ListHandler)
	mux.HandleFunc("GET /api/portfolio/{$}", s.app.PortfolioHandler.ListHandler)
	mux.HandleFunc("POST /api/portfolio", s.app.PortfolioHandler.BuyHandler)
	mux.HandleFunc("POST /api/portfolio/{$}", s.app.PortfolioHandler.BuyHandler)
	mux.HandleFunc("GET /api/portfolio/{symbol}", s.app.PortfolioHandler.GetHandler)
	mux.HandleFunc("DELETE /api/portfolio/{symbol}", s.app.PortfolioHandler.DeleteHandler)

	// Operations
	mux.HandleFunc("GET /api/scheduler/status", s.app.SchedulerHandler.StatusHandler)
	mux.HandleFunc("POST /api/scheduler/trigger", s.app.SchedulerHandler.TriggerHandler) // ?job=news_refresh
	mux.HandleFunc("GET /api/health", s.app.StatusHandler.HealthHandler)
	mux.HandleFunc("GET /api/version", s.app.StatusHandler.VersionHandler)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern == "" {
			mux.ServeHTTP(&jsonErrorWriter{ResponseWriter: w}, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
}
