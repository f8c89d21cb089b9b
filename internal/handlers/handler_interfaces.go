package handlers

import (
	"context"

	"github.com/ternarybob/pasar/internal/models"
)

// NewsReader serves stored articles for a tag
type NewsReader interface {
	GetNews(ctx context.Context, tag string) []models.Article
}

// Predictor scores single symbols and ranks the sampled watchlist
type Predictor interface {
	Predict(ctx context.Context, symbol string) models.PredictionResult
	RankWatchlist(ctx context.Context) models.WatchlistRanking
}

// RecapGenerator builds the daily market recap
type RecapGenerator interface {
	DailyRecap(ctx context.Context) (models.RecapSummary, error)
}

// PortfolioManager maintains the holdings ledger
type PortfolioManager interface {
	List(ctx context.Context) ([]models.HoldingValuation, error)
	Get(ctx context.Context, symbol string) (*models.HoldingValuation, error)
	Buy(ctx context.Context, tx models.Transaction) (*models.Holding, error)
	Delete(ctx context.Context, symbol string) error
}

// ArticleCounter reports the size of the article store
type ArticleCounter interface {
	Count(ctx context.Context) (int, error)
}

// ModelStatus reports whether the sentiment model tier is serving
type ModelStatus interface {
	ModelAvailable() bool
}

// StockMarket serves quoted market views
type StockMarket interface {
	MarketSummary(ctx context.Context) (*models.MarketSummary, error)
	Index(ctx context.Context) (*models.IndexSeries, error)
	Search(ctx context.Context, query string) ([]models.StockQuote, error)
	Detail(ctx context.Context, symbol string) (*models.StockDetail, error)
}
