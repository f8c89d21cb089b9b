package interfaces

import (
	"context"

	"github.com/ternarybob/pasar/internal/models"
)

// FeedReader fetches raw items from the news search feed.
// Network failures yield an empty slice, never an error.
type FeedReader interface {
	Fetch(ctx context.Context, query string, limit int) []models.FeedItem
}

// SentimentClassifier assigns a label and signed score to text. It never fails.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) models.SentimentResult
}

// NewsService is the read/acquire surface over stored articles
type NewsService interface {
	// Acquire runs fetch -> normalize -> classify -> store for one query
	Acquire(ctx context.Context, query string, tag string, limit int) (int, error)

	// GetNews serves stored articles for tag, backfilling live on a cache miss
	GetNews(ctx context.Context, tag string) []models.Article

	// Live fetches and classifies articles without persisting them
	Live(ctx context.Context, query string, limit int) []models.Article
}
