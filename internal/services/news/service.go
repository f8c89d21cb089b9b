// Package news acquires, normalizes and serves classified news articles.
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
)

// Service implements interfaces.NewsService
type Service struct {
	storage    interfaces.ArticleStorage
	reader     interfaces.FeedReader
	classifier interfaces.SentimentClassifier
	config     common.NewsConfig
	logger     arbor.ILogger
	now        func() time.Time
}

var _ interfaces.NewsService = (*Service)(nil)

// NewService creates a news service
func NewService(
	storage interfaces.ArticleStorage,
	reader interfaces.FeedReader,
	classifier interfaces.SentimentClassifier,
	config common.NewsConfig,
	logger arbor.ILogger,
) *Service {
	if config.QueryLimit <= 0 {
		config.QueryLimit = 100
	}
	if config.LiveLimit <= 0 {
		config.LiveLimit = 30
	}
	if config.QueryKeyword == "" {
		config.QueryKeyword = "saham"
	}
	return &Service{
		storage:    storage,
		reader:     reader,
		classifier: classifier,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// NormalizeTag maps any casing of "global" (or empty) to TagGlobal.
// Other tags keep their case: title containment in the store is case-sensitive.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.EqualFold(tag, models.TagGlobal) {
		return models.TagGlobal
	}
	return tag
}

// SymbolQuery is the live search query used for a symbol
func (s *Service) SymbolQuery(symbol string) string {
	return fmt.Sprintf("%s %s", strings.TrimSpace(symbol), s.config.QueryKeyword)
}

// Acquire fetches query from the feed, classifies every item and stores the
// new ones under tag. It returns the number of newly stored articles.
func (s *Service) Acquire(ctx context.Context, query string, tag string, limit int) (int, error) {
	tag = NormalizeTag(tag)

	articles := s.Live(ctx, query, limit)
	if len(articles) == 0 {
		s.logger.Debug().
			Str("query", query).
			Str("tag", tag).
			Msg("No feed items to store")
		return 0, nil
	}

	inserted, err := s.storage.UpsertMany(ctx, articles, tag)
	if err != nil {
		return inserted, fmt.Errorf("failed to store articles for %s: %w", tag, err)
	}

	s.logger.Info().
		Str("query", query).
		Str("tag", tag).
		Int("fetched", len(articles)).
		Int("inserted", inserted).
		Msg("News acquired")

	return inserted, nil
}

// Live fetches and classifies up to limit articles without storing them
func (s *Service) Live(ctx context.Context, query string, limit int) []models.Article {
	items := s.reader.Fetch(ctx, query, limit)
	now := s.now()

	articles := make([]models.Article, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		article := Normalize(item, now)
		if article.Link == "" || seen[article.Link] {
			continue
		}
		seen[article.Link] = true

		result := s.classifier.Classify(ctx, ClassifierInput(article))
		article.SentimentLabel = result.Label
		article.SentimentScore = result.Score
		articles = append(articles, article)
	}
	return articles
}

// GetNews returns stored articles for tag, newest first. A symbol tag with
// fewer than MinCached rows triggers a synchronous live backfill followed by
// a re-query. Failures on the backfill path are logged and the first result
// is returned.
func (s *Service) GetNews(ctx context.Context, tag string) []models.Article {
	tag = NormalizeTag(tag)

	rows, err := s.storage.Query(ctx, tag, s.config.QueryLimit)
	if err != nil {
		s.logger.Warn().Err(err).Str("tag", tag).Msg("Failed to query stored news")
		rows = []models.Article{}
	}

	if models.IsGlobal(tag) || len(rows) >= s.config.MinCached {
		return rows
	}

	s.logger.Info().
		Str("tag", tag).
		Int("cached", len(rows)).
		Int("min_cached", s.config.MinCached).
		Msg("News cache miss, fetching live")

	if _, err := s.Acquire(ctx, s.SymbolQuery(tag), tag, s.config.LiveLimit); err != nil {
		s.logger.Warn().Err(err).Str("tag", tag).Msg("Live backfill failed")
		return rows
	}

	refreshed, err := s.storage.Query(ctx, tag, s.config.QueryLimit)
	if err != nil {
		s.logger.Warn().Err(err).Str("tag", tag).Msg("Failed to re-query news after backfill")
		return rows
	}
	return refreshed
}
