package badger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// maxConflictRetries bounds re-runs of a batch that lost an optimistic transaction race
const maxConflictRetries = 10

// ArticleStorage implements the ArticleStorage interface for Badger
type ArticleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewArticleStorage creates a new ArticleStorage instance
func NewArticleStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ArticleStorage {
	return &ArticleStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertMany inserts the batch in one transaction. Existing links are skipped,
// and a batch that conflicts with a concurrent writer is re-run so rows the
// other writer stored are skipped on the next pass.
func (s *ArticleStorage) UpsertMany(ctx context.Context, articles []models.Article, tag string) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	now := time.Now()
	var inserted int

	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		err := s.db.Store().Badger().Update(func(tx *badger.Txn) error {
			inserted = 0
			for i := range articles {
				article := articles[i]
				if article.Link == "" {
					continue
				}
				article.RelatedTag = tag
				if article.CreatedAt.IsZero() {
					article.CreatedAt = now
				}

				err := s.db.Store().TxInsert(tx, article.Link, &article)
				if errors.Is(err, badgerhold.ErrKeyExists) {
					continue
				}
				if err != nil {
					return err
				}
				inserted++
			}
			return nil
		})

		if errors.Is(err, badger.ErrConflict) {
			s.logger.Debug().
				Str("tag", tag).
				Int("attempt", attempt).
				Msg("Article batch conflicted with a concurrent writer, retrying")
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to insert articles: %w", err)
		}
		return inserted, nil
	}

	return 0, fmt.Errorf("failed to insert articles: %w", badger.ErrConflict)
}

// Query returns articles for tag, newest first
func (s *ArticleStorage) Query(ctx context.Context, tag string, limit int) ([]models.Article, error) {
	var query *badgerhold.Query
	if models.IsGlobal(tag) {
		query = badgerhold.Where("Link").Ne("")
	} else {
		titleMatch := regexp.MustCompile(regexp.QuoteMeta(tag))
		query = badgerhold.Where("RelatedTag").Eq(tag).Or(badgerhold.Where("Title").RegExp(titleMatch))
	}
	query = query.SortBy("PublishedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	articles := []models.Article{}
	if err := s.db.Store().Find(&articles, query); err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	return articles, nil
}

// Since returns all articles published at or after t, newest first
func (s *ArticleStorage) Since(ctx context.Context, t time.Time) ([]models.Article, error) {
	articles := []models.Article{}
	query := badgerhold.Where("PublishedAt").Ge(t).SortBy("PublishedAt").Reverse()
	if err := s.db.Store().Find(&articles, query); err != nil {
		return nil, fmt.Errorf("failed to query articles since %s: %w", t.Format(time.RFC3339), err)
	}
	return articles, nil
}

// Get retrieves the article stored under link
func (s *ArticleStorage) Get(ctx context.Context, link string) (*models.Article, error) {
	var article models.Article
	err := s.db.Store().Get(link, &article)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

// Count returns the number of stored articles
func (s *ArticleStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Article{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return int(count), nil
}
