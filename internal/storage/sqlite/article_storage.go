package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
)

const articleColumns = `link, title, description, source, published_at, sentiment_label, sentiment_score, related_tag, created_at`

// ArticleStorage implements the ArticleStorage interface for SQLite
type ArticleStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewArticleStorage creates a new ArticleStorage instance
func NewArticleStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.ArticleStorage {
	return &ArticleStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertMany inserts the batch in one transaction; existing links are left untouched
func (s *ArticleStorage) UpsertMany(ctx context.Context, articles []models.Article, tag string) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (`+articleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(link) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	inserted := 0
	for _, article := range articles {
		if article.Link == "" {
			continue
		}
		createdAt := article.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		result, err := stmt.ExecContext(ctx,
			article.Link,
			article.Title,
			article.Description,
			article.Source,
			article.PublishedAt.Unix(),
			string(article.SentimentLabel),
			article.SentimentScore,
			tag,
			createdAt.Unix(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert article: %w", err)
		}
		if rows, err := result.RowsAffected(); err == nil {
			inserted += int(rows)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit articles: %w", err)
	}
	return inserted, nil
}

// Query returns articles for tag, newest first
func (s *ArticleStorage) Query(ctx context.Context, tag string, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	var rows *sql.Rows
	var err error
	if models.IsGlobal(tag) {
		rows, err = s.db.db.QueryContext(ctx,
			`SELECT `+articleColumns+` FROM articles ORDER BY published_at DESC, id DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.db.QueryContext(ctx,
			`SELECT `+articleColumns+` FROM articles
			WHERE related_tag = ? OR instr(title, ?) > 0
			ORDER BY published_at DESC, id DESC LIMIT ?`, tag, tag, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// Since returns all articles published at or after t, newest first
func (s *ArticleStorage) Since(ctx context.Context, t time.Time) ([]models.Article, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE published_at >= ? ORDER BY published_at DESC, id DESC`,
		t.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query articles since %s: %w", t.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// Get retrieves the article stored under link
func (s *ArticleStorage) Get(ctx context.Context, link string) (*models.Article, error) {
	row := s.db.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE link = ?`, link)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

// Count returns the number of stored articles
func (s *ArticleStorage) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var (
		article     models.Article
		description sql.NullString
		source      sql.NullString
		label       string
		publishedAt int64
		createdAt   int64
	)

	err := row.Scan(
		&article.Link,
		&article.Title,
		&description,
		&source,
		&publishedAt,
		&label,
		&article.SentimentScore,
		&article.RelatedTag,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	article.Description = description.String
	article.Source = source.String
	article.PublishedAt = time.Unix(publishedAt, 0).UTC()
	article.CreatedAt = time.Unix(createdAt, 0).UTC()

	sentiment, err := models.ParseSentiment(label)
	if err != nil {
		return nil, fmt.Errorf("article %s: %w", article.Link, err)
	}
	article.SentimentLabel = sentiment

	return &article, nil
}

func scanArticles(rows *sql.Rows) ([]models.Article, error) {
	articles := []models.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}
	return articles, nil
}
