package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/pasar/internal/models"
)

// ErrNotFound is returned when a record does not exist in storage
var ErrNotFound = errors.New("not found")

// ArticleStorage persists classified articles keyed by canonical link.
// Writes are first-write-wins: an existing link is never overwritten.
type ArticleStorage interface {
	// UpsertMany inserts articles whose link is not yet stored, tagging each with tag.
	// Returns the number of newly inserted rows.
	UpsertMany(ctx context.Context, articles []models.Article, tag string) (int, error)

	// Query returns articles newest PublishedAt first. The Global tag returns the
	// unfiltered set; any other tag matches RelatedTag == tag or a title containing tag.
	Query(ctx context.Context, tag string, limit int) ([]models.Article, error)

	// Since returns all articles published at or after t, newest first
	Since(ctx context.Context, t time.Time) ([]models.Article, error)

	// Get returns the article stored under link
	Get(ctx context.Context, link string) (*models.Article, error)

	// Count returns the number of stored articles
	Count(ctx context.Context) (int, error)
}

// HoldingStorage persists the holdings ledger
type HoldingStorage interface {
	Save(ctx context.Context, holding *models.Holding) error
	Get(ctx context.Context, id string) (*models.Holding, error)
	GetBySymbol(ctx context.Context, symbol string) (*models.Holding, error)
	List(ctx context.Context) ([]models.Holding, error)
	Delete(ctx context.Context, id string) error
}

// StorageManager is the composite storage interface
type StorageManager interface {
	ArticleStorage() ArticleStorage
	HoldingStorage() HoldingStorage
	Close() error
}
