// Package storagetest holds behaviour tests shared by every storage backend.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
)

// Factory opens a fresh, empty storage manager for one test
type Factory func(t *testing.T) interfaces.StorageManager

var baseTime = time.Date(2026, 10, 13, 8, 0, 0, 0, time.UTC)

func article(link, title string, offset time.Duration) models.Article {
	return models.Article{
		Link:           link,
		Title:          title,
		Description:    "deskripsi " + title,
		Source:         "Kompas",
		PublishedAt:    baseTime.Add(offset),
		SentimentLabel: models.SentimentPositive,
		SentimentScore: 0.95,
		CreatedAt:      baseTime,
	}
}

// RunArticleStorageTests exercises the ArticleStorage contract
func RunArticleStorageTests(t *testing.T, open Factory) {
	t.Run("UpsertIsIdempotent", func(t *testing.T) {
		store := open(t).ArticleStorage()
		ctx := context.Background()

		batch := []models.Article{
			article("https://example.com/1", "BBCA laba naik", 0),
			article("https://example.com/2", "BBRI dividen", time.Hour),
		}

		n, err := store.UpsertMany(ctx, batch, "BBCA")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = store.UpsertMany(ctx, batch, "BBCA")
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("FirstWriteWins", func(t *testing.T) {
		store := open(t).ArticleStorage()
		ctx := context.Background()

		original := article("https://example.com/x", "Judul asli", 0)
		_, err := store.UpsertMany(ctx, []models.Article{original}, "BBCA")
		require.NoError(t, err)

		changed := original
		changed.Title = "Judul baru"
		n, err := store.UpsertMany(ctx, []models.Article{changed}, models.TagGlobal)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		got, err := store.Get(ctx, original.Link)
		require.NoError(t, err)
		assert.Equal(t, "Judul asli", got.Title)
		assert.Equal(t, "BBCA", got.RelatedTag)
		assert.Equal(t, models.SentimentPositive, got.SentimentLabel)
		assert.InDelta(t, 0.95, got.SentimentScore, 1e-9)
		assert.True(t, original.PublishedAt.Equal(got.PublishedAt))
	})

	t.Run("DuplicateLinksWithinBatch", func(t *testing.T) {
		store := open(t).ArticleStorage()
		ctx := context.Background()

		batch := []models.Article{
			article("https://example.com/d", "Pertama", 0),
			article("https://example.com/d", "Kedua", time.Minute),
		}
		n, err := store.UpsertMany(ctx, batch, "TLKM")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := store.Get(ctx, "https://example.com/d")
		require.NoError(t, err)
		assert.Equal(t, "Pertama", got.Title)
	})

	t.Run("QueryByTagAndTitle", func(t *testing.T) {
		store := open(t).ArticleStorage()
		ctx := context.Background()

		_, err := store.UpsertMany(ctx, []models.Article{
			article("https://example.com/g1", "IHSG menguat, BBCA memimpin", 3*time.Hour),
			article("https://example.com/g2", "Rupiah stabil", 2*time.Hour),
		}, models.TagGlobal)
		require.NoError(t, err)

		_, err = store.UpsertMany(ctx, []models.Article{
			article("https://example.com/s1", "Laba bank naik", time.Hour),
		}, "BBCA")
		require.NoError(t, err)

		rows, err := store.Query(ctx, "BBCA", 100)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		// newest first
		assert.Equal(t, "https://example.com/g1", rows[0].Link)
		assert.Equal(t, "https://example.com/s1", rows[1].Link)

		all, err := store.Query(ctx, models.TagGlobal, 100)
		require.NoError(t, err)
		assert.Len(t, all, 3)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].PublishedAt.After(all[i-1].PublishedAt))
		}

		limited, err := store.Query(ctx, models.TagGlobal, 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, "https://example.com/g1", limited[0].Link)

		none, err := store.Query(ctx, "ASII", 100)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("Since", func(t *testing.T) {
		store := open(t).ArticleStorage()
		ctx := context.Background()

		_, err := store.UpsertMany(ctx, []models.Article{
			article("https://example.com/old", "Lama", -48*time.Hour),
			article("https://example.com/new", "Baru", 0),
			article("https://example.com/edge", "Tepat", -24*time.Hour),
		}, models.TagGlobal)
		require.NoError(t, err)

		rows, err := store.Since(ctx, baseTime.Add(-24*time.Hour))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "https://example.com/new", rows[0].Link)
		assert.Equal(t, "https://example.com/edge", rows[1].Link)
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := open(t).ArticleStorage()
		_, err := store.Get(context.Background(), "https://example.com/missing")
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
	})

	t.Run("ConcurrentWritersNoDuplicates", func(t *testing.T) {
		store := open(t).ArticleStorage()
		ctx := context.Background()

		batch := make([]models.Article, 20)
		for i := range batch {
			batch[i] = article(fmt.Sprintf("https://example.com/c/%d", i), fmt.Sprintf("Berita %d", i), time.Duration(i)*time.Minute)
		}

		const writers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		total := 0
		errs := make([]error, writers)

		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				n, err := store.UpsertMany(ctx, batch, models.TagGlobal)
				errs[w] = err
				mu.Lock()
				total += n
				mu.Unlock()
			}(w)
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, len(batch), total)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(batch), count)
	})
}

// RunHoldingStorageTests exercises the HoldingStorage contract
func RunHoldingStorageTests(t *testing.T, open Factory) {
	t.Run("SaveGetListDelete", func(t *testing.T) {
		store := open(t).HoldingStorage()
		ctx := context.Background()

		bbca := &models.Holding{
			ID:            "h-1",
			Symbol:        "BBCA",
			AvgPrice:      decimal.RequireFromString("9250.5"),
			TotalShares:   200,
			TotalInvested: decimal.RequireFromString("1850100"),
			CreatedAt:     baseTime,
			UpdatedAt:     baseTime,
		}
		asii := &models.Holding{
			ID:            "h-2",
			Symbol:        "ASII",
			AvgPrice:      decimal.NewFromInt(5000),
			TotalShares:   100,
			TotalInvested: decimal.NewFromInt(500000),
			CreatedAt:     baseTime,
			UpdatedAt:     baseTime,
		}
		require.NoError(t, store.Save(ctx, bbca))
		require.NoError(t, store.Save(ctx, asii))

		got, err := store.Get(ctx, "h-1")
		require.NoError(t, err)
		assert.Equal(t, "BBCA", got.Symbol)
		assert.True(t, bbca.AvgPrice.Equal(got.AvgPrice))
		assert.Equal(t, int64(200), got.TotalShares)

		bySymbol, err := store.GetBySymbol(ctx, "ASII")
		require.NoError(t, err)
		assert.Equal(t, "h-2", bySymbol.ID)

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "ASII", list[0].Symbol)
		assert.Equal(t, "BBCA", list[1].Symbol)

		bbca.TotalShares = 300
		require.NoError(t, store.Save(ctx, bbca))
		got, err = store.Get(ctx, "h-1")
		require.NoError(t, err)
		assert.Equal(t, int64(300), got.TotalShares)

		require.NoError(t, store.Delete(ctx, "h-1"))
		_, err = store.Get(ctx, "h-1")
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "h-1"), interfaces.ErrNotFound)
	})

	t.Run("GetBySymbolMissing", func(t *testing.T) {
		store := open(t).HoldingStorage()
		_, err := store.GetBySymbol(context.Background(), "UNVR")
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
	})
}
