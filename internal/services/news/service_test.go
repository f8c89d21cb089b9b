package news

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/models"
)

// MockArticleStorage is a mock implementation of interfaces.ArticleStorage
type MockArticleStorage struct {
	mock.Mock
}

func (m *MockArticleStorage) UpsertMany(ctx context.Context, articles []models.Article, tag string) (int, error) {
	args := m.Called(ctx, articles, tag)
	return args.Int(0), args.Error(1)
}

func (m *MockArticleStorage) Query(ctx context.Context, tag string, limit int) ([]models.Article, error) {
	args := m.Called(ctx, tag, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Article), args.Error(1)
}

func (m *MockArticleStorage) Since(ctx context.Context, t time.Time) ([]models.Article, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Article), args.Error(1)
}

func (m *MockArticleStorage) Get(ctx context.Context, link string) (*models.Article, error) {
	args := m.Called(ctx, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Article), args.Error(1)
}

func (m *MockArticleStorage) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockFeedReader is a mock implementation of interfaces.FeedReader
type MockFeedReader struct {
	mock.Mock
}

func (m *MockFeedReader) Fetch(ctx context.Context, query string, limit int) []models.FeedItem {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]models.FeedItem)
}

// MockClassifier is a mock implementation of interfaces.SentimentClassifier
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, text string) models.SentimentResult {
	args := m.Called(ctx, text)
	return args.Get(0).(models.SentimentResult)
}

func testConfig() common.NewsConfig {
	return common.NewsConfig{
		QueryLimit:   100,
		MinCached:    5,
		LiveLimit:    30,
		QueryKeyword: "saham",
	}
}

func storedArticles(n int, tag string) []models.Article {
	articles := make([]models.Article, n)
	for i := range articles {
		articles[i] = models.Article{
			Link:       fmt.Sprintf("https://example.com/%s/%d", tag, i),
			Title:      fmt.Sprintf("%s berita %d", tag, i),
			RelatedTag: tag,
		}
	}
	return articles
}

func feedItems(n int) []models.FeedItem {
	items := make([]models.FeedItem, n)
	for i := range items {
		items[i] = models.FeedItem{
			Title: fmt.Sprintf("Berita %d - Kompas", i),
			Link:  fmt.Sprintf("https://example.com/live/%d", i),
		}
	}
	return items
}

func newTestService(storage *MockArticleStorage, reader *MockFeedReader, classifier *MockClassifier) *Service {
	return NewService(storage, reader, classifier, testConfig(), arbor.NewLogger())
}

func TestGetNews_CacheMissTrigger(t *testing.T) {
	tests := []struct {
		name        string
		tag         string
		cached      int
		expectFetch bool
	}{
		{"symbol below threshold", "BBCA", 4, true},
		{"symbol with no rows", "BBCA", 0, true},
		{"symbol at threshold", "BBCA", 5, false},
		{"symbol above threshold", "BBCA", 12, false},
		{"global never backfills", models.TagGlobal, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := new(MockArticleStorage)
			reader := new(MockFeedReader)
			classifier := new(MockClassifier)

			cached := storedArticles(tt.cached, tt.tag)
			storage.On("Query", mock.Anything, tt.tag, 100).Return(cached, nil).Once()

			if tt.expectFetch {
				reader.On("Fetch", mock.Anything, tt.tag+" saham", 30).Return(feedItems(3))
				classifier.On("Classify", mock.Anything, mock.Anything).
					Return(models.NewSentimentResult(models.SentimentPositive, 0.95, models.TierLexicon))
				storage.On("UpsertMany", mock.Anything, mock.Anything, tt.tag).Return(3, nil)
				storage.On("Query", mock.Anything, tt.tag, 100).Return(storedArticles(tt.cached+3, tt.tag), nil).Once()
			}

			svc := newTestService(storage, reader, classifier)
			rows := svc.GetNews(context.Background(), tt.tag)

			if tt.expectFetch {
				assert.Len(t, rows, tt.cached+3)
				reader.AssertExpectations(t)
			} else {
				assert.Len(t, rows, tt.cached)
				reader.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
			}
			storage.AssertExpectations(t)
		})
	}
}

func TestGetNews_BackfillFailureReturnsFirstResult(t *testing.T) {
	storage := new(MockArticleStorage)
	reader := new(MockFeedReader)
	classifier := new(MockClassifier)

	cached := storedArticles(2, "TLKM")
	storage.On("Query", mock.Anything, "TLKM", 100).Return(cached, nil).Once()
	reader.On("Fetch", mock.Anything, "TLKM saham", 30).Return(feedItems(2))
	classifier.On("Classify", mock.Anything, mock.Anything).Return(models.NeutralResult(models.TierPolarity))
	storage.On("UpsertMany", mock.Anything, mock.Anything, "TLKM").Return(0, errors.New("disk full"))

	svc := newTestService(storage, reader, classifier)
	rows := svc.GetNews(context.Background(), "tlkm")

	assert.Equal(t, cached, rows)
	storage.AssertNumberOfCalls(t, "Query", 1)
}

func TestGetNews_QueryErrorNeverFails(t *testing.T) {
	storage := new(MockArticleStorage)
	svc := newTestService(storage, new(MockFeedReader), new(MockClassifier))

	storage.On("Query", mock.Anything, models.TagGlobal, 100).Return(nil, errors.New("closed"))

	rows := svc.GetNews(context.Background(), "global")
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestAcquire_ClassifiesAndTags(t *testing.T) {
	storage := new(MockArticleStorage)
	reader := new(MockFeedReader)
	classifier := new(MockClassifier)

	items := []models.FeedItem{
		{Title: "Bank ABC Untung Besar - Kompas", Link: "https://example.com/a", Description: "<p>laba naik</p>"},
		{Title: "Duplikat - Kompas", Link: "https://example.com/a"},
		{Title: "Tanpa tautan - Kompas", Link: ""},
	}
	reader.On("Fetch", mock.Anything, "BBCA saham", 5).Return(items)
	classifier.On("Classify", mock.Anything, "Bank ABC Untung Besar. laba naik").
		Return(models.NewSentimentResult(models.SentimentPositive, 0.95, models.TierLexicon))

	var stored []models.Article
	storage.On("UpsertMany", mock.Anything, mock.Anything, "BBCA").
		Run(func(args mock.Arguments) {
			stored = args.Get(1).([]models.Article)
		}).
		Return(1, nil)

	svc := newTestService(storage, reader, classifier)
	inserted, err := svc.Acquire(context.Background(), "BBCA saham", "bbca", 5)

	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	require.Len(t, stored, 1)
	assert.Equal(t, "Kompas", stored[0].Source)
	assert.Equal(t, models.SentimentPositive, stored[0].SentimentLabel)
	assert.InDelta(t, 0.95, stored[0].SentimentScore, 1e-9)
	classifier.AssertNumberOfCalls(t, "Classify", 1)
}

func TestAcquire_EmptyFeedSkipsStore(t *testing.T) {
	storage := new(MockArticleStorage)
	reader := new(MockFeedReader)
	reader.On("Fetch", mock.Anything, "saham ekonomi indonesia", 10).Return([]models.FeedItem{})

	svc := newTestService(storage, reader, new(MockClassifier))
	inserted, err := svc.Acquire(context.Background(), "saham ekonomi indonesia", models.TagGlobal, 10)

	require.NoError(t, err)
	assert.Zero(t, inserted)
	storage.AssertNotCalled(t, "UpsertMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, models.TagGlobal, NormalizeTag(""))
	assert.Equal(t, models.TagGlobal, NormalizeTag("GLOBAL"))
	assert.Equal(t, models.TagGlobal, NormalizeTag("global"))
	assert.Equal(t, "bbri", NormalizeTag(" bbri "))
	assert.Equal(t, "Bbri", NormalizeTag("Bbri"))
}

func TestGetNews_KeepsTagCase(t *testing.T) {
	storage := new(MockArticleStorage)
	reader := new(MockFeedReader)

	storage.On("Query", mock.Anything, "Bbri", 100).Return(storedArticles(6, "Bbri"), nil).Once()

	svc := newTestService(storage, reader, new(MockClassifier))
	rows := svc.GetNews(context.Background(), " Bbri ")

	assert.Len(t, rows, 6)
	storage.AssertExpectations(t)
	storage.AssertNotCalled(t, "Query", mock.Anything, "BBRI", mock.Anything)
}
