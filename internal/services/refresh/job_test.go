package refresh

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/models"
)

// MockNewsService is a mock implementation of interfaces.NewsService
type MockNewsService struct {
	mock.Mock
}

func (m *MockNewsService) Acquire(ctx context.Context, query string, tag string, limit int) (int, error) {
	args := m.Called(ctx, query, tag, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockNewsService) GetNews(ctx context.Context, tag string) []models.Article {
	args := m.Called(ctx, tag)
	return args.Get(0).([]models.Article)
}

func (m *MockNewsService) Live(ctx context.Context, query string, limit int) []models.Article {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]models.Article)
}

func testConfig() common.SchedulerConfig {
	return common.SchedulerConfig{
		GlobalQuery: "saham ekonomi indonesia",
		GlobalLimit: 10,
		Watchlist:   []string{"BBCA", "bbri", "IDX:BMRI", "BBCA.JK"},
		SymbolLimit: 5,
	}
}

func TestRun_AcquiresGlobalAndWatchlist(t *testing.T) {
	news := new(MockNewsService)
	news.On("Acquire", mock.Anything, "saham ekonomi indonesia", models.TagGlobal, 10).Return(4, nil).Once()
	news.On("Acquire", mock.Anything, "BBCA saham", "BBCA", 5).Return(2, nil).Once()
	news.On("Acquire", mock.Anything, "BBRI saham", "BBRI", 5).Return(0, nil).Once()
	news.On("Acquire", mock.Anything, "BMRI saham", "BMRI", 5).Return(1, nil).Once()

	job := NewJob(news, testConfig(), "saham", arbor.NewLogger())
	report, err := job.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 4, report.Units)
	assert.Equal(t, 7, report.Inserted)
	assert.Empty(t, report.FailedTags)

	news.AssertExpectations(t)
	news.AssertNumberOfCalls(t, "Acquire", 4)
}

func TestRun_UnitFailureDoesNotStopCycle(t *testing.T) {
	news := new(MockNewsService)
	news.On("Acquire", mock.Anything, "saham ekonomi indonesia", models.TagGlobal, 10).Return(0, errors.New("store closed")).Once()
	news.On("Acquire", mock.Anything, "BBCA saham", "BBCA", 5).Return(2, nil).Once()
	news.On("Acquire", mock.Anything, "BBRI saham", "BBRI", 5).Return(0, errors.New("timeout")).Once()
	news.On("Acquire", mock.Anything, "BMRI saham", "BMRI", 5).Return(1, nil).Once()

	job := NewJob(news, testConfig(), "saham", arbor.NewLogger())
	report, err := job.Run(context.Background())

	assert.Error(t, err)
	assert.Equal(t, []string{models.TagGlobal, "BBRI"}, report.FailedTags)
	assert.Equal(t, 3, report.Inserted)
	assert.Contains(t, err.Error(), "store closed")
	assert.Contains(t, err.Error(), "BBRI: timeout")
	news.AssertNumberOfCalls(t, "Acquire", 4)
}

func TestRun_CancelledContextStops(t *testing.T) {
	news := new(MockNewsService)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := NewJob(news, testConfig(), "saham", arbor.NewLogger())
	_, err := job.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	news.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestName(t *testing.T) {
	job := NewJob(new(MockNewsService), testConfig(), "", arbor.NewLogger())
	assert.Equal(t, JobName, job.Name())
}
