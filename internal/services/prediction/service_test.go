package prediction

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/eodhd"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
	"github.com/ternarybob/pasar/internal/services/market"
)

// MockMarketProvider is a mock implementation of interfaces.MarketDataProvider
type MockMarketProvider struct {
	mock.Mock
}

func (m *MockMarketProvider) Snapshot(ctx context.Context, symbol string) (*interfaces.MarketSnapshot, error) {
	args := m.Called(ctx, symbol)
	if snapshot, ok := args.Get(0).(*interfaces.MarketSnapshot); ok {
		return snapshot, args.Error(1)
	}
	return nil, args.Error(1)
}

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

// series returns n closes starting at from and moving by step each session
func series(from, step float64, n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = from + step*float64(i)
	}
	return closes
}

func snapshotOf(symbol string, closes []float64) *interfaces.MarketSnapshot {
	return &interfaces.MarketSnapshot{
		Symbol: symbol,
		Price:  closes[len(closes)-1],
		Closes: closes,
	}
}

func testConfig() common.PredictionConfig {
	return common.PredictionConfig{
		SentimentLimit:  5,
		Concurrency:     4,
		LargeSample:     10,
		SmallSample:     5,
		TopN:            6,
		HiddenGemMaxCap: 10_000_000_000_000,
		Timeout:         5 * time.Second,
	}
}

func newTestService(provider interfaces.MarketDataProvider, news interfaces.NewsService, opts ...Option) *Service {
	return NewService(provider, news, testConfig(), "saham", arbor.NewLogger(), opts...)
}

func TestPredict_StrongBuyBoundary(t *testing.T) {
	// technical 2 + fundamental 2 + sentiment 1
	snapshot := snapshotOf("BBCA", series(1000, 10, 20))
	snapshot.PERatio = 10
	snapshot.PriceToBook = 1.0
	snapshot.MarketCap = 1_200_000_000_000_000

	market := new(MockMarketProvider)
	market.On("Snapshot", mock.Anything, "BBCA").Return(snapshot, nil).Once()
	news := new(MockNewsService)
	news.On("Live", mock.Anything, "BBCA saham", 5).
		Return(articlesWith(models.SentimentPositive, models.SentimentPositive, models.SentimentNeutral)).Once()

	result := newTestService(market, news).Predict(context.Background(), "bbca")

	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, "BBCA", result.Symbol)
	assert.Equal(t, 1190.0, result.Price)
	assert.Equal(t, 5, result.TotalScore)
	assert.Equal(t, models.RecommendationStrongBuy, result.Prediction)
	assert.Equal(t, 85, result.Confidence)
	assert.Equal(t, "85%", result.ConfidenceText)
	assert.Equal(t, int64(1317), result.TargetPrice)
	assert.Equal(t, snapshot.MarketCap, result.MarketCap)

	require.NotNil(t, result.Signals)
	assert.Equal(t, "BULLISH", result.Signals.Technical.Signal)
	assert.Equal(t, "GOOD", result.Signals.Fundamental.Signal)
	assert.Equal(t, "BULLISH", result.Signals.Sentiment.Signal)
	assert.Equal(t, 1170.0, result.Signals.MA5)
	assert.Equal(t, 1095.0, result.Signals.MA20)

	market.AssertExpectations(t)
	news.AssertExpectations(t)
}

func TestPredict_StrongSellBoundary(t *testing.T) {
	// technical 0 + fundamental 0 + sentiment -1
	market := new(MockMarketProvider)
	market.On("Snapshot", mock.Anything, "GOTO").Return(snapshotOf("GOTO", series(1190, -10, 20)), nil).Once()
	news := new(MockNewsService)
	news.On("Live", mock.Anything, "GOTO saham", 5).
		Return(articlesWith(models.SentimentNegative, models.SentimentNegative, models.SentimentPositive)).Once()

	result := newTestService(market, news).Predict(context.Background(), "GOTO")

	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, -1, result.TotalScore)
	assert.Equal(t, models.RecommendationStrongSell, result.Prediction)
	assert.Equal(t, 43, result.Confidence)
	assert.Equal(t, int64(950), result.TargetPrice)
	assert.Equal(t, "BEARISH", result.Signals.Technical.Signal)
	assert.Equal(t, "NEUTRAL", result.Signals.Fundamental.Signal)
	assert.Equal(t, []string{"Berita Negatif Dominan (2 vs 1)"}, result.Signals.Sentiment.Reasons)
}

func TestPredict_NoPriceHistory(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"no rows", fmt.Errorf("price history for XXXX.JK: %w", eodhd.ErrNoData)},
		{"unknown symbol", fmt.Errorf("failed to fetch price history: %w", &eodhd.APIError{StatusCode: 404, Message: "Ticker Not Found"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			market := new(MockMarketProvider)
			market.On("Snapshot", mock.Anything, "XXXX").Return(nil, tt.err).Once()
			news := new(MockNewsService)

			result := newTestService(market, news).Predict(context.Background(), "xxxx")

			assert.True(t, result.Failed())
			assert.Equal(t, "no price history available for XXXX", result.Error)
			assert.Nil(t, result.Signals)
			news.AssertNotCalled(t, "Live", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPredict_ProviderFailure(t *testing.T) {
	market := new(MockMarketProvider)
	market.On("Snapshot", mock.Anything, "BBRI").Return(nil, errors.New("connection refused")).Once()

	result := newTestService(market, new(MockNewsService)).Predict(context.Background(), "BBRI")

	assert.True(t, result.Failed())
	assert.Equal(t, "connection refused", result.Error)
}

func TestPredict_EmptySymbol(t *testing.T) {
	result := newTestService(new(MockMarketProvider), new(MockNewsService)).Predict(context.Background(), "  ")
	assert.Equal(t, "symbol is required", result.Error)
}

func TestPredict_ExchangeQualifiedSymbol(t *testing.T) {
	market := new(MockMarketProvider)
	market.On("Snapshot", mock.Anything, "TLKM").Return(snapshotOf("TLKM", series(3000, 0, 20)), nil).Once()
	news := new(MockNewsService)
	news.On("Live", mock.Anything, "TLKM saham", 5).Return([]models.Article{}).Once()

	result := newTestService(market, news).Predict(context.Background(), "IDX:TLKM")

	assert.Equal(t, "TLKM", result.Symbol)
	assert.Equal(t, models.RecommendationSell, result.Prediction)
	assert.Equal(t, int64(3060), result.TargetPrice)
}

// rankingFixture registers one snapshot per outcome with neutral news
func rankingFixture(market *MockMarketProvider, news *MockNewsService) {
	strong := func(symbol string, marketCap float64) *interfaces.MarketSnapshot {
		s := snapshotOf(symbol, series(1000, 10, 20))
		s.PERatio, s.PriceToBook, s.ReturnOnEquity = 10, 1.0, 0.2
		s.MarketCap = marketCap
		return s
	}
	buy := snapshotOf("ASII", series(1000, 10, 20))
	buy.PERatio, buy.PriceToBook = 10, 1.0
	strongSell := snapshotOf("GOTO", series(1190, -10, 20))
	strongSell.PERatio = 40

	market.On("Snapshot", mock.Anything, "BBCA").Return(strong("BBCA", 1_200_000_000_000_000), nil)
	market.On("Snapshot", mock.Anything, "CLEO").Return(strong("CLEO", 5_000_000_000_000), nil)
	market.On("Snapshot", mock.Anything, "ASII").Return(buy, nil)
	market.On("Snapshot", mock.Anything, "GOTO").Return(strongSell, nil)
	market.On("Snapshot", mock.Anything, "BUKA").Return(snapshotOf("BUKA", series(1190, -10, 20)), nil)
	market.On("Snapshot", mock.Anything, "TLKM").Return(snapshotOf("TLKM", series(1000, 10, 20)), nil)
	market.On("Snapshot", mock.Anything, "FAIL").Return(nil, errors.New("upstream timeout"))

	news.On("Live", mock.Anything, mock.Anything, 5).Return([]models.Article{})
}

func TestRankSymbols_PartitionsAndOrders(t *testing.T) {
	market := new(MockMarketProvider)
	news := new(MockNewsService)
	rankingFixture(market, news)

	ranking := newTestService(market, news).RankSymbols(context.Background(),
		[]string{"TLKM", "ASII", "GOTO", "FAIL", "CLEO", "BUKA", "BBCA"})

	assert.Equal(t, 6, ranking.Evaluated)
	assert.Equal(t, 1, ranking.Failed)

	symbols := func(results []models.PredictionResult) []string {
		out := make([]string, len(results))
		for i, r := range results {
			out[i] = r.Symbol
		}
		return out
	}

	assert.Equal(t, []string{"BBCA", "CLEO", "ASII"}, symbols(ranking.Buys))
	assert.Equal(t, []string{"GOTO", "BUKA"}, symbols(ranking.Sells))
	assert.Equal(t, []string{"CLEO"}, symbols(ranking.HiddenGems))
}

func TestRankSymbols_ExcludesFailedSlots(t *testing.T) {
	market := new(MockMarketProvider)
	news := new(MockNewsService)
	news.On("Live", mock.Anything, mock.Anything, 5).Return([]models.Article{})

	symbols := make([]string, 20)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("S%03d", i)
		if i%7 == 3 {
			market.On("Snapshot", mock.Anything, symbols[i]).Return(nil, errors.New("boom"))
			continue
		}
		market.On("Snapshot", mock.Anything, symbols[i]).Return(snapshotOf(symbols[i], series(1000, 10, 20)), nil)
	}

	ranking := newTestService(market, news).RankSymbols(context.Background(), symbols)

	assert.Equal(t, 17, ranking.Evaluated)
	assert.Equal(t, 3, ranking.Failed)
	market.AssertNumberOfCalls(t, "Snapshot", 20)
}

func TestRankSymbols_KeepsTopN(t *testing.T) {
	market := new(MockMarketProvider)
	news := new(MockNewsService)
	news.On("Live", mock.Anything, mock.Anything, 5).Return([]models.Article{})

	var symbols []string
	for i := range 10 {
		symbol := fmt.Sprintf("B%03d", i)
		s := snapshotOf(symbol, series(1000, 10, 20))
		s.PERatio, s.PriceToBook = 10, 1.0
		market.On("Snapshot", mock.Anything, symbol).Return(s, nil)
		symbols = append(symbols, symbol)
	}

	ranking := newTestService(market, news).RankSymbols(context.Background(), symbols)

	assert.Equal(t, 10, ranking.Evaluated)
	require.Len(t, ranking.Buys, 6)
	assert.Equal(t, "B000", ranking.Buys[0].Symbol)
	assert.Equal(t, "B005", ranking.Buys[5].Symbol)
	assert.Empty(t, ranking.Sells)
	assert.NotNil(t, ranking.HiddenGems)
}

// slowProvider records how many snapshots are in flight at once
type slowProvider struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (p *slowProvider) Snapshot(ctx context.Context, symbol string) (*interfaces.MarketSnapshot, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return nil, eodhd.ErrNoData
}

func TestRankSymbols_RunsConcurrentlyWithinLimit(t *testing.T) {
	provider := &slowProvider{}
	svc := newTestService(provider, new(MockNewsService))

	symbols := make([]string, 12)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("C%03d", i)
	}

	ranking := svc.RankSymbols(context.Background(), symbols)

	assert.Equal(t, 12, ranking.Failed)
	assert.Greater(t, provider.peak.Load(), int32(1))
	assert.LessOrEqual(t, provider.peak.Load(), int32(testConfig().Concurrency))
}

func TestRankWatchlist_SamplesBothUniverses(t *testing.T) {
	provider := new(MockMarketProvider)
	provider.On("Snapshot", mock.Anything, mock.Anything).Return(nil, eodhd.ErrNoData)

	svc := newTestService(provider, new(MockNewsService), WithRand(rand.New(rand.NewPCG(1, 2))))
	ranking := svc.RankWatchlist(context.Background())

	assert.Equal(t, 15, ranking.Failed)

	seen := map[string]bool{}
	var large, small int
	for _, call := range provider.Calls {
		symbol := call.Arguments.String(1)
		assert.False(t, seen[symbol], "sampled twice: %s", symbol)
		seen[symbol] = true

		switch {
		case slices.Contains(market.PopularSymbols, symbol):
			large++
		case slices.Contains(market.SmallCapSymbols, symbol):
			small++
		default:
			t.Errorf("symbol %s outside the universe", symbol)
		}
	}
	assert.Equal(t, 10, large)
	assert.Equal(t, 5, small)
}

func TestSample_SeededIsDeterministic(t *testing.T) {
	a := newTestService(nil, nil, WithRand(rand.New(rand.NewPCG(7, 7))))
	b := newTestService(nil, nil, WithRand(rand.New(rand.NewPCG(7, 7))))

	assert.Equal(t, a.sample(market.PopularSymbols, 10), b.sample(market.PopularSymbols, 10))
	assert.Len(t, a.sample(market.SmallCapSymbols, 50), len(market.SmallCapSymbols))
	assert.Empty(t, a.sample(market.SmallCapSymbols, 0))
}
