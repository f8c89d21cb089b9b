// Package prediction scores symbols on technical, fundamental and news
// sentiment pillars and ranks a sampled watchlist.
package prediction

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/eodhd"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
	"github.com/ternarybob/pasar/internal/services/market"
	"golang.org/x/sync/errgroup"
)

// Service is the multi-factor scoring engine
type Service struct {
	market  interfaces.MarketDataProvider
	news    interfaces.NewsService
	config  common.PredictionConfig
	keyword string
	logger  arbor.ILogger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures the Service
type Option func(*Service)

// WithRand sets the random source used to sample the watchlist
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// NewService creates a scoring engine. keyword qualifies the live news query ("BBCA saham").
func NewService(
	provider interfaces.MarketDataProvider,
	news interfaces.NewsService,
	config common.PredictionConfig,
	keyword string,
	logger arbor.ILogger,
	opts ...Option,
) *Service {
	if config.SentimentLimit <= 0 {
		config.SentimentLimit = 5
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}
	if config.TopN <= 0 {
		config.TopN = 6
	}
	if config.HiddenGemMaxCap <= 0 {
		config.HiddenGemMaxCap = 10_000_000_000_000
	}
	if keyword == "" {
		keyword = "saham"
	}

	s := &Service{
		market:  provider,
		news:    news,
		config:  config,
		keyword: keyword,
		logger:  logger,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict scores one symbol. Failures are reported in the result's Error field.
func (s *Service) Predict(ctx context.Context, symbol string) models.PredictionResult {
	code := common.ParseTicker(symbol).Code
	result := models.PredictionResult{Symbol: code}
	if code == "" {
		result.Error = "symbol is required"
		return result
	}

	snapshot, err := s.market.Snapshot(ctx, code)
	if err != nil {
		result.Error = snapshotError(code, err)
		s.logger.Warn().
			Str("symbol", code).
			Err(err).
			Msg("Prediction skipped, market data unavailable")
		return result
	}
	if len(snapshot.Closes) == 0 {
		result.Error = fmt.Sprintf("no price history available for %s", code)
		return result
	}

	price := snapshot.Price
	ma5 := movingAverage(snapshot.Closes, shortWindow)
	ma20 := movingAverage(snapshot.Closes, longWindow)

	articles := s.news.Live(ctx, fmt.Sprintf("%s %s", code, s.keyword), s.config.SentimentLimit)

	technical := technicalPillar(price, ma5, ma20)
	fundamental := fundamentalPillar(snapshot)
	sentiment := sentimentPillar(articles)

	total := technical.Score + fundamental.Score + sentiment.Score
	rec := recommend(total)
	conf := confidence(total)

	result.Price = price
	result.Prediction = rec
	result.TotalScore = total
	result.Confidence = conf
	result.ConfidenceText = fmt.Sprintf("%d%%", conf)
	result.TargetPrice = targetPrice(price, rec, total)
	result.MarketCap = snapshot.MarketCap
	result.Signals = &models.PredictionSignals{
		Technical:   technical,
		Fundamental: fundamental,
		Sentiment:   sentiment,
		MA5:         math.Round(ma5),
		MA20:        math.Round(ma20),
	}

	s.logger.Debug().
		Str("symbol", code).
		Str("prediction", string(rec)).
		Int("total_score", total).
		Int("articles", len(articles)).
		Msg("Prediction computed")

	return result
}

func snapshotError(code string, err error) string {
	var apiErr *eodhd.APIError
	if errors.Is(err, eodhd.ErrNoData) || (errors.As(err, &apiErr) && apiErr.NotFound()) {
		return fmt.Sprintf("no price history available for %s", code)
	}
	return err.Error()
}

// RankWatchlist samples the large and small cap universes and ranks the result
func (s *Service) RankWatchlist(ctx context.Context) models.WatchlistRanking {
	symbols := append(
		s.sample(market.PopularSymbols, s.config.LargeSample),
		s.sample(market.SmallCapSymbols, s.config.SmallSample)...,
	)
	return s.RankSymbols(ctx, symbols)
}

// sample returns n distinct symbols from universe in random order
func (s *Service) sample(universe []string, n int) []string {
	picked := slices.Clone(universe)

	s.rngMu.Lock()
	s.rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	s.rngMu.Unlock()

	if n < len(picked) {
		picked = picked[:max(n, 0)]
	}
	return picked
}

// RankSymbols predicts every symbol concurrently and partitions the
// successful results. A failing symbol never cancels the others.
func (s *Service) RankSymbols(ctx context.Context, symbols []string) models.WatchlistRanking {
	start := time.Now()
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	results := make([]models.PredictionResult, len(symbols))

	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)
	for i, symbol := range symbols {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[i] = models.PredictionResult{Symbol: symbol, Error: fmt.Sprintf("panic: %v", r)}
				}
			}()
			results[i] = s.Predict(ctx, symbol)
			return nil
		})
	}
	_ = g.Wait()

	ranking := models.WatchlistRanking{
		Buys:       []models.PredictionResult{},
		Sells:      []models.PredictionResult{},
		HiddenGems: []models.PredictionResult{},
	}

	for _, r := range results {
		if r.Failed() {
			ranking.Failed++
			s.logger.Debug().
				Str("symbol", r.Symbol).
				Str("error", r.Error).
				Msg("Symbol excluded from ranking")
			continue
		}
		ranking.Evaluated++

		switch {
		case r.Prediction.IsBuy():
			ranking.Buys = append(ranking.Buys, r)
			if r.MarketCap > 0 && r.MarketCap < s.config.HiddenGemMaxCap {
				ranking.HiddenGems = append(ranking.HiddenGems, r)
			}
		case r.Prediction.IsSell():
			ranking.Sells = append(ranking.Sells, r)
		}
	}

	slices.SortFunc(ranking.Buys, compareBuys)
	slices.SortFunc(ranking.HiddenGems, compareBuys)
	slices.SortFunc(ranking.Sells, compareSells)

	ranking.Buys = head(ranking.Buys, s.config.TopN)
	ranking.HiddenGems = head(ranking.HiddenGems, s.config.TopN)
	ranking.Sells = head(ranking.Sells, s.config.TopN)

	s.logger.Info().
		Int("symbols", len(symbols)).
		Int("evaluated", ranking.Evaluated).
		Int("failed", ranking.Failed).
		Int("buys", len(ranking.Buys)).
		Int("sells", len(ranking.Sells)).
		Int("hidden_gems", len(ranking.HiddenGems)).
		Dur("duration", time.Since(start)).
		Msg("Watchlist ranked")

	return ranking
}

// compareBuys orders strongest recommendation first, then confidence, then symbol
func compareBuys(a, b models.PredictionResult) int {
	return cmp.Or(
		cmp.Compare(b.Prediction.Rank(), a.Prediction.Rank()),
		cmp.Compare(b.Confidence, a.Confidence),
		cmp.Compare(a.Symbol, b.Symbol),
	)
}

// compareSells orders STRONG SELL first, then confidence, then symbol
func compareSells(a, b models.PredictionResult) int {
	return cmp.Or(
		cmp.Compare(a.Prediction.Rank(), b.Prediction.Rank()),
		cmp.Compare(b.Confidence, a.Confidence),
		cmp.Compare(a.Symbol, b.Symbol),
	)
}

func head(results []models.PredictionResult, n int) []models.PredictionResult {
	if len(results) > n {
		return results[:n]
	}
	return results
}
