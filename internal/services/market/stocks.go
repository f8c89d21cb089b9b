package market

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/eodhd"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
)

const (
	// IndexSymbol is the Jakarta Composite Index on EODHD
	IndexSymbol = "JKSE.INDX"
	indexName   = "Indeks Harga Saham Gabungan"

	// moversCount is how many rows the gainers and losers lists keep
	moversCount = 5

	unknownLabel       = "Unknown"
	missingDescription = "No description available."
)

// MarketSummary quotes the popular universe. Rows are sorted by change
// percent, best first; symbols the API cannot quote are left out.
func (p *Provider) MarketSummary(ctx context.Context) (*models.MarketSummary, error) {
	symbols := make([]string, 0, len(PopularSymbols))
	for _, code := range PopularSymbols {
		symbols = append(symbols, common.ParseTicker(code).EODHDSymbol())
	}

	quotes, err := p.client.GetQuotes(ctx, symbols...)
	if err != nil {
		return nil, fmt.Errorf("failed to quote market summary: %w", err)
	}

	rows := make([]models.StockQuote, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, p.stockQuote(q))
	}
	slices.SortStableFunc(rows, func(a, b models.StockQuote) int {
		return cmp.Compare(b.ChangePercent, a.ChangePercent)
	})

	summary := &models.MarketSummary{
		Stocks:    rows,
		Gainers:   []models.StockQuote{},
		Losers:    []models.StockQuote{},
		UpdatedAt: p.now(),
	}
	for _, row := range rows {
		if row.Change > 0 && len(summary.Gainers) < moversCount {
			summary.Gainers = append(summary.Gainers, row)
		}
	}
	for i := len(rows) - 1; i >= 0 && len(summary.Losers) < moversCount; i-- {
		if rows[i].Change < 0 {
			summary.Losers = append(summary.Losers, rows[i])
		}
	}
	return summary, nil
}

// Index returns the composite index level and three months of closes. The
// level comes from the real-time quote, falling back to the last two closes.
func (p *Provider) Index(ctx context.Context) (*models.IndexSeries, error) {
	to := p.now()
	history, err := p.client.GetEOD(ctx, IndexSymbol, to.AddDate(0, -3, 0), to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index history: %w", err)
	}

	series := &models.IndexSeries{
		Symbol:  "IHSG",
		Name:    indexName,
		History: make([]models.IndexPoint, 0, len(history)),
	}
	for _, row := range history {
		if row.Close > 0 {
			series.History = append(series.History, models.IndexPoint{Date: row.DateStr, Value: row.Close.Float64()})
		}
	}
	if len(series.History) == 0 {
		return nil, fmt.Errorf("index history: %w", eodhd.ErrNoData)
	}

	if quotes, err := p.client.GetQuotes(ctx, IndexSymbol); err == nil && len(quotes) > 0 {
		q := quotes[0]
		series.Price = q.Close.Float64()
		series.Change = q.Change.Float64()
		series.ChangePercent = q.ChangePercent.Float64()
	} else {
		p.logger.Debug().Err(err).Msg("Index quote unavailable, using last close")
		series.Price, series.Change, series.ChangePercent = lastMove(history.Closes())
	}
	series.Status = models.DirectionOf(series.Change)
	return series, nil
}

// Search quotes a single code. Unknown or malformed codes give an empty
// result, not an error.
func (p *Provider) Search(ctx context.Context, query string) ([]models.StockQuote, error) {
	ticker := common.ParseTicker(query)
	if !common.IsValidCode(ticker.Code) {
		return []models.StockQuote{}, nil
	}

	quotes, err := p.client.GetQuotes(ctx, ticker.EODHDSymbol())
	if isUnknownSymbol(err) {
		return []models.StockQuote{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", ticker.Code, err)
	}

	results := make([]models.StockQuote, 0, len(quotes))
	for _, q := range quotes {
		results = append(results, p.stockQuote(q))
	}
	return results, nil
}

// Detail returns a month of daily candles for symbol plus fundamentals.
// History is required; fundamentals are best effort.
func (p *Provider) Detail(ctx context.Context, symbol string) (*models.StockDetail, error) {
	ticker := common.ParseTicker(symbol)
	if ticker.Code == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	providerSymbol := ticker.EODHDSymbol()

	to := p.now()
	history, err := p.client.GetEOD(ctx, providerSymbol, to.AddDate(0, -1, 0), to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history for %s: %w", providerSymbol, err)
	}

	detail := &models.StockDetail{
		Symbol:  ticker.Code,
		Name:    ticker.Code,
		History: make([]models.Candle, 0, len(history)),
		Fundamentals: models.Fundamentals{
			Sector:      unknownLabel,
			Industry:    unknownLabel,
			Description: missingDescription,
			Officers:    []models.Officer{},
		},
	}
	for _, row := range history {
		if row.Close <= 0 || row.Date.IsZero() {
			continue
		}
		detail.History = append(detail.History, models.Candle{
			Time:   row.Date.Unix(),
			Open:   row.Open.Float64(),
			High:   row.High.Float64(),
			Low:    row.Low.Float64(),
			Close:  row.Close.Float64(),
			Volume: int64(row.Volume),
		})
	}
	if len(detail.History) == 0 {
		return nil, fmt.Errorf("price history for %s: %w", providerSymbol, eodhd.ErrNoData)
	}
	detail.Price, detail.Change, detail.ChangePercent = lastMove(history.Closes())
	detail.Status = models.DirectionOf(detail.Change)

	fundamentals, err := p.client.GetFundamentals(ctx, providerSymbol)
	if err != nil {
		p.logger.Warn().
			Str("symbol", providerSymbol).
			Err(err).
			Msg("Fundamentals unavailable, serving price history only")
		return detail, nil
	}
	p.remember(ticker.Code, fundamentals)
	applyProfile(detail, fundamentals)
	return detail, nil
}

func applyProfile(detail *models.StockDetail, f *eodhd.FundamentalsResponse) {
	// Reuse the snapshot mapping so ratio fallbacks stay in one place
	var ratios interfaces.MarketSnapshot
	applyFundamentals(&ratios, f)

	fd := &detail.Fundamentals
	fd.MarketCap = ratios.MarketCap
	fd.PERatio = ratios.PERatio
	fd.PriceToBook = ratios.PriceToBook
	fd.ReturnOnEquity = ratios.ReturnOnEquity
	fd.DividendYield = ratios.DividendYield

	if h := f.Highlights; h != nil {
		fd.Revenue = h.RevenueTTM.Float64()
		fd.NetIncome = h.RevenueTTM.Float64() * h.ProfitMargin.Float64()
	}

	g := f.General
	if g == nil {
		return
	}
	if g.Name != "" {
		detail.Name = g.Name
	}
	if g.Sector != "" {
		fd.Sector = g.Sector
	}
	if g.Industry != "" {
		fd.Industry = g.Industry
	}
	if g.Description != "" {
		fd.Description = g.Description
	}
	fd.Website = g.WebURL
	for _, o := range g.Officers {
		fd.Officers = append(fd.Officers, models.Officer{Name: o.Name, Title: o.Title})
	}
}

// stockQuote converts a provider quote into a summary row
func (p *Provider) stockQuote(q eodhd.Quote) models.StockQuote {
	code := common.ParseTicker(q.Code).Code
	prof := p.cachedProfile(code)
	return models.StockQuote{
		Symbol:        code,
		Name:          prof.name,
		Price:         q.Close.Float64(),
		Change:        q.Change.Float64(),
		ChangePercent: q.ChangePercent.Float64(),
		Status:        models.DirectionOf(q.Change.Float64()),
		Volume:        int64(q.Volume),
		MarketCap:     prof.marketCap,
		Sector:        prof.sector,
	}
}

// lastMove returns the latest close with its change against the previous one
func lastMove(closes []float64) (price, change, changePct float64) {
	if len(closes) == 0 {
		return 0, 0, 0
	}
	price = closes[len(closes)-1]
	if len(closes) < 2 || closes[len(closes)-2] == 0 {
		return price, 0, 0
	}
	prev := closes[len(closes)-2]
	change = price - prev
	return price, change, change / prev * 100
}

func isUnknownSymbol(err error) bool {
	var apiErr *eodhd.APIError
	return errors.Is(err, eodhd.ErrNoData) || (errors.As(err, &apiErr) && apiErr.NotFound())
}
