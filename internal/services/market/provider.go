// Package market adapts the EODHD client to the scoring engine's snapshot
// view and the stock pages served by the API.
package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/eodhd"
	"github.com/ternarybob/pasar/internal/interfaces"
)

// DefaultHistoryDays covers at least 20 trading sessions
const DefaultHistoryDays = 45

// profileTTL bounds how long a company name and market cap are reused
const profileTTL = 24 * time.Hour

// Client is the subset of the EODHD client the provider needs
type Client interface {
	GetEOD(ctx context.Context, symbol string, from, to time.Time) (eodhd.EODResponse, error)
	GetQuotes(ctx context.Context, symbols ...string) ([]eodhd.Quote, error)
	GetFundamentals(ctx context.Context, symbol string) (*eodhd.FundamentalsResponse, error)
}

// Provider implements interfaces.MarketDataProvider
type Provider struct {
	client      Client
	historyDays int
	logger      arbor.ILogger
	now         func() time.Time

	mu       sync.RWMutex
	profiles map[string]profile
}

// profile is the slice of fundamentals the market summary shows per row
type profile struct {
	name      string
	sector    string
	marketCap float64
	fetchedAt time.Time
}

var _ interfaces.MarketDataProvider = (*Provider)(nil)

// NewProvider creates a market data provider
func NewProvider(client Client, historyDays int, logger arbor.ILogger) *Provider {
	if historyDays <= 0 {
		historyDays = DefaultHistoryDays
	}
	return &Provider{
		client:      client,
		historyDays: historyDays,
		logger:      logger,
		now:         time.Now,
		profiles:    make(map[string]profile),
	}
}

// Snapshot fetches price history and fundamentals for symbol. Price history is
// required; fundamentals are best effort and missing values are zero.
func (p *Provider) Snapshot(ctx context.Context, symbol string) (*interfaces.MarketSnapshot, error) {
	ticker := common.ParseTicker(symbol)
	if ticker.Code == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	providerSymbol := ticker.EODHDSymbol()

	to := p.now()
	from := to.AddDate(0, 0, -p.historyDays)
	history, err := p.client.GetEOD(ctx, providerSymbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history for %s: %w", providerSymbol, err)
	}

	closes := history.Closes()
	if len(closes) == 0 {
		return nil, fmt.Errorf("price history for %s: %w", providerSymbol, eodhd.ErrNoData)
	}

	snapshot := &interfaces.MarketSnapshot{
		Symbol: ticker.Code,
		Price:  closes[len(closes)-1],
		Closes: closes,
	}

	fundamentals, err := p.client.GetFundamentals(ctx, providerSymbol)
	if err != nil {
		p.logger.Warn().
			Str("symbol", providerSymbol).
			Err(err).
			Msg("Fundamentals unavailable, scoring on price only")
		return snapshot, nil
	}
	applyFundamentals(snapshot, fundamentals)
	p.remember(ticker.Code, fundamentals)

	return snapshot, nil
}

// remember caches the summary profile from a fundamentals answer
func (p *Provider) remember(code string, f *eodhd.FundamentalsResponse) {
	if f == nil {
		return
	}
	entry := profile{name: code, sector: SectorOf(code), fetchedAt: p.now()}
	if g := f.General; g != nil {
		if g.Name != "" {
			entry.name = g.Name
		}
		if g.Sector != "" {
			entry.sector = NormalizeSector(g.Sector)
		}
	}
	if h := f.Highlights; h != nil {
		entry.marketCap = h.MarketCapitalization.Float64()
	}

	p.mu.Lock()
	p.profiles[code] = entry
	p.mu.Unlock()
}

// cachedProfile returns a fresh cached profile or one built from the
// curated sector map
func (p *Provider) cachedProfile(code string) profile {
	p.mu.RLock()
	entry, ok := p.profiles[code]
	p.mu.RUnlock()
	if ok && p.now().Sub(entry.fetchedAt) < profileTTL {
		return entry
	}
	return profile{name: code, sector: SectorOf(code)}
}

func applyFundamentals(snapshot *interfaces.MarketSnapshot, f *eodhd.FundamentalsResponse) {
	if f == nil {
		return
	}

	if h := f.Highlights; h != nil {
		snapshot.PERatio = h.PERatio.Float64()
		snapshot.ReturnOnEquity = h.ReturnOnEquityTTM.Float64()
		snapshot.DividendYield = h.DividendYield.Float64()
		snapshot.MarketCap = h.MarketCapitalization.Float64()
	}

	if v := f.Valuation; v != nil {
		snapshot.PriceToBook = v.PriceBookMRQ.Float64()
		if snapshot.PERatio == 0 {
			snapshot.PERatio = v.TrailingPE.Float64()
		}
	}

	if sd := f.SplitsDividends; sd != nil && snapshot.DividendYield == 0 {
		snapshot.DividendYield = sd.ForwardAnnualDividendYield.Float64()
	}
}
