package interfaces

import (
	"context"
)

// MarketSnapshot is the price and fundamentals view consumed by the scoring engine.
// Missing provider fields are reported as zero.
type MarketSnapshot struct {
	Symbol         string    `json:"symbol"`
	Price          float64   `json:"price"`
	Closes         []float64 `json:"closes"` // Oldest first
	PERatio        float64   `json:"pe_ratio"`
	PriceToBook    float64   `json:"price_to_book"`
	ReturnOnEquity float64   `json:"return_on_equity"` // Fraction, 0.15 == 15%
	DividendYield  float64   `json:"dividend_yield"`   // Fraction, 0.03 == 3%
	MarketCap      float64   `json:"market_cap"`
}

// MarketDataProvider returns a snapshot for a bare symbol such as "BBCA"
type MarketDataProvider interface {
	Snapshot(ctx context.Context, symbol string) (*MarketSnapshot, error)
}
