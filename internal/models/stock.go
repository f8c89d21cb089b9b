package models

import "time"

// PriceDirection labels a day's move
type PriceDirection string

const (
	DirectionUp      PriceDirection = "up"
	DirectionDown    PriceDirection = "down"
	DirectionNeutral PriceDirection = "neutral"
)

// DirectionOf labels a change value
func DirectionOf(change float64) PriceDirection {
	switch {
	case change > 0:
		return DirectionUp
	case change < 0:
		return DirectionDown
	}
	return DirectionNeutral
}

// StockQuote is one row of the market summary
type StockQuote struct {
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name"`
	Price         float64        `json:"price"`
	Change        float64        `json:"change"`
	ChangePercent float64        `json:"change_pct"`
	Status        PriceDirection `json:"status"`
	Volume        int64          `json:"volume"`
	MarketCap     float64        `json:"market_cap"`
	Sector        string         `json:"sector"`
}

// MarketSummary is the quoted universe sorted by change_pct, best first
type MarketSummary struct {
	Stocks    []StockQuote `json:"stocks"`
	Gainers   []StockQuote `json:"gainers"`
	Losers    []StockQuote `json:"losers"` // worst first
	UpdatedAt time.Time    `json:"updated_at"`
}

// IndexPoint is one daily close of an index
type IndexPoint struct {
	Date  string  `json:"date"` // 2006-01-02
	Value float64 `json:"value"`
}

// IndexSeries is an index level with its recent daily history, oldest first
type IndexSeries struct {
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name"`
	Price         float64        `json:"price"`
	Change        float64        `json:"change"`
	ChangePercent float64        `json:"change_pct"`
	Status        PriceDirection `json:"status"`
	History       []IndexPoint   `json:"history"`
}

// Candle is one daily OHLCV bar. Time is a unix timestamp in seconds.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Officer is a company executive
type Officer struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Fundamentals is the company profile and key ratios on the detail page.
// ROE and dividend yield are fractions (0.19 = 19%); zero means unknown.
type Fundamentals struct {
	MarketCap      float64   `json:"market_cap"`
	PERatio        float64   `json:"pe_ratio"`
	PriceToBook    float64   `json:"pbv_ratio"`
	ReturnOnEquity float64   `json:"roe"`
	DividendYield  float64   `json:"dividend_yield"`
	Revenue        float64   `json:"revenue"`
	NetIncome      float64   `json:"net_income"`
	Sector         string    `json:"sector"`
	Industry       string    `json:"industry"`
	Website        string    `json:"website,omitempty"`
	Description    string    `json:"description"`
	Officers       []Officer `json:"officers"`
}

// StockDetail is the per-symbol page: latest price, a month of candles and
// fundamentals when the provider has them
type StockDetail struct {
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name"`
	Price         float64        `json:"price"`
	Change        float64        `json:"change"`
	ChangePercent float64        `json:"change_pct"`
	Status        PriceDirection `json:"status"`
	History       []Candle       `json:"history"`
	Fundamentals  Fundamentals   `json:"fundamentals"`
}
