// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "IDX:BBCA")
type Ticker struct {
	// Exchange is the exchange code (e.g., "IDX")
	Exchange string
	// Code is the listed security code (e.g., "BBCA")
	Code string
	// Raw is the original ticker string
	Raw string
}

// ExchangeToSuffix maps exchange codes to EODHD API suffixes.
var ExchangeToSuffix = map[string]string{
	"IDX":  ".JK",
	"ASX":  ".AU",
	"NYSE": ".US",
	"INDX": ".INDX",
}

// suffixToExchange is the reverse lookup used when parsing provider symbols like "BBCA.JK".
var suffixToExchange = map[string]string{
	"JK":   "IDX",
	"AU":   "ASX",
	"US":   "NYSE",
	"INDX": "INDX",
}

// DefaultExchange is used when a ticker carries no exchange qualifier.
var DefaultExchange = "IDX"

// SetDefaultExchange sets the default exchange for parsing tickers.
func SetDefaultExchange(exchange string) {
	if exchange != "" {
		DefaultExchange = strings.ToUpper(exchange)
	}
}

// ParseTicker parses a ticker string.
// Supports formats:
//   - "IDX:BBCA" -> Exchange="IDX", Code="BBCA"
//   - "BBCA.JK"  -> Exchange="IDX", Code="BBCA" (provider suffix)
//   - "bbca"     -> Exchange=DefaultExchange, Code="BBCA"
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(strings.TrimSpace(ticker[idx+1:])),
			Raw:      ticker,
		}
	}

	if idx := strings.LastIndex(ticker, "."); idx > 0 {
		if exchange, ok := suffixToExchange[strings.ToUpper(ticker[idx+1:])]; ok {
			return Ticker{
				Exchange: exchange,
				Code:     strings.ToUpper(ticker[:idx]),
				Raw:      ticker,
			}
		}
	}

	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// EODHDSymbol returns the EODHD API symbol format.
// Example: "IDX:BBCA" -> "BBCA.JK"
func (t Ticker) EODHDSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		suffix = ExchangeToSuffix[DefaultExchange]
	}
	return t.Code + suffix
}

// IsValidCode reports whether code looks like a listed security code:
// 1 to 6 characters drawn from A-Z and 0-9.
func IsValidCode(code string) bool {
	if len(code) == 0 || len(code) > 6 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
