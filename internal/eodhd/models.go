package eodhd

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Number decodes EODHD numeric fields, which arrive as JSON numbers, numeric
// strings, "NA" and null depending on the listing. Anything non-numeric is 0.
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(v)
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

// Float64 returns the value as a float64
func (n Number) Float64() float64 {
	return float64(n)
}

// EODData represents a single day's end-of-day price data.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          Number    `json:"open"`
	High          Number    `json:"high"`
	Low           Number    `json:"low"`
	Close         Number    `json:"close"`
	AdjustedClose Number    `json:"adjusted_close"`
	Volume        Number    `json:"volume"`
}

// EODResponse is a slice of EODData.
type EODResponse []EODData

// Closes returns the close series in response order
func (r EODResponse) Closes() []float64 {
	closes := make([]float64, 0, len(r))
	for _, row := range r {
		if row.Close > 0 {
			closes = append(closes, row.Close.Float64())
		}
	}
	return closes
}

// Quote is one row of the real-time (15 minute delayed) endpoint
type Quote struct {
	Code          string `json:"code"` // "BBCA.JK"
	Timestamp     Number `json:"timestamp"`
	Open          Number `json:"open"`
	High          Number `json:"high"`
	Low           Number `json:"low"`
	Close         Number `json:"close"`
	Volume        Number `json:"volume"`
	PreviousClose Number `json:"previousClose"`
	Change        Number `json:"change"`
	ChangePercent Number `json:"change_p"`
}

// Time returns the quote time, zero when the API sent none
func (q Quote) Time() time.Time {
	if q.Timestamp <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(q.Timestamp), 0)
}

// FundamentalsResponse represents the fundamentals sections the scoring engine reads.
type FundamentalsResponse struct {
	General         *GeneralInfo     `json:"General"`
	Highlights      *Highlights      `json:"Highlights"`
	Valuation       *Valuation       `json:"Valuation"`
	SplitsDividends *SplitsDividends `json:"SplitsDividends"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code         string   `json:"Code"`
	Name         string   `json:"Name"`
	Exchange     string   `json:"Exchange"`
	CurrencyCode string   `json:"CurrencyCode"`
	Sector       string   `json:"Sector"`
	Industry     string   `json:"Industry"`
	Description  string   `json:"Description"`
	WebURL       string   `json:"WebURL"`
	Officers     Officers `json:"Officers"`
}

// Officer is a listed company executive
type Officer struct {
	Name     string `json:"Name"`
	Title    string `json:"Title"`
	YearBorn string `json:"YearBorn"`
}

// Officers decodes the officer list, which EODHD sends as an object keyed
// "0", "1", ... and as an empty array when there are none
type Officers []Officer

// UnmarshalJSON implements json.Unmarshaler
func (o *Officers) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == 'n' {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var list []Officer
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*o = list
		return nil
	}

	var keyed map[string]Officer
	if err := json.Unmarshal(data, &keyed); err != nil {
		return err
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	list := make([]Officer, 0, len(keys))
	for _, k := range keys {
		list = append(list, keyed[k])
	}
	*o = list
	return nil
}

// Highlights contains key financial highlights.
type Highlights struct {
	MarketCapitalization Number `json:"MarketCapitalization"`
	PERatio              Number `json:"PERatio"`
	BookValue            Number `json:"BookValue"`
	DividendShare        Number `json:"DividendShare"`
	DividendYield        Number `json:"DividendYield"` // fraction, 0.035 = 3.5%
	EarningsShare        Number `json:"EarningsShare"`
	ProfitMargin         Number `json:"ProfitMargin"`
	ReturnOnEquityTTM    Number `json:"ReturnOnEquityTTM"` // fraction
	RevenueTTM           Number `json:"RevenueTTM"`
}

// Valuation contains valuation metrics.
type Valuation struct {
	TrailingPE   Number `json:"TrailingPE"`
	ForwardPE    Number `json:"ForwardPE"`
	PriceBookMRQ Number `json:"PriceBookMRQ"`
}

// SplitsDividends contains dividend information.
type SplitsDividends struct {
	ForwardAnnualDividendYield Number `json:"ForwardAnnualDividendYield"`
}
