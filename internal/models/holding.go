package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one row of the personal holdings ledger
type Holding struct {
	ID            string          `json:"id" badgerhold:"key"`
	Symbol        string          `json:"symbol" badgerhold:"index" validate:"required,min=1,max=6,uppercase"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	TotalShares   int64           `json:"total_shares" validate:"gte=0"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SharesPerLot is the IDX board lot size
const SharesPerLot = 100

// Transaction is a buy order applied to the ledger. Price is per share.
type Transaction struct {
	Symbol string          `json:"symbol" validate:"required,min=1,max=6,alphanum"`
	Price  decimal.Decimal `json:"price"`
	Lots   int64           `json:"lots" validate:"gt=0"`
}

// HoldingValuation is a holding marked to the latest close
type HoldingValuation struct {
	ID            string          `json:"id"`
	Symbol        string          `json:"symbol"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	TotalLots     int64           `json:"total_lots"`
	TotalShares   int64           `json:"total_shares"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	TotalValue    decimal.Decimal `json:"total_value"`
	GainLossValue decimal.Decimal `json:"gain_loss_value"`
	GainLossPct   decimal.Decimal `json:"gain_loss_pct"`
	Stale         bool            `json:"stale"` // Live price unavailable; valued at average price
}
