// Package portfolio maintains the personal holdings ledger.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
)

// ErrInvalidTransaction wraps validation failures of a buy order
var ErrInvalidTransaction = errors.New("invalid transaction")

var hundred = decimal.NewFromInt(100)

// Service applies buy orders and values the ledger
type Service struct {
	storage  interfaces.HoldingStorage
	market   interfaces.MarketDataProvider
	validate *validator.Validate
	logger   arbor.ILogger
	now      func() time.Time

	// mu serializes read-modify-write of a holding
	mu sync.Mutex
}

// NewService creates a portfolio service. market may be nil, in which case
// holdings are valued at their average price.
func NewService(storage interfaces.HoldingStorage, market interfaces.MarketDataProvider, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		market:   market,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Buy records a purchase. A repeated symbol updates the weighted average price.
func (s *Service) Buy(ctx context.Context, tx models.Transaction) (*models.Holding, error) {
	tx.Symbol = strings.ToUpper(strings.TrimSpace(tx.Symbol))
	if err := s.validate.Struct(tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	if !tx.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidTransaction)
	}

	shares := tx.Lots * models.SharesPerLot
	cost := tx.Price.Mul(decimal.NewFromInt(shares))
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	holding, err := s.storage.GetBySymbol(ctx, tx.Symbol)
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		holding = &models.Holding{
			ID:            uuid.New().String(),
			Symbol:        tx.Symbol,
			AvgPrice:      tx.Price,
			TotalShares:   shares,
			TotalInvested: cost,
			CreatedAt:     now,
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load holding %s: %w", tx.Symbol, err)
	default:
		holding.TotalShares += shares
		holding.TotalInvested = holding.TotalInvested.Add(cost)
		holding.AvgPrice = holding.TotalInvested.Div(decimal.NewFromInt(holding.TotalShares))
	}
	holding.UpdatedAt = now

	if err := s.validate.Struct(holding); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	if err := s.storage.Save(ctx, holding); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("symbol", holding.Symbol).
		Int64("shares", shares).
		Str("avg_price", holding.AvgPrice.StringFixed(2)).
		Msg("Holding updated")

	return holding, nil
}

// Delete removes the holding for symbol (sell all)
func (s *Service) Delete(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	s.mu.Lock()
	defer s.mu.Unlock()

	holding, err := s.storage.GetBySymbol(ctx, symbol)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, holding.ID); err != nil {
		return err
	}

	s.logger.Info().Str("symbol", symbol).Msg("Holding removed")
	return nil
}

// Get values the holding for symbol
func (s *Service) Get(ctx context.Context, symbol string) (*models.HoldingValuation, error) {
	holding, err := s.storage.GetBySymbol(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, err
	}
	valuation := s.value(ctx, *holding)
	return &valuation, nil
}

// List values every holding, ordered by symbol
func (s *Service) List(ctx context.Context) ([]models.HoldingValuation, error) {
	holdings, err := s.storage.List(ctx)
	if err != nil {
		return nil, err
	}

	valuations := make([]models.HoldingValuation, 0, len(holdings))
	for _, h := range holdings {
		valuations = append(valuations, s.value(ctx, h))
	}
	slices.SortFunc(valuations, func(a, b models.HoldingValuation) int {
		return strings.Compare(a.Symbol, b.Symbol)
	})
	return valuations, nil
}

// value marks a holding to the latest close, falling back to the average price
func (s *Service) value(ctx context.Context, h models.Holding) models.HoldingValuation {
	invested := h.TotalInvested
	if invested.IsZero() {
		invested = h.AvgPrice.Mul(decimal.NewFromInt(h.TotalShares))
	}

	v := models.HoldingValuation{
		ID:            h.ID,
		Symbol:        h.Symbol,
		AvgPrice:      h.AvgPrice,
		TotalLots:     h.TotalShares / models.SharesPerLot,
		TotalShares:   h.TotalShares,
		TotalInvested: invested,
		CurrentPrice:  h.AvgPrice,
		TotalValue:    invested,
		GainLossValue: decimal.Zero,
		GainLossPct:   decimal.Zero,
		Stale:         true,
	}

	if s.market == nil {
		return v
	}
	snapshot, err := s.market.Snapshot(ctx, h.Symbol)
	if err != nil || snapshot.Price <= 0 {
		s.logger.Warn().
			Str("symbol", h.Symbol).
			Err(err).
			Msg("Live price unavailable, valuing at average price")
		return v
	}

	price := decimal.NewFromFloat(snapshot.Price)
	v.CurrentPrice = price
	v.TotalValue = price.Mul(decimal.NewFromInt(h.TotalShares))
	v.GainLossValue = v.TotalValue.Sub(invested)
	if invested.IsPositive() {
		v.GainLossPct = v.GainLossValue.Div(invested).Mul(hundred).Round(2)
	}
	v.Stale = false
	return v
}
