package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// HoldingStorage implements the HoldingStorage interface for Badger
type HoldingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHoldingStorage creates a new HoldingStorage instance
func NewHoldingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HoldingStorage {
	return &HoldingStorage{
		db:     db,
		logger: logger,
	}
}

// Save inserts or replaces a holding
func (s *HoldingStorage) Save(ctx context.Context, holding *models.Holding) error {
	if holding.ID == "" {
		return fmt.Errorf("holding ID is required")
	}
	if err := s.db.Store().Upsert(holding.ID, holding); err != nil {
		return fmt.Errorf("failed to save holding: %w", err)
	}
	return nil
}

// Get retrieves a holding by ID
func (s *HoldingStorage) Get(ctx context.Context, id string) (*models.Holding, error) {
	var holding models.Holding
	err := s.db.Store().Get(id, &holding)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &holding, nil
}

// GetBySymbol retrieves the holding for a symbol
func (s *HoldingStorage) GetBySymbol(ctx context.Context, symbol string) (*models.Holding, error) {
	var holdings []models.Holding
	if err := s.db.Store().Find(&holdings, badgerhold.Where("Symbol").Eq(symbol).Index("Symbol").Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to find holding: %w", err)
	}
	if len(holdings) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &holdings[0], nil
}

// List returns all holdings ordered by symbol
func (s *HoldingStorage) List(ctx context.Context) ([]models.Holding, error) {
	holdings := []models.Holding{}
	if err := s.db.Store().Find(&holdings, badgerhold.Where("ID").Ne("").SortBy("Symbol")); err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}

// Delete removes a holding by ID
func (s *HoldingStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.Holding{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}
