package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
)

const holdingColumns = `id, symbol, avg_price, total_shares, total_invested, created_at, updated_at`

// HoldingStorage implements the HoldingStorage interface for SQLite
type HoldingStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewHoldingStorage creates a new HoldingStorage instance
func NewHoldingStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.HoldingStorage {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holdings (` + holdingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			symbol = excluded.symbol,
			avg_price = excluded.avg_price,
			total_shares = excluded.total_shares,
			total_invested = excluded.total_invested,
			updated_at = excluded.updated_at
	`
	_, err := s.db.db.ExecContext(ctx, query,
		holding.ID,
		holding.Symbol,
		holding.AvgPrice.String(),
		holding.TotalShares,
		holding.TotalInvested.String(),
		holding.CreatedAt.Unix(),
		holding.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save holding: %w", err)
	}
	return nil
}

// Get retrieves a holding by ID
func (s *HoldingStorage) Get(ctx context.Context, id string) (*models.Holding, error) {
	row := s.db.db.QueryRowContext(ctx, `SELECT `+holdingColumns+` FROM holdings WHERE id = ?`, id)
	return s.scanOne(row)
}

// GetBySymbol retrieves the holding for a symbol
func (s *HoldingStorage) GetBySymbol(ctx context.Context, symbol string) (*models.Holding, error) {
	row := s.db.db.QueryRowContext(ctx, `SELECT `+holdingColumns+` FROM holdings WHERE symbol = ?`, symbol)
	return s.scanOne(row)
}

// List returns all holdings ordered by symbol
func (s *HoldingStorage) List(ctx context.Context) ([]models.Holding, error) {
	rows, err := s.db.db.QueryContext(ctx, `SELECT `+holdingColumns+` FROM holdings ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	holdings := []models.Holding{}
	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, *holding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}
	return holdings, nil
}

// Delete removes a holding by ID
func (s *HoldingStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.db.ExecContext(ctx, `DELETE FROM holdings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (s *HoldingStorage) scanOne(row *sql.Row) (*models.Holding, error) {
	holding, err := scanHolding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return holding, nil
}

func scanHolding(row rowScanner) (*models.Holding, error) {
	var (
		holding       models.Holding
		avgPrice      string
		totalInvested string
		createdAt     int64
		updatedAt     int64
	)

	if err := row.Scan(
		&holding.ID,
		&holding.Symbol,
		&avgPrice,
		&holding.TotalShares,
		&totalInvested,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if holding.AvgPrice, err = decimal.NewFromString(avgPrice); err != nil {
		return nil, fmt.Errorf("invalid avg_price %q: %w", avgPrice, err)
	}
	if holding.TotalInvested, err = decimal.NewFromString(totalInvested); err != nil {
		return nil, fmt.Errorf("invalid total_invested %q: %w", totalInvested, err)
	}
	holding.CreatedAt = time.Unix(createdAt, 0).UTC()
	holding.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &holding, nil
}
