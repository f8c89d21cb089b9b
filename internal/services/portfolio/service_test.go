package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
)

// MockHoldingStorage is a mock implementation of interfaces.HoldingStorage
type MockHoldingStorage struct {
	mock.Mock
}

func (m *MockHoldingStorage) Save(ctx context.Context, holding *models.Holding) error {
	args := m.Called(ctx, holding)
	return args.Error(0)
}

func (m *MockHoldingStorage) Get(ctx context.Context, id string) (*models.Holding, error) {
	args := m.Called(ctx, id)
	if h, ok := args.Get(0).(*models.Holding); ok {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHoldingStorage) GetBySymbol(ctx context.Context, symbol string) (*models.Holding, error) {
	args := m.Called(ctx, symbol)
	if h, ok := args.Get(0).(*models.Holding); ok {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHoldingStorage) List(ctx context.Context) ([]models.Holding, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Holding), args.Error(1)
}

func (m *MockHoldingStorage) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMarketProvider is a mock implementation of interfaces.MarketDataProvider
type MockMarketProvider struct {
	mock.Mock
}

func (m *MockMarketProvider) Snapshot(ctx context.Context, symbol string) (*interfaces.MarketSnapshot, error) {
	args := m.Called(ctx, symbol)
	if s, ok := args.Get(0).(*interfaces.MarketSnapshot); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func newTestService(storage *MockHoldingStorage, market interfaces.MarketDataProvider) *Service {
	svc := NewService(storage, market, arbor.NewLogger())
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestBuy_NewHolding(t *testing.T) {
	storage := new(MockHoldingStorage)
	storage.On("GetBySymbol", mock.Anything, "BBCA").Return(nil, interfaces.ErrNotFound).Once()
	storage.On("Save", mock.Anything, mock.AnythingOfType("*models.Holding")).Return(nil).Once()

	holding, err := newTestService(storage, nil).Buy(context.Background(), models.Transaction{
		Symbol: "bbca",
		Price:  dec("9000"),
		Lots:   2,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, holding.ID)
	assert.Equal(t, "BBCA", holding.Symbol)
	assert.Equal(t, int64(200), holding.TotalShares)
	assertDecimal(t, "9000", holding.AvgPrice)
	assertDecimal(t, "1800000", holding.TotalInvested)
	assert.False(t, holding.CreatedAt.IsZero())
	storage.AssertExpectations(t)
}

func TestBuy_AveragesExistingHolding(t *testing.T) {
	existing := &models.Holding{
		ID:            "h-1",
		Symbol:        "BBCA",
		AvgPrice:      dec("9000"),
		TotalShares:   200,
		TotalInvested: dec("1800000"),
	}

	storage := new(MockHoldingStorage)
	storage.On("GetBySymbol", mock.Anything, "BBCA").Return(existing, nil).Once()
	storage.On("Save", mock.Anything, existing).Return(nil).Once()

	holding, err := newTestService(storage, nil).Buy(context.Background(), models.Transaction{
		Symbol: "BBCA",
		Price:  dec("9600"),
		Lots:   1,
	})

	require.NoError(t, err)
	assert.Equal(t, "h-1", holding.ID)
	assert.Equal(t, int64(300), holding.TotalShares)
	assertDecimal(t, "2760000", holding.TotalInvested)
	assertDecimal(t, "9200", holding.AvgPrice)
}

func TestBuy_RejectsInvalidTransaction(t *testing.T) {
	tests := []struct {
		name string
		tx   models.Transaction
	}{
		{"empty symbol", models.Transaction{Symbol: " ", Price: dec("100"), Lots: 1}},
		{"symbol too long", models.Transaction{Symbol: "TOOLONGX", Price: dec("100"), Lots: 1}},
		{"zero lots", models.Transaction{Symbol: "BBCA", Price: dec("100"), Lots: 0}},
		{"zero price", models.Transaction{Symbol: "BBCA", Price: decimal.Zero, Lots: 1}},
		{"negative price", models.Transaction{Symbol: "BBCA", Price: dec("-5"), Lots: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := new(MockHoldingStorage)

			_, err := newTestService(storage, nil).Buy(context.Background(), tt.tx)

			assert.ErrorIs(t, err, ErrInvalidTransaction)
			storage.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestBuy_StorageFailure(t *testing.T) {
	storage := new(MockHoldingStorage)
	storage.On("GetBySymbol", mock.Anything, "BBRI").Return(nil, errors.New("disk full")).Once()

	_, err := newTestService(storage, nil).Buy(context.Background(), models.Transaction{Symbol: "BBRI", Price: dec("4000"), Lots: 1})

	assert.ErrorContains(t, err, "disk full")
	assert.NotErrorIs(t, err, ErrInvalidTransaction)
}

func TestDelete(t *testing.T) {
	storage := new(MockHoldingStorage)
	storage.On("GetBySymbol", mock.Anything, "TLKM").Return(&models.Holding{ID: "h-2", Symbol: "TLKM"}, nil).Once()
	storage.On("Delete", mock.Anything, "h-2").Return(nil).Once()
	storage.On("GetBySymbol", mock.Anything, "ASII").Return(nil, interfaces.ErrNotFound).Once()

	svc := newTestService(storage, nil)

	assert.NoError(t, svc.Delete(context.Background(), "tlkm"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "ASII"), interfaces.ErrNotFound)
	storage.AssertExpectations(t)
}

func TestList_ValuesAtLatestClose(t *testing.T) {
	storage := new(MockHoldingStorage)
	storage.On("List", mock.Anything).Return([]models.Holding{
		{ID: "h-3", Symbol: "TLKM", AvgPrice: dec("3000"), TotalShares: 100, TotalInvested: dec("300000")},
		{ID: "h-1", Symbol: "BBCA", AvgPrice: dec("9200"), TotalShares: 300, TotalInvested: dec("2760000")},
	}, nil).Once()

	market := new(MockMarketProvider)
	market.On("Snapshot", mock.Anything, "BBCA").Return(&interfaces.MarketSnapshot{Symbol: "BBCA", Price: 9500}, nil).Once()
	market.On("Snapshot", mock.Anything, "TLKM").Return(nil, errors.New("timeout")).Once()

	valuations, err := newTestService(storage, market).List(context.Background())
	require.NoError(t, err)
	require.Len(t, valuations, 2)

	bbca := valuations[0]
	assert.Equal(t, "BBCA", bbca.Symbol)
	assert.Equal(t, int64(3), bbca.TotalLots)
	assert.False(t, bbca.Stale)
	assertDecimal(t, "9500", bbca.CurrentPrice)
	assertDecimal(t, "2850000", bbca.TotalValue)
	assertDecimal(t, "90000", bbca.GainLossValue)
	assertDecimal(t, "3.26", bbca.GainLossPct)

	tlkm := valuations[1]
	assert.Equal(t, "TLKM", tlkm.Symbol)
	assert.True(t, tlkm.Stale)
	assertDecimal(t, "3000", tlkm.CurrentPrice)
	assertDecimal(t, "300000", tlkm.TotalValue)
	assertDecimal(t, "0", tlkm.GainLossPct)
}

func TestGet_WithoutMarket(t *testing.T) {
	storage := new(MockHoldingStorage)
	storage.On("GetBySymbol", mock.Anything, "ANTM").Return(&models.Holding{
		ID: "h-4", Symbol: "ANTM", AvgPrice: dec("1500"), TotalShares: 500,
	}, nil).Once()

	valuation, err := newTestService(storage, nil).Get(context.Background(), "antm")

	require.NoError(t, err)
	assert.True(t, valuation.Stale)
	assertDecimal(t, "750000", valuation.TotalInvested)
	assert.Equal(t, int64(5), valuation.TotalLots)
}
