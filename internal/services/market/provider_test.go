package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/eodhd"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := eodhd.NewClient(common.MarketConfig{BaseURL: server.URL, APIKey: "key", RateLimit: 100}, arbor.NewLogger())
	provider := NewProvider(client, 45, arbor.NewLogger())
	provider.now = func() time.Time { return time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC) }
	return provider
}

func TestSnapshot(t *testing.T) {
	var eodFrom string
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/eod/BBCA.JK":
			eodFrom = r.URL.Query().Get("from")
			_, _ = w.Write([]byte(`[{"date":"2026-10-12","close":9000},{"date":"2026-10-13","close":9100}]`))
		case "/fundamentals/BBCA.JK":
			_, _ = w.Write([]byte(`{
				"Highlights": {"MarketCapitalization": 1.1e15, "PERatio": 0, "DividendYield": 0, "ReturnOnEquityTTM": 0.21},
				"Valuation": {"PriceBookMRQ": 4.5, "TrailingPE": 24.3},
				"SplitsDividends": {"ForwardAnnualDividendYield": 0.028}
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	snapshot, err := provider.Snapshot(context.Background(), "bbca")
	require.NoError(t, err)

	assert.Equal(t, "2026-08-30", eodFrom)
	assert.Equal(t, "BBCA", snapshot.Symbol)
	assert.Equal(t, 9100.0, snapshot.Price)
	assert.Equal(t, []float64{9000, 9100}, snapshot.Closes)
	assert.InDelta(t, 24.3, snapshot.PERatio, 1e-9)
	assert.InDelta(t, 4.5, snapshot.PriceToBook, 1e-9)
	assert.InDelta(t, 0.21, snapshot.ReturnOnEquity, 1e-9)
	assert.InDelta(t, 0.028, snapshot.DividendYield, 1e-9)
	assert.InDelta(t, 1.1e15, snapshot.MarketCap, 1)
}

func TestSnapshot_FundamentalsFailureIsNotFatal(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/eod/TLKM.JK" {
			_, _ = w.Write([]byte(`[{"date":"2026-10-13","close":3100}]`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	})

	snapshot, err := provider.Snapshot(context.Background(), "TLKM")
	require.NoError(t, err)
	assert.Equal(t, 3100.0, snapshot.Price)
	assert.Zero(t, snapshot.PERatio)
	assert.Zero(t, snapshot.MarketCap)
}

func TestSnapshot_NoHistory(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty array", `[]`},
		{"no usable closes", `[{"date":"2026-10-13","close":null}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := provider.Snapshot(context.Background(), "ZZZZ")
			assert.True(t, errors.Is(err, eodhd.ErrNoData))
		})
	}
}

func TestSnapshot_EmptySymbol(t *testing.T) {
	provider := NewProvider(eodhd.NewClient(common.MarketConfig{APIKey: "key"}, arbor.NewLogger()), 0, arbor.NewLogger())
	_, err := provider.Snapshot(context.Background(), "  ")
	assert.Error(t, err)
	assert.Equal(t, DefaultHistoryDays, provider.historyDays)
}

func TestSnapshot_CachesProfileForSummary(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/eod/BBRI.JK":
			_, _ = w.Write([]byte(`[{"date":"2026-10-13","close":4200}]`))
		case "/fundamentals/BBRI.JK":
			_, _ = w.Write([]byte(`{"General":{"Name":"Bank Rakyat Indonesia","Sector":"Financial Services"},"Highlights":{"MarketCapitalization":6.5e14}}`))
		}
	})

	_, err := provider.Snapshot(context.Background(), "BBRI")
	require.NoError(t, err)

	prof := provider.cachedProfile("BBRI")
	assert.Equal(t, "Bank Rakyat Indonesia", prof.name)
	assert.Equal(t, SectorFinance, prof.sector)
	assert.InDelta(t, 6.5e14, prof.marketCap, 1)

	provider.now = func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, "BBRI", provider.cachedProfile("BBRI").name)
}
