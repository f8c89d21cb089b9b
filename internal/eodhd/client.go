package eodhd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://eodhd.com/api"
	defaultTimeout   = 15 * time.Second
	defaultRateLimit = 10

	// MaxQuoteBatch is how many symbols one real-time request carries
	MaxQuoteBatch = 15

	dateLayout = "2006-01-02"
)

// Client calls the EODHD API for one API key
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  arbor.ILogger
	now     func() time.Time
}

// NewClient builds a client from the market config. Zero values fall back to
// the public endpoint, a 15s timeout and 10 requests per second.
func NewClient(cfg common.MarketConfig, logger arbor.ILogger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(limit), limit),
		logger:  logger,
		now:     time.Now,
	}
}

// GetEOD returns daily bars for symbol between from and to inclusive, oldest
// first. A zero from or to leaves that side open.
func (c *Client) GetEOD(ctx context.Context, symbol string, from, to time.Time) (EODResponse, error) {
	params := url.Values{"period": {"d"}, "order": {"a"}}
	if !from.IsZero() {
		params.Set("from", from.Format(dateLayout))
	}
	if !to.IsZero() {
		params.Set("to", to.Format(dateLayout))
	}

	var rows EODResponse
	if err := c.fetch(ctx, "/eod/"+url.PathEscape(symbol), params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("eod %s: %w", symbol, ErrNoData)
	}
	for i := range rows {
		if t, err := time.Parse(dateLayout, rows[i].DateStr); err == nil {
			rows[i].Date = t
		}
	}
	return rows, nil
}

// GetFundamentals returns the company profile and ratios for symbol
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*FundamentalsResponse, error) {
	var result FundamentalsResponse
	if err := c.fetch(ctx, "/fundamentals/"+url.PathEscape(symbol), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetQuotes returns the latest delayed quote for each symbol, in request
// batches of MaxQuoteBatch. Symbols the API does not know come back with
// zero prices and are dropped.
func (c *Client) GetQuotes(ctx context.Context, symbols ...string) ([]Quote, error) {
	quotes := make([]Quote, 0, len(symbols))
	for start := 0; start < len(symbols); start += MaxQuoteBatch {
		batch := symbols[start:min(start+MaxQuoteBatch, len(symbols))]

		var params url.Values
		if len(batch) > 1 {
			params = url.Values{"s": {strings.Join(batch[1:], ",")}}
		}

		var raw json.RawMessage
		if err := c.fetch(ctx, "/real-time/"+url.PathEscape(batch[0]), params, &raw); err != nil {
			return nil, err
		}
		decoded, err := decodeQuotes(raw)
		if err != nil {
			return nil, fmt.Errorf("eodhd /real-time/%s: %w", batch[0], err)
		}
		for _, q := range decoded {
			if q.Close > 0 {
				quotes = append(quotes, q)
			}
		}
	}

	if len(quotes) == 0 && len(symbols) > 0 {
		return nil, fmt.Errorf("real-time %s: %w", strings.Join(symbols, ","), ErrNoData)
	}
	return quotes, nil
}

// decodeQuotes accepts the single object returned for one symbol and the
// array returned for several
func decodeQuotes(raw json.RawMessage) ([]Quote, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var quotes []Quote
		err := json.Unmarshal(raw, &quotes)
		return quotes, err
	}
	var quote Quote
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, err
	}
	return []Quote{quote}, nil
}

// fetch issues one rate-limited GET and decodes the JSON body into out.
// Errors name the endpoint but never the request URL, which carries the key.
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.apiKey == "" {
		return &APIError{StatusCode: http.StatusUnauthorized, Message: "no API key configured", Endpoint: endpoint}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("eodhd %s: %w", endpoint, err)
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("api_token", c.apiKey)
	query.Set("fmt", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("eodhd %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("eodhd %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", c.now().Sub(start)).
		Msg("EODHD request")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Endpoint: endpoint, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.now())}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), Endpoint: endpoint}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("eodhd %s: decode: %w", endpoint, err)
	}
	return nil
}
