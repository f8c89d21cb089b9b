// Package eodhd is a client for the EODHD market-data API, covering the
// endpoints pasar reads for IDX listings: daily history, real-time quotes and
// fundamentals.
package eodhd

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrNoData is returned when the API answers successfully but carries no rows
var ErrNoData = errors.New("eodhd: no data")

// maxErrorBody caps how much of an error response is kept in APIError
const maxErrorBody = 256

// APIError is a non-2xx answer other than 429
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eodhd %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// NotFound reports whether the API rejected the symbol
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// RateLimitError is a 429 answer. RetryAfter is zero when the API gave no hint.
type RateLimitError struct {
	Endpoint   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("eodhd %s: rate limited, retry after %v", e.Endpoint, e.RetryAfter)
	}
	return fmt.Sprintf("eodhd %s: rate limited", e.Endpoint)
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
