// Package feed reads the news search RSS feed.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultURLTemplate is the Indonesian Google News search feed
	DefaultURLTemplate = "https://news.google.com/rss/search?q=%s&hl=id&gl=ID&ceid=ID:id"

	// DefaultTimeout is the per-request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the reader to the feed host
	DefaultUserAgent = "pasar/1.0 (+https://github.com/ternarybob/pasar)"
)

// Reader implements interfaces.FeedReader on top of gofeed
type Reader struct {
	urlTemplate  string
	timeout      time.Duration
	retries      int
	retryBackoff time.Duration
	userAgent    string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       arbor.ILogger
}

var _ interfaces.FeedReader = (*Reader)(nil)

// ReaderOption configures the Reader
type ReaderOption func(*Reader)

// WithURLTemplate sets the search URL; %s receives the escaped query
func WithURLTemplate(template string) ReaderOption {
	return func(r *Reader) {
		if template != "" {
			r.urlTemplate = template
		}
	}
}

// WithTimeout sets the per-attempt timeout
func WithTimeout(timeout time.Duration) ReaderOption {
	return func(r *Reader) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithRetry sets the number of extra attempts and the linear backoff between them
func WithRetry(retries int, backoff time.Duration) ReaderOption {
	return func(r *Reader) {
		if retries >= 0 {
			r.retries = retries
		}
		r.retryBackoff = backoff
	}
}

// WithRateLimit sets requests per second; 0 disables limiting
func WithRateLimit(rps float64) ReaderOption {
	return func(r *Reader) {
		if rps <= 0 {
			r.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) ReaderOption {
	return func(r *Reader) {
		if userAgent != "" {
			r.userAgent = userAgent
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ReaderOption {
	return func(r *Reader) {
		r.httpClient = httpClient
	}
}

// WithLogger sets a logger
func WithLogger(logger arbor.ILogger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader creates a feed reader
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{
		urlTemplate:  DefaultURLTemplate,
		timeout:      DefaultTimeout,
		retries:      1,
		retryBackoff: 500 * time.Millisecond,
		userAgent:    DefaultUserAgent,
		httpClient:   &http.Client{},
		limiter:      rate.NewLimiter(rate.Limit(2), 2),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = common.GetLogger()
	}
	return r
}

// NewReaderFromConfig creates a reader from the feed section
func NewReaderFromConfig(cfg common.FeedConfig, logger arbor.ILogger) *Reader {
	return NewReader(
		WithURLTemplate(cfg.URLTemplate),
		WithTimeout(cfg.Timeout),
		WithRetry(cfg.Retries, cfg.RetryBackoff),
		WithRateLimit(cfg.RateLimit),
		WithUserAgent(cfg.UserAgent),
		WithLogger(logger),
	)
}

// SearchURL builds the feed URL for query
func (r *Reader) SearchURL(query string) string {
	return fmt.Sprintf(r.urlTemplate, url.QueryEscape(strings.TrimSpace(query)))
}

// Fetch returns up to limit items in feed order. Any failure after the
// configured retries is logged and yields an empty slice.
func (r *Reader) Fetch(ctx context.Context, query string, limit int) []models.FeedItem {
	if limit <= 0 {
		return []models.FeedItem{}
	}

	feedURL := r.SearchURL(query)
	feed, err := r.fetchWithRetry(ctx, feedURL)
	if err != nil {
		r.logger.Warn().
			Str("query", query).
			Err(err).
			Msg("News feed fetch failed")
		return []models.FeedItem{}
	}

	items := make([]models.FeedItem, 0, min(limit, len(feed.Items)))
	for _, item := range feed.Items {
		if len(items) == limit {
			break
		}
		if item == nil || item.Link == "" {
			continue
		}
		items = append(items, models.FeedItem{
			Title:           item.Title,
			Link:            item.Link,
			Published:       item.Published,
			PublishedParsed: item.PublishedParsed,
			Description:     item.Description,
		})
	}

	r.logger.Debug().
		Str("query", query).
		Int("items", len(items)).
		Msg("News feed fetched")

	return items
}

func (r *Reader) fetchWithRetry(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, r.retryBackoff*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}

		feed, err := r.fetchOnce(ctx, feedURL)
		if err == nil {
			return feed, nil
		}
		lastErr = err

		if !retryable(err) || ctx.Err() != nil {
			break
		}
		r.logger.Debug().
			Int("attempt", attempt+1).
			Err(err).
			Msg("News feed attempt failed")
	}
	return nil, lastErr
}

func (r *Reader) fetchOnce(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.Client = r.httpClient
	parser.UserAgent = r.userAgent

	feed, err := parser.ParseURLWithContext(feedURL, attemptCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed, nil
}

// retryable reports whether another attempt could succeed. Client errors other
// than 429 are final.
func retryable(err error) bool {
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
