// Package refresh keeps the article store warm for the market-wide query and
// the configured watchlist.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
)

// JobName is the scheduler registration name
const JobName = "news_refresh"

// defaultRunTimeout bounds one whole refresh cycle
const defaultRunTimeout = 10 * time.Minute

// Job acquires the global query and one query per watchlist symbol.
// Units are independent: a failing unit is logged and the next one runs.
type Job struct {
	news    interfaces.NewsService
	config  common.SchedulerConfig
	keyword string
	logger  arbor.ILogger
	timeout time.Duration
}

// unit is one acquire call of a refresh cycle
type unit struct {
	query string
	tag   string
	limit int
}

// NewJob creates a refresh job. keyword qualifies symbol queries ("BBCA saham").
func NewJob(news interfaces.NewsService, config common.SchedulerConfig, keyword string, logger arbor.ILogger) *Job {
	if keyword == "" {
		keyword = "saham"
	}
	return &Job{
		news:    news,
		config:  config,
		keyword: keyword,
		logger:  logger,
		timeout: defaultRunTimeout,
	}
}

// Name implements scheduler.Task
func (j *Job) Name() string {
	return JobName
}

// Run executes one refresh cycle within the job's own time budget. Every unit
// runs; the returned error joins the unit failures and is nil when all succeeded.
func (j *Job) Run(ctx context.Context) (models.CycleReport, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	units := j.units()
	report := models.CycleReport{Units: len(units)}

	var errs []error
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		n, err := j.news.Acquire(ctx, u.query, u.tag, u.limit)
		if err != nil {
			j.logger.Warn().
				Str("tag", u.tag).
				Str("query", u.query).
				Err(err).
				Msg("Refresh unit failed")
			report.FailedTags = append(report.FailedTags, u.tag)
			errs = append(errs, fmt.Errorf("%s: %w", u.tag, err))
			continue
		}
		report.Inserted += n
	}
	report.Duration = time.Since(start)

	j.logger.Info().
		Int("units", report.Units).
		Int("failed", len(report.FailedTags)).
		Int("inserted", report.Inserted).
		Dur("duration", report.Duration).
		Msg("News refresh cycle finished")

	return report, errors.Join(errs...)
}

func (j *Job) units() []unit {
	units := make([]unit, 0, len(j.config.Watchlist)+1)
	if query := strings.TrimSpace(j.config.GlobalQuery); query != "" {
		units = append(units, unit{query: query, tag: models.TagGlobal, limit: j.config.GlobalLimit})
	}

	seen := make(map[string]bool, len(j.config.Watchlist))
	for _, raw := range j.config.Watchlist {
		symbol := common.ParseTicker(raw).Code
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		units = append(units, unit{
			query: symbol + " " + j.keyword,
			tag:   symbol,
			limit: j.config.SymbolLimit,
		})
	}
	return units
}
