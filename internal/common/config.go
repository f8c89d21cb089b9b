package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	EnvFile     string           `toml:"env_file"`    // Optional .env file loaded before env overrides (default: ".env")
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Feed        FeedConfig       `toml:"feed"`
	Sentiment   SentimentConfig  `toml:"sentiment"`
	News        NewsConfig       `toml:"news"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	Market      MarketConfig     `toml:"market"`
	Prediction  PredictionConfig `toml:"prediction"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Type   string       `toml:"type" validate:"omitempty,oneof=badger sqlite"` // "badger" (default) or "sqlite"
	Badger BadgerConfig `toml:"badger"`
	SQLite SQLiteConfig `toml:"sqlite"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path        string `toml:"path"`                                                       // Database directory path
	Compression bool   `toml:"compression"`                                                // ZSTD block compression for article text
	LogLevel    string `toml:"log_level" validate:"omitempty,oneof=debug info warn error"` // Badger's own log output, routed through arbor
}

// SQLiteConfig controls the article and holdings database. Pragmas are applied
// to every pooled connection, not just the first.
type SQLiteConfig struct {
	Path         string        `toml:"path"`                                                        // Database file path
	JournalMode  string        `toml:"journal_mode" validate:"omitempty,oneof=wal delete truncate"` // "wal" lets refresh writes run beside API reads
	Synchronous  string        `toml:"synchronous" validate:"omitempty,oneof=off normal full"`      // Durability level of each commit
	BusyTimeout  time.Duration `toml:"busy_timeout"`                                                // How long a writer waits for a lock held by another cycle
	CacheSizeMB  int           `toml:"cache_size_mb" validate:"gte=0"`                              // Page cache size per connection
	MaxOpenConns int           `toml:"max_open_conns" validate:"gte=0"`                             // 0 leaves the pool unbounded
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"omitempty,oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output []string `toml:"output"`                                                 // "stdout", "file"
}

// FeedConfig controls the news search feed client
type FeedConfig struct {
	URLTemplate  string        `toml:"url_template" validate:"required,contains=%s"` // Search URL, %s receives the escaped query
	Timeout      time.Duration `toml:"timeout" validate:"gt=0"`                      // Per-request timeout
	Retries      int           `toml:"retries" validate:"gte=0,lte=10"`              // Extra attempts after the first failure
	RetryBackoff time.Duration `toml:"retry_backoff"`                                // Delay between attempts (multiplied by attempt number)
	RateLimit    float64       `toml:"rate_limit"`                                   // Requests per second, 0 disables limiting
	UserAgent    string        `toml:"user_agent"`
}

// SentimentConfig controls the hosted sentiment model
type SentimentConfig struct {
	Enabled       bool          `toml:"enabled"`         // Disable to route everything to the lexicon and polarity tiers
	BaseURL       string        `toml:"base_url"`        // Inference API base URL
	Model         string        `toml:"model"`           // Model identifier
	APIToken      string        `toml:"api_token"`       // Bearer token (prefer PASAR_SENTIMENT_API_TOKEN)
	Timeout       time.Duration `toml:"timeout"`         // Per-request timeout
	MaxInputChars int           `toml:"max_input_chars"` // Input is truncated to this many characters before inference
	RateLimit     float64       `toml:"rate_limit"`      // Requests per second
}

// NewsConfig controls the read path over stored articles
type NewsConfig struct {
	QueryLimit    int    `toml:"query_limit" validate:"gt=0"` // Rows returned by get_news
	MinCached     int    `toml:"min_cached" validate:"gte=0"` // Below this many rows a tag is a cache miss
	LiveLimit     int    `toml:"live_limit" validate:"gt=0"`  // Items fetched on a cache miss
	QueryKeyword  string `toml:"query_keyword"`               // Qualifier appended to a tag for live queries ("saham")
	RecapWindow   string `toml:"recap_window"`                // Window for the daily recap (default "24h")
	OutputTimeFmt string `toml:"output_time_format"`          // Time layout used by the API layer
}

// SchedulerConfig controls the background refresh
type SchedulerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Schedule    string   `toml:"schedule"`     // Cron expression (default every 15 minutes)
	RunOnStart  bool     `toml:"run_on_start"` // Run once immediately on startup
	GlobalQuery string   `toml:"global_query"` // Market-wide query tagged Global
	GlobalLimit int      `toml:"global_limit"`
	Watchlist   []string `toml:"watchlist"`    // Symbols refreshed every cycle
	SymbolLimit int      `toml:"symbol_limit"` // Items fetched per watchlist symbol
}

// MarketConfig controls the EODHD market-data client
type MarketConfig struct {
	BaseURL     string        `toml:"base_url"`
	APIKey      string        `toml:"api_key"`  // Prefer PASAR_MARKET_API_KEY or EODHD_API_KEY
	Exchange    string        `toml:"exchange"` // Exchange code for symbol suffixes (default "IDX")
	Timeout     time.Duration `toml:"timeout"`
	RateLimit   int           `toml:"rate_limit"`   // Requests per second
	HistoryDays int           `toml:"history_days"` // Calendar days of price history fetched per prediction
}

// PredictionConfig controls the scoring engine and the watchlist sweep
type PredictionConfig struct {
	SentimentLimit  int           `toml:"sentiment_limit" validate:"gt=0"`    // Live articles scored per prediction
	Concurrency     int           `toml:"concurrency" validate:"gt=0"`        // Parallel predictions during a sweep
	LargeSample     int           `toml:"large_sample" validate:"gte=0"`      // Large-cap symbols sampled per sweep
	SmallSample     int           `toml:"small_sample" validate:"gte=0"`      // Small-cap symbols sampled per sweep
	TopN            int           `toml:"top_n" validate:"gt=0"`              // Entries kept per ranked list
	HiddenGemMaxCap float64       `toml:"hidden_gem_max_cap" validate:"gt=0"` // Market cap ceiling for hidden gems (IDR)
	Timeout         time.Duration `toml:"timeout"`                            // Budget for a whole sweep
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		EnvFile:     ".env",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path:        "./data/pasar",
				Compression: true,
				LogLevel:    "warn",
			},
			SQLite: SQLiteConfig{
				Path:         "./data/pasar.db",
				JournalMode:  "wal",
				Synchronous:  "normal",
				BusyTimeout:  5 * time.Second,
				CacheSizeMB:  16,
				MaxOpenConns: 4,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Feed: FeedConfig{
			URLTemplate:  "https://news.google.com/rss/search?q=%s&hl=id&gl=ID&ceid=ID:id",
			Timeout:      10 * time.Second,
			Retries:      1,
			RetryBackoff: 500 * time.Millisecond,
			RateLimit:    2,
			UserAgent:    "pasar/1.0 (+https://github.com/ternarybob/pasar)",
		},
		Sentiment: SentimentConfig{
			Enabled:       true,
			BaseURL:       "https://api-inference.huggingface.co/models",
			Model:         "w11wo/indonesian-roberta-base-sentiment-classifier",
			Timeout:       10 * time.Second,
			MaxInputChars: 512,
			RateLimit:     5,
		},
		News: NewsConfig{
			QueryLimit:    100,
			MinCached:     5,
			LiveLimit:     30,
			QueryKeyword:  "saham",
			RecapWindow:   "24h",
			OutputTimeFmt: "2006-01-02 15:04:05",
		},
		Scheduler: SchedulerConfig{
			Enabled:     true,
			Schedule:    "*/15 * * * *",
			RunOnStart:  true,
			GlobalQuery: "saham ekonomi indonesia",
			GlobalLimit: 10,
			Watchlist:   []string{"BBCA", "BBRI", "BMRI", "TLKM", "ASII"},
			SymbolLimit: 5,
		},
		Market: MarketConfig{
			BaseURL:     "https://eodhd.com/api",
			Exchange:    "IDX",
			Timeout:     15 * time.Second,
			RateLimit:   10,
			HistoryDays: 45,
		},
		Prediction: PredictionConfig{
			SentimentLimit:  5,
			Concurrency:     8,
			LargeSample:     10,
			SmallSample:     5,
			TopN:            6,
			HiddenGemMaxCap: 10_000_000_000_000, // 10 trillion IDR
			Timeout:         60 * time.Second,
		},
	}
}

// LoadFromFile loads configuration from a single file
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: defaults -> file1 -> file2 -> ... -> .env -> env
// Later files override earlier files
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// godotenv.Load never overrides variables already present in the process environment
	if config.EnvFile != "" {
		if err := godotenv.Load(config.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", config.EnvFile, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PASAR_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("PASAR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PASAR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if storageType := os.Getenv("PASAR_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = strings.ToLower(storageType)
	}
	if badgerPath := os.Getenv("PASAR_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if sqlitePath := os.Getenv("PASAR_SQLITE_PATH"); sqlitePath != "" {
		config.Storage.SQLite.Path = sqlitePath
	}

	// Logging configuration
	if level := os.Getenv("PASAR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("PASAR_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Feed configuration
	if timeout := os.Getenv("PASAR_FEED_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Feed.Timeout = d
		}
	}
	if retries := os.Getenv("PASAR_FEED_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.Feed.Retries = r
		}
	}

	// Sentiment configuration
	if token := os.Getenv("PASAR_SENTIMENT_API_TOKEN"); token != "" {
		config.Sentiment.APIToken = token
	} else if token := os.Getenv("HF_API_TOKEN"); token != "" {
		config.Sentiment.APIToken = token
	}
	if enabled := os.Getenv("PASAR_SENTIMENT_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Sentiment.Enabled = b
		}
	}

	// Scheduler configuration
	if schedule := os.Getenv("PASAR_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
	if enabled := os.Getenv("PASAR_SCHEDULER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = b
		}
	}
	if watchlist := os.Getenv("PASAR_SCHEDULER_WATCHLIST"); watchlist != "" {
		symbols := []string{}
		for _, s := range strings.Split(watchlist, ",") {
			if trimmed := strings.ToUpper(strings.TrimSpace(s)); trimmed != "" {
				symbols = append(symbols, trimmed)
			}
		}
		config.Scheduler.Watchlist = symbols
	}

	// Market configuration
	if apiKey := os.Getenv("PASAR_MARKET_API_KEY"); apiKey != "" {
		config.Market.APIKey = apiKey
	} else if apiKey := os.Getenv("EODHD_API_KEY"); apiKey != "" {
		config.Market.APIKey = apiKey
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks struct constraints and the refresh schedule
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Scheduler.Enabled {
		if err := ValidateSchedule(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler.schedule: %w", err)
		}
	}
	if c.News.RecapWindow != "" {
		if _, err := time.ParseDuration(c.News.RecapWindow); err != nil {
			return fmt.Errorf("invalid news.recap_window: %w", err)
		}
	}
	return nil
}

// RecapWindowDuration returns the recap window, defaulting to 24 hours
func (c *Config) RecapWindowDuration() time.Duration {
	if d, err := time.ParseDuration(c.News.RecapWindow); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

// ValidateSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
