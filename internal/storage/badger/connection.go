package badger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4/options"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// BadgerDB holds the badgerhold store backing articles and holdings
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewBadgerDB opens (or creates) the store at config.Path. Existing articles
// are always kept: the dedup cache is only useful across restarts.
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("badger path is required")
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	opts := badgerhold.DefaultOptions
	opts.Dir = config.Path
	opts.ValueDir = config.Path
	opts.Logger = newBadgerLogger(logger, config.LogLevel)
	if config.Compression {
		opts.Compression = options.ZSTD
	} else {
		opts.Compression = options.None
	}

	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", config.Path, err)
	}

	logger.Info().
		Str("path", config.Path).
		Bool("compression", config.Compression).
		Msg("Badger database initialized")

	return &BadgerDB{store: store, logger: logger}, nil
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// Close closes the database connection
func (b *BadgerDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}

// badgerLogger forwards badger's printf-style output to arbor, dropping
// anything below the configured level
type badgerLogger struct {
	logger arbor.ILogger
	level  int
}

var badgerLevels = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

func newBadgerLogger(logger arbor.ILogger, level string) *badgerLogger {
	l, ok := badgerLevels[strings.ToLower(level)]
	if !ok {
		l = badgerLevels["warn"]
	}
	return &badgerLogger{logger: logger, level: l}
}

func (b *badgerLogger) Errorf(format string, args ...interface{}) {
	if b.level <= 3 {
		b.logger.Error().Str("component", "badger").Msg(trimLine(format, args))
	}
}

func (b *badgerLogger) Warningf(format string, args ...interface{}) {
	if b.level <= 2 {
		b.logger.Warn().Str("component", "badger").Msg(trimLine(format, args))
	}
}

func (b *badgerLogger) Infof(format string, args ...interface{}) {
	if b.level <= 1 {
		b.logger.Info().Str("component", "badger").Msg(trimLine(format, args))
	}
}

func (b *badgerLogger) Debugf(format string, args ...interface{}) {
	if b.level == 0 {
		b.logger.Debug().Str("component", "badger").Msg(trimLine(format, args))
	}
}

func trimLine(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
