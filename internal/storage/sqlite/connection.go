package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	_ "modernc.org/sqlite"
)

// SQLiteDB manages the SQLite database connection
type SQLiteDB struct {
	db     *sql.DB
	logger arbor.ILogger
}

// NewSQLiteDB opens the database file and applies pending migrations
func NewSQLiteDB(logger arbor.ILogger, config *common.SQLiteConfig) (*SQLiteDB, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dataSourceName(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
		db.SetMaxIdleConns(config.MaxOpenConns)
	}

	s := &SQLiteDB{db: db, logger: logger}

	var journal string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journal); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read journal mode: %w", err)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().
		Str("path", config.Path).
		Str("journal_mode", journal).
		Dur("busy_timeout", config.BusyTimeout).
		Msg("SQLite database initialized")
	return s, nil
}

// dataSourceName encodes the connection pragmas into the DSN so the driver
// runs them on each new pooled connection. Write transactions take the lock
// at BEGIN, making concurrent refresh cycles wait on busy_timeout instead of
// failing mid-batch on lock upgrade.
func dataSourceName(config *common.SQLiteConfig) string {
	params := url.Values{}
	params.Set("_txlock", "immediate")
	if config.BusyTimeout > 0 {
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.BusyTimeout.Milliseconds()))
	}
	if config.JournalMode != "" {
		params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", strings.ToUpper(config.JournalMode)))
	}
	if config.Synchronous != "" {
		params.Add("_pragma", fmt.Sprintf("synchronous(%s)", strings.ToUpper(config.Synchronous)))
	}
	if config.CacheSizeMB > 0 {
		// Negative cache_size is in KiB
		params.Add("_pragma", fmt.Sprintf("cache_size(-%d)", config.CacheSizeMB*1024))
	}
	params.Add("_pragma", "foreign_keys(1)")
	return "file:" + config.Path + "?" + params.Encode()
}

// DB returns the underlying database connection
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginTx starts a write transaction, holding the reserved lock from BEGIN
func (s *SQLiteDB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}
