package sqlite

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/interfaces"
)

// Manager implements the StorageManager interface
type Manager struct {
	db       *SQLiteDB
	articles interfaces.ArticleStorage
	holdings interfaces.HoldingStorage
	logger   arbor.ILogger
}

// NewManager creates a new SQLite storage manager
func NewManager(logger arbor.ILogger, config *common.SQLiteConfig) (interfaces.StorageManager, error) {
	db, err := NewSQLiteDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:       db,
		articles: NewArticleStorage(db, logger),
		holdings: NewHoldingStorage(db, logger),
		logger:   logger,
	}, nil
}

// ArticleStorage returns the Article storage interface
func (m *Manager) ArticleStorage() interfaces.ArticleStorage {
	return m.articles
}

// HoldingStorage returns the Holding storage interface
func (m *Manager) HoldingStorage() interfaces.HoldingStorage {
	return m.holdings
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
