package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/storage/badger"
	"github.com/ternarybob/pasar/internal/storage/sqlite"
)

// NewStorageManager creates a new storage manager based on config
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	switch config.Storage.Type {
	case "", "badger":
		return badger.NewManager(logger, &config.Storage.Badger)
	case "sqlite":
		return sqlite.NewManager(logger, &config.Storage.SQLite)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (expected 'badger' or 'sqlite')", config.Storage.Type)
	}
}
