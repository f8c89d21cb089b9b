package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
)

func TestNewStorageManager(t *testing.T) {
	tests := []struct {
		name        string
		storageType string
		wantErr     bool
	}{
		{"default is badger", "", false},
		{"badger", "badger", false},
		{"sqlite", "sqlite", false},
		{"unsupported", "postgres", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			config := common.NewDefaultConfig()
			config.Storage.Type = tt.storageType
			config.Storage.Badger.Path = filepath.Join(dir, "badger")
			config.Storage.SQLite.Path = filepath.Join(dir, "pasar.db")

			manager, err := NewStorageManager(arbor.NewLogger(), config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer manager.Close()

			assert.NotNil(t, manager.ArticleStorage())
			assert.NotNil(t, manager.HoldingStorage())
		})
	}
}
