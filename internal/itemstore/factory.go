package itemstore

import (
	"fmt"
	"path/filepath"

	"rwb-go/internal/config"
	"rwb-go/internal/rwb"
)

// NewItemStoreFromConfig creates an ItemStore implementation based on the config type.
func NewItemStoreFromConfig(cfg config.ItemStoreConfig) (rwb.ItemStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite item store")
		}
		store, err := NewSQLiteStore(filepath.Join(cfg.DataDir, "reminders.db"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown item store type: %s", cfg.Type)
	}
}
