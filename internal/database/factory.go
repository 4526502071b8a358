package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JOJ0/discodos-sub001/internal/config"
	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// HistoryFileName is the database file created under data_dir.
const HistoryFileName = "history.db"

// NewHistoryFromConfig creates a HistoryStore implementation based on the history config type.
func NewHistoryFromConfig(cfg config.HistoryConfig) (discosync.HistoryStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite history")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
		h, err := NewSQLiteHistory(filepath.Join(cfg.DataDir, HistoryFileName))
		if err != nil {
			return nil, err
		}
		return h, nil
	case "memory", "":
		h, err := NewSQLiteHistory(":memory:")
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unknown history type: %s", cfg.Type)
	}
}
