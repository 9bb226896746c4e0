package history

import (
	"log/slog"

	"reservoir-hq/livesync/pkg/config"
)

// Open returns the storage backend for cfg: SQLite at cfg.Path, or memory
// when the path is empty.
func Open(cfg config.HistoryConfig, logger *slog.Logger) (Storage, error) {
	if cfg.Path == "" {
		return NewMemoryStorage(), nil
	}
	return NewSQLiteStorage(&SQLiteConfig{
		Path:         cfg.Path,
		MaxOpenConns: DefaultSQLiteConfig().MaxOpenConns,
		WALMode:      true,
		BusyTimeout:  cfg.BusyTimeout,
	}, logger)
}
