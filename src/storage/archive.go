package storage

import (
	"fmt"

	"market-simulator/src/interfaces"
	"market-simulator/src/logger"
	"market-simulator/src/models"
)

// NewArchive opens the configured backend. Returns nil when storage is disabled.
func NewArchive(cfg *models.MConfig) (interfaces.IArchive, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}

	var db interfaces.IArchive
	switch cfg.Storage.DBType {
	case "postgres":
		db = NewPostgresDB(cfg, logger.NewLogger("PostgresDB"))
	case "sqlite", "":
		db = NewSQLiteDB(cfg, logger.NewLogger("SQLiteDB"))
	default:
		return nil, fmt.Errorf("unsupported db_type %q", cfg.Storage.DBType)
	}

	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
