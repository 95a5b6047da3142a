// Package storage opens the activity.Storage backend selected by configuration.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ganot/convlog/internal/config"
	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/internal/memstore"
	"github.com/ganot/convlog/internal/persistence"
	"github.com/ganot/convlog/internal/sqlite"
)

// Backend is an opened storage together with its release function.
type Backend struct {
	Storage activity.Storage
	close   func() error
}

// Close releases the underlying database connection.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects to the configured database and prepares its schema.
func Open(cfg config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.DB.Driver {
	case config.DriverMemory:
		return &Backend{Storage: memstore.New()}, nil

	case config.DriverSQLite:
		if err := ensureDBDir(cfg.DB.Path); err != nil {
			return nil, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.DB.Path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, err
		}
		return &Backend{Storage: sqlite.NewStore(db), close: db.Close}, nil

	case config.DriverGormSQLite, config.DriverPostgres:
		if cfg.DB.Driver == config.DriverGormSQLite {
			if err := ensureDBDir(cfg.DB.Path); err != nil {
				return nil, fmt.Errorf("prepare database path: %w", err)
			}
		}
		db, err := persistence.NewDBConnection(cfg.DB, cfg.Log.Level, logger)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("access connection pool: %w", err)
		}
		return &Backend{Storage: persistence.NewStore(db), close: sqlDB.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}
}

// ServiceOptions maps store configuration onto activity.Options.
func ServiceOptions(cfg config.StoreConfig) activity.Options {
	return activity.Options{
		AutoCommit:         cfg.AutoCommit,
		PageSize:           cfg.PageSize,
		ScopedUserDeletion: cfg.ScopedUserDeletion,
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
