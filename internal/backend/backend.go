// Package backend opens the row store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/liftsheet"
	"github.com/claude/liftsheet/internal/config"
	"github.com/claude/liftsheet/internal/sheets"
	"github.com/claude/liftsheet/internal/storage"
)

// Backend is an open row store. DB is nil unless the Postgres backend is in use.
type Backend struct {
	Store sheets.Catalog
	DB    *storage.DB
}

// Open connects to the configured store. Postgres migrations are applied first.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendWorkbook:
		log.Info("using workbook store", "path", cfg.Store.Workbook)
		return &Backend{Store: sheets.NewWorkbook(cfg.Store.Workbook)}, nil

	case config.BackendPostgres:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, liftsheet.MigrationsFS, "migrations"); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		log.Info("migrations applied")

		db, err := storage.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting database: %w", err)
		}
		log.Info("database connected")
		return &Backend{Store: db, DB: db}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// Close releases the database pool, if any.
func (b *Backend) Close() {
	if b.DB != nil {
		b.DB.Close()
	}
}
