// Package app builds the store and service both binaries run on.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/willbda/happy-to-have-lived-sub002/internal/config"
	"github.com/willbda/happy-to-have-lived-sub002/internal/core"
	_ "github.com/willbda/happy-to-have-lived-sub002/internal/core/kinds" // Register all kinds
	"github.com/willbda/happy-to-have-lived-sub002/internal/similarity"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store/memstore"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store/sqlstore"
)

// OpenStore opens the store selected by cfg.Driver. SQL stores are migrated
// before they are returned.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store, records are lost on exit")
		return memstore.New(), nil
	case config.DriverSQLite, config.DriverPostgres:
		st, err := sqlstore.Open(ctx, sqlstore.Options{
			Driver:          cfg.Driver,
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// NewService creates the import service with the configured limits and the
// default similarity finder.
func NewService(st core.Storage, cfg config.ImportConfig) *core.Service {
	return core.NewService(st, core.Options{
		Finder:              similarity.FingerprintFinder{},
		SimilarityThreshold: cfg.SimilarityThreshold,
		MaxFileSize:         cfg.MaxFileSize,
		PreviewTTL:          cfg.PreviewTTL,
		MaxConcurrent:       cfg.MaxConcurrent,
		MaxWait:             cfg.MaxWaitTime,
	})
}
