package main

import (
	"context"
	"path/filepath"

	"researchsim/internal/config"
	"researchsim/internal/store"
	"researchsim/internal/store/postgres"
	"researchsim/internal/store/sqlite"
)

// openDB connects to the configured store and makes sure its schema exists.
// Relative sqlite paths resolve against the config file's directory.
func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	driver, source, err := config.ParseDSN(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	var db store.Store
	switch driver {
	case "postgres":
		db, err = postgres.New(ctx, source)
	default:
		if source != ":memory:" && !filepath.IsAbs(source) {
			source = cfg.Path(source)
		}
		db, err = sqlite.New(ctx, "sqlite://"+source)
	}
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close(ctx)
		return nil, err
	}
	return db, nil
}
