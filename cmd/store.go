package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-id/internal/config"
	"github.com/kozaktomas/face-id/internal/store"
	"github.com/kozaktomas/face-id/internal/store/postgres"
)

// openStore picks the model store for a command invocation: PostgreSQL
// when DATABASE_URL is set, the local gob file otherwise. The returned
// cleanup function is always safe to call.
func openStore(ctx context.Context, cfg *config.Config, path string) (store.ModelStore, func(), error) {
	if cfg.Database.URL == "" {
		if path == "" {
			path = cfg.Model.Path
		}
		return store.NewFileStore(path), func() {}, nil
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	cleanup := func() { _ = pool.Close() }
	return postgres.NewModelRepository(pool, cfg.Model.Name), cleanup, nil
}
