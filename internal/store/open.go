package store

import (
	"context"
	"fmt"

	"practice-roster/internal/config"
)

// Open builds the backend named by cfg.Driver and, when cfg.AutoMigrate is
// set, brings its schema up to date.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreDriverMemory:
		return NewMemory(), nil
	case config.StoreDriverSQLite:
		st, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := st.Migrate(ctx); err != nil {
				_ = st.Close()
				return nil, err
			}
		}
		return st, nil
	case config.StoreDriverPostgres:
		st, err := NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := st.Migrate(ctx); err != nil {
				_ = st.Close()
				return nil, err
			}
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Postgres)(nil)
)
