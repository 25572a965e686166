package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cfsim/internal/store"
)

// initStore opens the configured run-history store and migrates it. The
// "none" driver returns a nil store.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "none":
		return nil, nil
	case "sqlite", "":
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = store.DefaultSQLitePath
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// requireStore is initStore for commands that only make sense with history.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("run history is disabled (store.driver is none)")
	}
	return st, nil
}
