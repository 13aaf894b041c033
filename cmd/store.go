package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/access-cli/internal/resilience"
	"github.com/sells-group/access-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "access.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		retry := resilience.DefaultRetryConfig()
		retry.OnRetry = resilience.RetryLogger("store.connect")
		st, err = resilience.DoVal(ctx, retry, func(ctx context.Context) (store.Store, error) {
			pg, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
			if err != nil {
				return nil, err
			}
			return pg, nil
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
