package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/invest-sim/internal/catalog"
	"github.com/sells-group/invest-sim/internal/fetcher"
	"github.com/sells-group/invest-sim/internal/model"
	"github.com/sells-group/invest-sim/internal/scorer"
	"github.com/sells-group/invest-sim/internal/simulation"
	"github.com/sells-group/invest-sim/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "invest.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// initRedis returns nil when no Redis address is configured.
func initRedis() *redis.Client {
	if cfg.Catalog.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.Catalog.RedisAddr})
}

// initProvider builds the cached catalog provider over st, with Redis as
// the shared second level when rdb is non-nil.
func initProvider(st store.Store, rdb *redis.Client) *catalog.CachedProvider {
	opts := []catalog.CachedOption{
		catalog.WithTTL(time.Duration(cfg.Catalog.CacheTTLSecs) * time.Second),
	}
	if rdb != nil {
		opts = append(opts, catalog.WithSharedCache(catalog.NewRedisSnapshotCache(
			rdb,
			cfg.Catalog.RedisKey,
			time.Duration(cfg.Catalog.RedisTTLSecs)*time.Second,
		)))
	}
	return catalog.NewCachedProvider(st, opts...)
}

// initService wires the scorer, simulator and service from config.
func initService(provider catalog.Provider, st store.Store, observer simulation.Observer) (*simulation.Service, error) {
	engine, err := scorer.NewEngineFromConfig(cfg.Scorer)
	if err != nil {
		return nil, err
	}
	tieBreak, err := simulation.ParseTieBreak(cfg.Scorer.TieBreak)
	if err != nil {
		return nil, err
	}
	sim := simulation.NewSimulator(engine, simulation.WithTieBreak(tieBreak))
	return simulation.NewService(provider, st, sim, observer), nil
}

// seedCatalog imports the configured seed file into an empty catalog.
func seedCatalog(ctx context.Context, st store.Store) error {
	if cfg.Catalog.SeedFile == "" {
		return nil
	}
	existing, err := st.ListProducts(ctx)
	if err != nil {
		return eris.Wrap(err, "seed: list products")
	}
	if len(existing) > 0 {
		return nil
	}
	products, err := catalog.Fetch(ctx, initFetcher(), cfg.Catalog.SeedFile)
	if err != nil {
		return err
	}
	n, err := st.UpsertProducts(ctx, products)
	if err != nil {
		return eris.Wrap(err, "seed: upsert products")
	}
	zap.L().Info("catalog seeded", zap.String("file", cfg.Catalog.SeedFile), zap.Int("products", n))
	return nil
}

// initFetcher returns a fetcher for local paths and http, https or ftp URLs.
func initFetcher() *fetcher.Router {
	return fetcher.NewRouter(fetcher.HTTPOptions{}, fetcher.FTPOptions{})
}

// initSyncer returns a Syncer for catalog.source_url, or nil when unset.
func initSyncer(st store.Store, cache catalog.Invalidator) *catalog.Syncer {
	if cfg.Catalog.SourceURL == "" {
		return nil
	}
	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
	return catalog.NewSyncer(
		cfg.Catalog.SourceURL,
		initFetcher(),
		httpFetcher,
		st,
		cache,
		time.Duration(cfg.Catalog.SyncIntervalSecs)*time.Second,
	)
}

// importProducts is shared by "catalog import" and tests. location may be a
// path or a URL to a YAML, JSON, CSV or XLSX catalog.
func importProducts(ctx context.Context, st store.Store, location string) ([]model.Product, int, error) {
	products, err := catalog.Fetch(ctx, initFetcher(), location)
	if err != nil {
		return nil, 0, err
	}
	n, err := st.UpsertProducts(ctx, products)
	if err != nil {
		return nil, 0, eris.Wrap(err, "catalog import")
	}
	return products, n, nil
}
