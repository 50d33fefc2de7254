package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/invest-sim/internal/api"
	"github.com/sells-group/invest-sim/internal/monitoring"
)

const shutdownTimeout = 15 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := seedCatalog(ctx, st); err != nil {
			return err
		}

		rdb := initRedis()
		if rdb != nil {
			defer rdb.Close() //nolint:errcheck
		}
		provider := initProvider(st, rdb)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := monitoring.NewMetrics(reg)
		recorder := monitoring.NewRecorder(st, cfg.Telemetry.FlushEvery)

		svc, err := initService(provider, st, metrics)
		if err != nil {
			return err
		}

		router := api.NewRouter(api.Deps{
			Service:   svc,
			History:   st,
			Recorder:  recorder,
			Metrics:   metrics,
			Gatherer:  reg,
			Server:    cfg.Server,
			RateLimit: cfg.RateLimit,
		})
		srv := api.NewHTTPServer(fmt.Sprintf(":%d", cfg.Server.Port), router, cfg.Server)

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting server",
				zap.Int("port", cfg.Server.Port),
				zap.String("store", cfg.Store.Driver),
				zap.String("policy", cfg.Scorer.Policy),
				zap.Bool("redis", rdb != nil),
				zap.String("catalog_source", cfg.Catalog.SourceURL),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		if syncer := initSyncer(st, provider); syncer != nil {
			g.Go(func() error {
				syncer.Run(gctx)
				return nil
			})
		}

		if cfg.Monitoring.Enabled {
			checker := monitoring.NewChecker(monitoring.NewCollector(st, recorder), monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)
			g.Go(func() error {
				checker.Run(gctx)
				return nil
			})
		}

		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
			if err := recorder.Flush(shutdownCtx); err != nil {
				zap.L().Error("final telemetry flush failed", zap.Error(err))
			}
			return nil
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
