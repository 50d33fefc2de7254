// Package api exposes simulations, history, recommendations and telemetry
// over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/invest-sim/internal/config"
	"github.com/sells-group/invest-sim/internal/model"
	"github.com/sells-group/invest-sim/internal/monitoring"
	"github.com/sells-group/invest-sim/internal/simulation"
	"github.com/sells-group/invest-sim/internal/store"
)

// History is the read side of the store used by the history endpoints.
type History interface {
	ListSimulations(ctx context.Context, filter store.SimulationFilter) (*model.SimulationPage, error)
	ListSimulationsByClient(ctx context.Context, clientID string) ([]model.SimulationRecord, error)
	ProductDailySummary(ctx context.Context) ([]model.ProductDaySummary, error)
	ListTelemetry(ctx context.Context, from, to time.Time) ([]model.EndpointStat, error)
}

// Deps are the collaborators of the HTTP layer. Recorder, Metrics and
// Gatherer are optional.
type Deps struct {
	Service   *simulation.Service
	History   History
	Recorder  *monitoring.Recorder
	Metrics   *monitoring.Metrics
	Gatherer  prometheus.Gatherer
	Server    config.ServerConfig
	RateLimit config.RateLimitConfig
}

type handler struct {
	svc      *simulation.Service
	history  History
	recorder *monitoring.Recorder
}

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(d Deps) http.Handler {
	h := &handler{svc: d.Service, history: d.History, recorder: d.Recorder}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(d.Server.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(telemetry(d.Recorder, d.Metrics))

	r.Get("/health", h.health)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(newIPRateLimiter(d.RateLimit, d.Metrics).middleware)

		r.Post("/simulations", h.createSimulation)
		r.Get("/simulations", h.listSimulations)
		r.Get("/simulations/by-product-day", h.productDailySummary)
		r.Get("/clients/{clientID}/simulations", h.clientSimulations)
		r.Get("/clients/{clientID}/profile", h.clientProfile)
		r.Get("/products/recommended/{profile}", h.recommendedProducts)
		r.Get("/telemetry", h.telemetry)
	})

	return r
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// NewHTTPServer wraps handler with the configured timeouts.
func NewHTTPServer(addr string, handler http.Handler, cfg config.ServerConfig) *http.Server {
	read := time.Duration(cfg.ReadTimeoutSecs) * time.Second
	if read <= 0 {
		read = 15 * time.Second
	}
	write := time.Duration(cfg.WriteTimeoutSecs) * time.Second
	if write <= 0 {
		write = 30 * time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       read,
		ReadHeaderTimeout: read,
		WriteTimeout:      write,
	}
}
