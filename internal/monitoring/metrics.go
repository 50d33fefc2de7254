package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sells-group/invest-sim/internal/model"
)

// Metrics exposes simulation and HTTP measurements to Prometheus. It
// implements simulation.Observer.
type Metrics struct {
	simulations *prometheus.CounterVec
	duration    prometheus.Histogram
	fallbacks   prometheus.Counter
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rateLimited prometheus.Counter
}

// NewMetrics registers the collectors on reg. Pass prometheus.NewRegistry()
// in tests to avoid clashes with the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		simulations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invest",
			Name:      "simulations_total",
			Help:      "Completed simulations by investor profile and scoring policy.",
		}, []string{"profile", "policy"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "invest",
			Name:      "simulation_duration_seconds",
			Help:      "Time spent scoring, selecting and projecting one simulation.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		fallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "invest",
			Name:      "type_hint_fallbacks_total",
			Help:      "Simulations whose product type hint matched nothing and fell back to the full catalog.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"endpoint", "code"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "invest",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
	}
}

// ObserveSimulation records one completed simulation.
func (m *Metrics) ObserveSimulation(profile model.RiskProfile, policy string, d time.Duration) {
	m.simulations.WithLabelValues(string(profile), policy).Inc()
	m.duration.Observe(d.Seconds())
}

// ObserveTypeFallback records a product type hint that matched no candidate.
func (m *Metrics) ObserveTypeFallback() {
	m.fallbacks.Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	m.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveRateLimited records a request rejected with 429.
func (m *Metrics) ObserveRateLimited() {
	m.rateLimited.Inc()
}
