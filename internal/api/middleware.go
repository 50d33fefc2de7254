package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/invest-sim/internal/config"
	"github.com/sells-group/invest-sim/internal/monitoring"
)

const (
	simulationEndpoint = "POST /simulations"
	limiterIdleTTL     = 10 * time.Minute
)

// telemetry records every request under its route pattern once routing has
// resolved it.
func telemetry(rec *monitoring.Recorder, metrics *monitoring.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			endpoint := routeLabel(r)
			elapsed := time.Since(start)

			if metrics != nil {
				metrics.ObserveRequest(endpoint, status, elapsed)
			}
			if rec != nil {
				rec.Record(r.Context(), monitoring.Observation{
					Endpoint:   endpoint,
					Success:    status < http.StatusBadRequest,
					Duration:   elapsed,
					Simulation: endpoint == simulationEndpoint,
				})
			}
			zap.L().Debug("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("endpoint", endpoint),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed),
			)
		})
	}
}

// routeLabel returns "METHOD /pattern" so that path parameters do not
// explode label cardinality.
func routeLabel(r *http.Request) string {
	pattern := ""
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		pattern = rctx.RoutePattern()
	}
	if pattern == "" {
		pattern = "unmatched"
	}
	return r.Method + " " + pattern
}

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	limit   rate.Limit
	burst   int
	metrics *monitoring.Metrics
	now     func() time.Time

	mu       sync.Mutex
	limiters map[string]*clientLimiter
	lastGC   time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiter(cfg config.RateLimitConfig, metrics *monitoring.Metrics) *ipRateLimiter {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}
	return &ipRateLimiter{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		metrics:  metrics,
		now:      time.Now,
		limiters: make(map[string]*clientLimiter),
	}
}

func (l *ipRateLimiter) allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastGC) > limiterIdleTTL {
		for k, c := range l.limiters {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastGC = now
	}
	c, ok := l.limiters[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = c
	}
	c.lastSeen = now
	l.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

func (l *ipRateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			if l.metrics != nil {
				l.metrics.ObserveRateLimited()
			}
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr, which RealIP has already
// rewritten from forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
