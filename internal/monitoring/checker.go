package monitoring

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/invest-sim/internal/config"
)

const (
	// Each check looks at today's traffic only.
	checkLookbackDays    = 1
	defaultCheckInterval = 5 * time.Minute
	defaultAlertCooldown = time.Hour
)

// Checker evaluates endpoint telemetry on an interval and posts alerts.
// An endpoint that keeps breaching the same threshold is re-alerted only
// once per cooldown.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	interval  time.Duration
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	lastSent map[alertKey]time.Time
}

type alertKey struct {
	kind     AlertType
	endpoint string
}

// NewChecker creates a background alert checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	interval := time.Duration(cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	cooldown := time.Duration(cfg.AlertCooldownSecs) * time.Second
	if cooldown <= 0 {
		cooldown = defaultAlertCooldown
	}
	return &Checker{
		collector: collector,
		alerter:   alerter,
		interval:  interval,
		cooldown:  cooldown,
		now:       time.Now,
		lastSent:  make(map[alertKey]time.Time),
	}
}

// Run blocks, checking on every interval until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting alert checker",
		zap.Duration("interval", c.interval),
		zap.Duration("cooldown", c.cooldown),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("alert checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

// check runs one evaluation and returns the number of alerts delivered.
func (c *Checker) check(ctx context.Context, log *zap.Logger) int {
	snap, err := c.collector.Collect(ctx, checkLookbackDays)
	if err != nil {
		log.Error("monitoring: collect failed", zap.Error(err))
		return 0
	}

	alerts := c.fresh(c.alerter.Evaluate(snap))
	if len(alerts) == 0 {
		log.Debug("monitoring: no new alerts",
			zap.Int64("requests", snap.TotalRequests),
			zap.Float64("error_rate", snap.ErrorRate),
		)
		return 0
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Info("monitoring: alerts dispatched",
		zap.Int("alerts", len(alerts)),
		zap.Int("sent", sent),
		zap.Int64("requests", snap.TotalRequests),
	)
	return sent
}

// fresh drops alerts already raised for the same endpoint and type within
// the cooldown, and marks the rest as raised.
func (c *Checker) fresh(alerts []Alert) []Alert {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	out := alerts[:0]
	for _, a := range alerts {
		key := alertKey{kind: a.Type, endpoint: a.Endpoint}
		if last, ok := c.lastSent[key]; ok && now.Sub(last) < c.cooldown {
			continue
		}
		c.lastSent[key] = now
		out = append(out, a)
	}
	return out
}
