package monitoring

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invest-sim/internal/model"
)

// Snapshot holds a point-in-time view of simulation activity and endpoint
// health.
type Snapshot struct {
	// All-time simulation history.
	SimulationsTotal int                       `json:"simulations_total"`
	ByProfile        map[model.RiskProfile]int `json:"by_profile"`
	AvgRating        float64                   `json:"avg_rating"`

	// Endpoint totals within the lookback window, one row per endpoint.
	Endpoints     []model.EndpointStat `json:"endpoints"`
	TotalRequests int64                `json:"total_requests"`
	TotalErrors   int64                `json:"total_errors"`
	ErrorRate     float64              `json:"error_rate"`

	// Metadata.
	LookbackDays int       `json:"lookback_days"`
	CollectedAt  time.Time `json:"collected_at"`
}

// StatsSource is the read side of the store used by the collector.
type StatsSource interface {
	SimulationStats(ctx context.Context) (*model.SimulationStats, error)
	ListTelemetry(ctx context.Context, from, to time.Time) ([]model.EndpointStat, error)
}

// Collector gathers metrics from the store and the live recorder.
type Collector struct {
	source   StatsSource
	recorder *Recorder
	now      func() time.Time
}

// NewCollector creates a new metrics collector. recorder may be nil, in
// which case only persisted telemetry is considered.
func NewCollector(source StatsSource, recorder *Recorder) *Collector {
	return &Collector{source: source, recorder: recorder, now: time.Now}
}

// Collect gathers a snapshot covering the last lookbackDays UTC days,
// today included.
func (c *Collector) Collect(ctx context.Context, lookbackDays int) (*Snapshot, error) {
	if lookbackDays <= 0 {
		lookbackDays = 1
	}
	now := c.now().UTC()
	snap := &Snapshot{
		LookbackDays: lookbackDays,
		CollectedAt:  now,
	}

	stats, err := c.source.SimulationStats(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: simulation stats")
	}
	snap.SimulationsTotal = stats.Total
	snap.ByProfile = stats.ByProfile
	snap.AvgRating = stats.AvgRating

	to := truncateDay(now)
	from := to.AddDate(0, 0, -(lookbackDays - 1))
	rows, err := c.source.ListTelemetry(ctx, from, to)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list telemetry")
	}

	// The recorder only holds counts not yet saved, so both sources add up.
	if c.recorder != nil {
		for _, r := range c.recorder.Snapshot() {
			if r.Day >= from.Format(dayLayout) {
				rows = append(rows, r)
			}
		}
	}

	totals := make(map[string]*model.EndpointStat)
	for _, r := range rows {
		t, ok := totals[r.Endpoint]
		if !ok {
			t = &model.EndpointStat{Endpoint: r.Endpoint}
			totals[r.Endpoint] = t
		}
		t.Requests += r.Requests
		t.Successes += r.Successes
		t.Errors += r.Errors
		t.TotalDuration += r.TotalDuration
	}
	for _, t := range totals {
		snap.Endpoints = append(snap.Endpoints, *t)
		snap.TotalRequests += t.Requests
		snap.TotalErrors += t.Errors
	}
	sort.Slice(snap.Endpoints, func(i, j int) bool {
		return snap.Endpoints[i].Endpoint < snap.Endpoints[j].Endpoint
	})
	if snap.TotalRequests > 0 {
		snap.ErrorRate = float64(snap.TotalErrors) / float64(snap.TotalRequests)
	}

	return snap, nil
}
