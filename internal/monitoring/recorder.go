package monitoring

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/invest-sim/internal/model"
)

const dayLayout = "2006-01-02"

// TelemetrySink adds per-day endpoint counts to what is already stored.
// store.Store satisfies it.
type TelemetrySink interface {
	SaveTelemetry(ctx context.Context, day time.Time, stats []model.EndpointStat) error
}

// Observation is one handled request.
type Observation struct {
	Endpoint   string
	Success    bool
	Duration   time.Duration
	Simulation bool // counts toward the flush cadence
}

// Recorder accumulates request statistics for the current UTC day and
// persists them every flushEvery simulation requests, when the day rolls
// over and on Flush. It only holds counts not yet saved: each save hands the
// pending deltas to the sink, which adds them, so restarts and parallel
// instances never overwrite each other. Failed saves are merged back.
type Recorder struct {
	sink       TelemetrySink
	flushEvery int
	now        func() time.Time

	mu         sync.Mutex
	day        time.Time
	stats      map[string]*model.EndpointStat
	sinceFlush int
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderClock overrides the clock used to bucket requests by day.
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a Recorder that writes to sink. A nil sink keeps
// statistics in memory only.
func NewRecorder(sink TelemetrySink, flushEvery int, opts ...RecorderOption) *Recorder {
	if flushEvery <= 0 {
		flushEvery = 10
	}
	r := &Recorder{
		sink:       sink,
		flushEvery: flushEvery,
		now:        time.Now,
		stats:      make(map[string]*model.EndpointStat),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.day = truncateDay(r.now())
	return r
}

// Record adds one observation. Persistence failures are logged; request
// handling never fails because telemetry could not be written.
func (r *Recorder) Record(ctx context.Context, obs Observation) {
	today := truncateDay(r.now())

	r.mu.Lock()
	var rolled []model.EndpointStat
	rolledDay := r.day
	if today.After(r.day) {
		rolled = r.takeLocked()
		r.stats = make(map[string]*model.EndpointStat)
		r.day = today
		r.sinceFlush = 0
	}

	st, ok := r.stats[obs.Endpoint]
	if !ok {
		st = &model.EndpointStat{Day: r.day.Format(dayLayout), Endpoint: obs.Endpoint}
		r.stats[obs.Endpoint] = st
	}
	st.Requests++
	if obs.Success {
		st.Successes++
	} else {
		st.Errors++
	}
	st.TotalDuration += float64(obs.Duration) / float64(time.Millisecond)

	var current []model.EndpointStat
	if obs.Simulation {
		r.sinceFlush++
		if r.sinceFlush >= r.flushEvery {
			current = r.takeLocked()
			r.sinceFlush = 0
		}
	}
	currentDay := r.day
	r.mu.Unlock()

	if len(rolled) > 0 {
		r.save(ctx, rolledDay, rolled, "rollover")
	}
	if len(current) > 0 {
		r.save(ctx, currentDay, current, "periodic")
	}
}

// Flush persists the current day's pending counts.
func (r *Recorder) Flush(ctx context.Context) error {
	if r.sink == nil {
		return nil
	}
	r.mu.Lock()
	stats := r.takeLocked()
	day := r.day
	r.sinceFlush = 0
	r.mu.Unlock()

	if len(stats) == 0 {
		return nil
	}
	if err := r.sink.SaveTelemetry(ctx, day, stats); err != nil {
		r.restore(day, stats)
		return eris.Wrap(err, "monitoring: flush telemetry")
	}
	return nil
}

// Snapshot returns the counts not yet persisted, ordered by endpoint.
func (r *Recorder) Snapshot() []model.EndpointStat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Recorder) snapshotLocked() []model.EndpointStat {
	out := make([]model.EndpointStat, 0, len(r.stats))
	for _, st := range r.stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}

// takeLocked returns the pending counts and clears them. Without a sink the
// counts are kept, since nothing will ever persist them.
func (r *Recorder) takeLocked() []model.EndpointStat {
	out := r.snapshotLocked()
	if r.sink != nil {
		r.stats = make(map[string]*model.EndpointStat)
	}
	return out
}

// restore merges counts from a failed save back into the pending set when
// they belong to the day still being recorded. Counts for a day that has
// already rolled over are dropped.
func (r *Recorder) restore(day time.Time, stats []model.EndpointStat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !day.Equal(r.day) {
		return
	}
	for _, s := range stats {
		st, ok := r.stats[s.Endpoint]
		if !ok {
			st = &model.EndpointStat{Day: s.Day, Endpoint: s.Endpoint}
			r.stats[s.Endpoint] = st
		}
		st.Requests += s.Requests
		st.Successes += s.Successes
		st.Errors += s.Errors
		st.TotalDuration += s.TotalDuration
	}
}

func (r *Recorder) save(ctx context.Context, day time.Time, stats []model.EndpointStat, reason string) {
	if r.sink == nil {
		return
	}
	if err := r.sink.SaveTelemetry(ctx, day, stats); err != nil {
		r.restore(day, stats)
		zap.L().Warn("monitoring: failed to persist telemetry",
			zap.String("day", day.Format(dayLayout)),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
