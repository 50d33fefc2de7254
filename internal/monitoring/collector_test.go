package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invest-sim/internal/model"
)

// fakeStore implements StatsSource and TelemetrySink in memory.
type fakeStore struct {
	mu        sync.Mutex
	stats     model.SimulationStats
	telemetry map[[2]string]model.EndpointStat
	saves     int
	statsErr  error
	listErr   error
	saveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{telemetry: make(map[[2]string]model.EndpointStat)}
}

func (f *fakeStore) SimulationStats(context.Context) (*model.SimulationStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	s := f.stats
	return &s, nil
}

func (f *fakeStore) ListTelemetry(_ context.Context, from, to time.Time) ([]model.EndpointStat, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi := from.Format(dayLayout), to.Format(dayLayout)
	var out []model.EndpointStat
	for _, st := range f.telemetry {
		if st.Day >= lo && st.Day <= hi {
			out = append(out, st)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveTelemetry(_ context.Context, day time.Time, stats []model.EndpointStat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	d := day.Format(dayLayout)
	for _, st := range stats {
		key := [2]string{d, st.Endpoint}
		prev := f.telemetry[key]
		st.Day = d
		st.Requests += prev.Requests
		st.Successes += prev.Successes
		st.Errors += prev.Errors
		st.TotalDuration += prev.TotalDuration
		f.telemetry[key] = st
	}
	return nil
}

func (f *fakeStore) saved(day, endpoint string) (model.EndpointStat, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.telemetry[[2]string{day, endpoint}]
	return st, ok
}

func TestCollector_Collect(t *testing.T) {
	st := newFakeStore()
	st.stats = model.SimulationStats{
		Total:     3,
		ByProfile: map[model.RiskProfile]int{model.RiskProfileModerate: 2, model.RiskProfileAggressive: 1},
		AvgRating: 62.5,
	}
	st.telemetry[[2]string{"2026-03-01", "POST /simulations"}] = model.EndpointStat{
		Day: "2026-03-01", Endpoint: "POST /simulations", Requests: 10, Successes: 8, Errors: 2, TotalDuration: 100,
	}
	st.telemetry[[2]string{"2026-03-02", "POST /simulations"}] = model.EndpointStat{
		Day: "2026-03-02", Endpoint: "POST /simulations", Requests: 10, Successes: 10, TotalDuration: 50,
	}
	st.telemetry[[2]string{"2026-02-20", "POST /simulations"}] = model.EndpointStat{
		Day: "2026-02-20", Endpoint: "POST /simulations", Requests: 1000, Errors: 1000,
	}

	c := NewCollector(st, nil)
	c.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }

	snap, err := c.Collect(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.SimulationsTotal)
	assert.Equal(t, 2, snap.ByProfile[model.RiskProfileModerate])
	assert.InDelta(t, 62.5, snap.AvgRating, 1e-9)
	assert.Equal(t, 2, snap.LookbackDays)

	require.Len(t, snap.Endpoints, 1)
	assert.Equal(t, int64(20), snap.Endpoints[0].Requests)
	assert.Equal(t, int64(2), snap.Endpoints[0].Errors)
	assert.Equal(t, int64(20), snap.TotalRequests)
	assert.InDelta(t, 0.1, snap.ErrorRate, 1e-9)
}

func TestCollector_AddsUnflushedRecorderCounts(t *testing.T) {
	st := newFakeStore()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	st.telemetry[[2]string{"2026-03-02", "GET /health"}] = model.EndpointStat{
		Day: "2026-03-02", Endpoint: "GET /health", Requests: 1, Successes: 1,
	}

	rec := NewRecorder(st, 10, WithRecorderClock(func() time.Time { return now }))
	for range 3 {
		rec.Record(context.Background(), Observation{Endpoint: "GET /health", Success: true, Duration: time.Millisecond})
	}

	c := NewCollector(st, rec)
	c.now = func() time.Time { return now }

	snap, err := c.Collect(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.LookbackDays)
	require.Len(t, snap.Endpoints, 1)
	assert.Equal(t, int64(4), snap.Endpoints[0].Requests)

	// Flushing moves the pending counts into the store without double counting.
	require.NoError(t, rec.Flush(context.Background()))
	snap, err = c.Collect(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), snap.Endpoints[0].Requests)
	assert.Zero(t, snap.ErrorRate)
}

func TestCollector_Errors(t *testing.T) {
	st := newFakeStore()
	st.statsErr = errors.New("db down")
	_, err := NewCollector(st, nil).Collect(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation stats")

	st = newFakeStore()
	st.listErr = errors.New("db down")
	_, err = NewCollector(st, nil).Collect(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list telemetry")
}
