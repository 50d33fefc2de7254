package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invest-sim/internal/model"
)

func TestMetrics_ObserveSimulation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveSimulation(model.RiskProfileModerate, "weighted", 2*time.Millisecond)
	m.ObserveSimulation(model.RiskProfileModerate, "weighted", 3*time.Millisecond)
	m.ObserveSimulation(model.RiskProfileAggressive, "type_bonus", time.Millisecond)

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.simulations.WithLabelValues("MODERATE", "weighted")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.simulations.WithLabelValues("AGGRESSIVE", "type_bonus")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_Fallbacks(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveTypeFallback()
	m.ObserveTypeFallback()

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.fallbacks), 1e-9)
}

func TestMetrics_HTTP(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRequest("POST /simulations", 201, 5*time.Millisecond)
	m.ObserveRequest("POST /simulations", 400, time.Millisecond)
	m.ObserveRateLimited()

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST /simulations", "201")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST /simulations", "400")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.rateLimited), 1e-9)
}

func TestMetrics_RegistersNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveSimulation(model.RiskProfileConservative, "weighted", time.Millisecond)
	m.ObserveTypeFallback()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["invest_simulations_total"])
	assert.True(t, names["invest_simulation_duration_seconds"])
	assert.True(t, names["invest_type_hint_fallbacks_total"])
}

func TestMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
