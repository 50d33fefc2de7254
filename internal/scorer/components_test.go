package scorer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/invest-sim/internal/model"
)

func product(id int64, typ, rate string, liq int, rating string) model.Product {
	return model.Product{
		ID:            id,
		Name:          typ + " product",
		Type:          typ,
		AnnualRate:    decimal.RequireFromString(rate),
		LiquidityDays: liq,
		RiskRating:    rating,
	}
}

func TestNewCatalogStats(t *testing.T) {
	stats := NewCatalogStats([]model.Product{
		product(1, "CDB", "0.12", 30, "AA"),
		product(2, "LCI", "0.09", 90, "A"),
		product(3, "FII", "0.15", 400, "BB"),
	})
	assert.InDelta(t, 0.15, stats.MaxRate, 0.0001)
	assert.InDelta(t, 30, stats.MinLiquidity, 0.0001)
	assert.InDelta(t, 400, stats.MaxLiquidity, 0.0001)
	assert.InDelta(t, 370, stats.LiquidityRange(), 0.0001)
}

func TestNewCatalogStatsGuardsZeroRate(t *testing.T) {
	stats := NewCatalogStats([]model.Product{product(1, "CDB", "0", 10, "AA")})
	assert.InDelta(t, 0.01, stats.MaxRate, 0.0001)

	empty := NewCatalogStats(nil)
	assert.InDelta(t, 0.01, empty.MaxRate, 0.0001)
}

func TestNormalizeReturn(t *testing.T) {
	stats := CatalogStats{MaxRate: 0.12}
	assert.InDelta(t, 0.8, normalizeReturn(0.096, stats), 0.0001)
	assert.InDelta(t, 1.0, normalizeReturn(0.5, stats), 0.0001)
	assert.InDelta(t, 0.0, normalizeReturn(-0.1, stats), 0.0001)
}

func TestNormalizeLiquidity(t *testing.T) {
	stats := CatalogStats{MinLiquidity: 30, MaxLiquidity: 400}
	tests := []struct {
		name  string
		liq   int
		hold  int
		stats CatalogStats
		want  float64
	}{
		{"redeemable within horizon", 30, 360, stats, 1.0},
		{"equal to horizon", 360, 360, stats, 1.0},
		{"slightly beyond horizon", 400, 360, stats, 1 - 40.0/370.0},
		{"far beyond horizon", 400, 0, stats, 0},
		{"degenerate range", 400, 360, CatalogStats{MinLiquidity: 400, MaxLiquidity: 400}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, normalizeLiquidity(tt.liq, tt.hold, tt.stats), 0.0001)
		})
	}
}

func TestNormalizeRisk(t *testing.T) {
	tests := []struct {
		name    string
		level   float64
		profile model.RiskProfile
		want    float64
	}{
		{"conservative safest", 1, model.RiskProfileConservative, 1.0},
		{"conservative riskiest", 10, model.RiskProfileConservative, 0.0},
		{"moderate center", 5, model.RiskProfileModerate, 1.0},
		{"moderate low", 2, model.RiskProfileModerate, 0.4},
		{"moderate extreme", 10, model.RiskProfileModerate, 0.0},
		{"aggressive safest", 1, model.RiskProfileAggressive, 0.0},
		{"aggressive riskiest", 10, model.RiskProfileAggressive, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, normalizeRisk(tt.level, tt.profile), 0.0001)
		})
	}
}

func TestNormalizeVolume(t *testing.T) {
	tests := []struct {
		amount float64
		want   float64
	}{
		{500, 0.2},
		{1_000, 0.4},
		{9_999, 0.4},
		{10_000, 0.6},
		{50_000, 0.8},
		{100_000, 1.0},
		{1_000_000, 1.0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, normalizeVolume(tt.amount), 0.0001, "amount %v", tt.amount)
	}
}

func TestNormalizeTurnover(t *testing.T) {
	tests := []struct {
		name string
		term int
		liq  int
		want float64
	}{
		{"short liquid", 6, 30, 1.0},
		{"short illiquid", 3, 31, 0.3},
		{"mid liquid", 12, 90, 0.8},
		{"mid illiquid", 24, 91, 0.6},
		{"long illiquid", 36, 90, 1.0},
		{"long liquid", 36, 1, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, normalizeTurnover(tt.term, tt.liq), 0.0001)
		})
	}
}
