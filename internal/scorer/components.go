package scorer

import (
	"math"

	"github.com/sells-group/invest-sim/internal/model"
)

// minMaxRate replaces a zero catalog maximum so return normalization never divides by zero.
const minMaxRate = 0.01

// CatalogStats holds the cross-product bounds used for normalization.
type CatalogStats struct {
	MaxRate      float64 `json:"max_rate"`
	MinLiquidity float64 `json:"min_liquidity"`
	MaxLiquidity float64 `json:"max_liquidity"`
}

// NewCatalogStats computes normalization bounds over the candidate set.
func NewCatalogStats(products []model.Product) CatalogStats {
	if len(products) == 0 {
		return CatalogStats{MaxRate: minMaxRate, MinLiquidity: 0, MaxLiquidity: 1}
	}

	stats := CatalogStats{
		MaxRate:      math.Inf(-1),
		MinLiquidity: math.Inf(1),
		MaxLiquidity: math.Inf(-1),
	}
	for _, p := range products {
		stats.MaxRate = math.Max(stats.MaxRate, p.AnnualRate.InexactFloat64())
		liq := float64(p.LiquidityDays)
		stats.MinLiquidity = math.Min(stats.MinLiquidity, liq)
		stats.MaxLiquidity = math.Max(stats.MaxLiquidity, liq)
	}
	if stats.MaxRate <= 0 {
		stats.MaxRate = minMaxRate
	}
	return stats
}

// LiquidityRange returns the spread between the least and most liquid candidates.
func (s CatalogStats) LiquidityRange() float64 {
	return s.MaxLiquidity - s.MinLiquidity
}

// normalizeReturn scales a net rate against the best gross rate in the catalog.
func normalizeReturn(netRate float64, stats CatalogStats) float64 {
	return clamp01(netRate / stats.MaxRate)
}

// normalizeLiquidity returns 1.0 when the product can be redeemed within the
// holding horizon and decays linearly with the excess lead time.
func normalizeLiquidity(liquidityDays, holdingDays int, stats CatalogStats) float64 {
	if liquidityDays <= holdingDays {
		return 1.0
	}
	spread := stats.LiquidityRange()
	if spread <= 0 {
		return 0
	}
	excess := float64(liquidityDays - holdingDays)
	return math.Max(0, 1.0-excess/spread)
}

// normalizeRisk rewards the risk level each profile prefers.
func normalizeRisk(level float64, profile model.RiskProfile) float64 {
	var v float64
	switch profile {
	case model.RiskProfileConservative:
		v = 1.0 - (level-1.0)/9.0
	case model.RiskProfileModerate:
		v = 1.0 - math.Abs(5.0-level)/5.0
	default:
		v = (level - 1.0) / 9.0
	}
	return clamp01(v)
}

// normalizeVolume steps up with the invested amount.
func normalizeVolume(amount float64) float64 {
	switch {
	case amount >= 100_000:
		return 1.0
	case amount >= 50_000:
		return 0.8
	case amount >= 10_000:
		return 0.6
	case amount >= 1_000:
		return 0.4
	default:
		return 0.2
	}
}

// normalizeTurnover matches expected turnover (from the term) against the
// product's own liquidity. Short terms favor liquid products, long terms
// tolerate illiquid ones.
func normalizeTurnover(termMonths, liquidityDays int) float64 {
	switch {
	case termMonths <= 6:
		if liquidityDays <= 30 {
			return 1.0
		}
		return 0.3
	case termMonths <= 24:
		if liquidityDays <= 90 {
			return 0.8
		}
		return 0.6
	default:
		if liquidityDays >= 90 {
			return 1.0
		}
		return 0.7
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
