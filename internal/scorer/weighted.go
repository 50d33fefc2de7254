package scorer

import (
	"github.com/sells-group/invest-sim/internal/model"
)

// Side weights applied regardless of profile.
const (
	volumeWeight   = 0.10
	turnoverWeight = 0.10
)

// WeightedPolicy combines return, liquidity and risk with volume and turnover
// preference factors. Qualitative risk labels resolve through the alias table.
type WeightedPolicy struct{}

// Name implements Policy.
func (WeightedPolicy) Name() string { return PolicyWeighted }

// Weights implements Policy.
func (WeightedPolicy) Weights(profile model.RiskProfile) Weights {
	w := Weights{Volume: volumeWeight, Turnover: turnoverWeight}
	switch profile {
	case model.RiskProfileConservative:
		w.Return, w.Liquidity, w.Risk = 0.12, 0.36, 0.32
	case model.RiskProfileModerate:
		w.Return, w.Liquidity, w.Risk = 0.24, 0.20, 0.36
	default:
		w.Return, w.Liquidity, w.Risk = 0.32, 0.08, 0.40
	}
	return w
}

// Score implements Policy.
func (p WeightedPolicy) Score(in Input) Breakdown {
	b := baseComponents(in, AliasTable)
	b.Volume = normalizeVolume(in.Request.Amount.InexactFloat64())
	b.Turnover = normalizeTurnover(in.Request.TermMonths, in.Product.LiquidityDays)

	w := p.Weights(in.Profile)
	b.Total = clamp01(w.Return*b.Return +
		w.Liquidity*b.Liquidity +
		w.Risk*b.Risk +
		w.Volume*b.Volume +
		w.Turnover*b.Turnover)
	return b
}
