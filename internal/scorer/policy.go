package scorer

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/invest-sim/internal/model"
)

// Policy names accepted by PolicyByName and the scorer.policy setting.
const (
	PolicyWeighted  = "weighted"
	PolicyTypeBonus = "type_bonus"
)

// Weights are the per-component multipliers of a scoring policy. They are
// not required to sum to 1.0; the combined score is clamped instead.
type Weights struct {
	Return    float64 `json:"return"`
	Liquidity float64 `json:"liquidity"`
	Risk      float64 `json:"risk"`
	Volume    float64 `json:"volume"`
	Turnover  float64 `json:"turnover"`
}

// Sum returns the total of all component weights.
func (w Weights) Sum() float64 {
	return w.Return + w.Liquidity + w.Risk + w.Volume + w.Turnover
}

// Input is everything a policy needs to score one product.
type Input struct {
	Product model.Product
	Request model.InvestmentRequest
	Profile model.RiskProfile
	Stats   CatalogStats
}

// Breakdown exposes the normalized components behind a score.
type Breakdown struct {
	NetRate   float64    `json:"net_rate"`
	RiskLevel LevelMatch `json:"risk_level"`
	Return    float64    `json:"return"`
	Liquidity float64    `json:"liquidity"`
	Risk      float64    `json:"risk"`
	Volume    float64    `json:"volume"`
	Turnover  float64    `json:"turnover"`
	Bonus     float64    `json:"bonus"`
	Total     float64    `json:"total"`
}

// Policy is a scoring strategy. Implementations must be stateless.
type Policy interface {
	Name() string
	Weights(profile model.RiskProfile) Weights
	Score(in Input) Breakdown
}

// PolicyByName returns the policy registered under name.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", PolicyWeighted:
		return WeightedPolicy{}, nil
	case PolicyTypeBonus:
		return TypeBonusPolicy{}, nil
	default:
		return nil, eris.Errorf("scorer: unknown policy %q", name)
	}
}

// baseComponents fills the components shared by every policy.
func baseComponents(in Input, riskTable RiskTable) Breakdown {
	holdingDays := in.Request.HoldingDays()
	b := Breakdown{
		NetRate:   NetRate(in.Product, in.Request.TermMonths),
		RiskLevel: RiskLevel(in.Product.RiskRating, riskTable),
	}
	b.Return = normalizeReturn(b.NetRate, in.Stats)
	b.Liquidity = normalizeLiquidity(in.Product.LiquidityDays, holdingDays, in.Stats)
	b.Risk = normalizeRisk(b.RiskLevel.Level, in.Profile)
	return b
}
