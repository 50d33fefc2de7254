package scorer

import (
	"strings"

	"github.com/sells-group/invest-sim/internal/model"
)

// typeMatchBonus is added when the product type equals the requested type.
const typeMatchBonus = 0.10

// TypeBonusPolicy is the earlier scoring revision: return, liquidity and
// risk only, plus a flat bonus for an exact type match. Risk labels resolve
// through the credit rating table.
type TypeBonusPolicy struct{}

// Name implements Policy.
func (TypeBonusPolicy) Name() string { return PolicyTypeBonus }

// Weights implements Policy.
func (TypeBonusPolicy) Weights(profile model.RiskProfile) Weights {
	switch profile {
	case model.RiskProfileConservative:
		return Weights{Return: 0.15, Liquidity: 0.45, Risk: 0.25}
	case model.RiskProfileModerate:
		return Weights{Return: 0.30, Liquidity: 0.25, Risk: 0.25}
	default:
		return Weights{Return: 0.40, Liquidity: 0.10, Risk: 0.20}
	}
}

// Score implements Policy.
func (p TypeBonusPolicy) Score(in Input) Breakdown {
	b := baseComponents(in, RatingTable)

	hint := strings.TrimSpace(in.Request.ProductType)
	if hint != "" && strings.EqualFold(in.Product.Type, hint) {
		b.Bonus = typeMatchBonus
	}

	w := p.Weights(in.Profile)
	b.Total = clamp01(w.Return*b.Return +
		w.Liquidity*b.Liquidity +
		w.Risk*b.Risk +
		b.Bonus)
	return b
}
