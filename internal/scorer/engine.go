// Package scorer scores investment products against an investor's risk profile.
package scorer

import (
	"github.com/sells-group/invest-sim/internal/model"
)

// Engine scores products with a configured policy. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	policy Policy
}

// NewEngine creates an Engine. A nil policy selects WeightedPolicy.
func NewEngine(policy Policy) *Engine {
	if policy == nil {
		policy = WeightedPolicy{}
	}
	return &Engine{policy: policy}
}

// Policy returns the engine's scoring policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Breakdown scores p against precomputed catalog stats.
func (e *Engine) Breakdown(p model.Product, req model.InvestmentRequest, profile model.RiskProfile, stats CatalogStats) Breakdown {
	return e.policy.Score(Input{
		Product: p,
		Request: req,
		Profile: profile,
		Stats:   stats,
	})
}

// ScoreAll scores every candidate, normalizing against the whole candidate
// set and preserving catalog order.
func (e *Engine) ScoreAll(req model.InvestmentRequest, profile model.RiskProfile, candidates []model.Product) []model.ScoredProduct {
	stats := NewCatalogStats(candidates)
	scored := make([]model.ScoredProduct, 0, len(candidates))
	for _, p := range candidates {
		scored = append(scored, model.ScoredProduct{
			Product: p,
			Score:   e.Breakdown(p, req, profile, stats).Total,
		})
	}
	return scored
}
