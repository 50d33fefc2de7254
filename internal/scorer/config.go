package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invest-sim/internal/config"
	"github.com/sells-group/invest-sim/internal/model"
)

// Tie-break rules accepted by the scorer.tie_break setting.
const (
	TieBreakFirst    = "first"
	TieBreakLowestID = "lowest_id"
)

// DefaultScorerConfig returns a config.ScorerConfig with sensible defaults.
func DefaultScorerConfig() config.ScorerConfig {
	return config.ScorerConfig{
		Policy:   PolicyWeighted,
		TieBreak: TieBreakFirst,
	}
}

// ValidateWeights rejects negative component weights.
func ValidateWeights(w Weights) error {
	var errs []string
	weights := []struct {
		name  string
		value float64
	}{
		{"return", w.Return},
		{"liquidity", w.Liquidity},
		{"risk", w.Risk},
		{"volume", w.Volume},
		{"turnover", w.Turnover},
	}
	for _, c := range weights {
		if c.value < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", c.name))
		}
	}
	if w.Sum() <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}
	if len(errs) > 0 {
		return eris.Errorf("scorer: invalid weights: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateConfig checks that a ScorerConfig names a known policy and
// tie-break rule, and that the policy's weights are usable for every profile.
func ValidateConfig(c config.ScorerConfig) error {
	policy, err := PolicyByName(c.Policy)
	if err != nil {
		return eris.Wrap(err, "scorer: config validation failed")
	}
	switch c.TieBreak {
	case "", TieBreakFirst, TieBreakLowestID:
	default:
		return eris.Errorf("scorer: config validation failed: unknown tie_break %q", c.TieBreak)
	}
	for _, p := range model.RiskProfiles {
		if err := ValidateWeights(policy.Weights(p)); err != nil {
			return eris.Wrapf(err, "scorer: weights for %s", p)
		}
	}
	return nil
}

// NewEngineFromConfig builds an Engine for the configured policy.
func NewEngineFromConfig(c config.ScorerConfig) (*Engine, error) {
	if err := ValidateConfig(c); err != nil {
		return nil, err
	}
	policy, _ := PolicyByName(c.Policy)
	return NewEngine(policy), nil
}
