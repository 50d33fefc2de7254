package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invest-sim/internal/config"
)

func TestDefaultScorerConfigIsValid(t *testing.T) {
	cfg := DefaultScorerConfig()
	assert.Equal(t, PolicyWeighted, cfg.Policy)
	assert.Equal(t, TieBreakFirst, cfg.TieBreak)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ScorerConfig
		wantErr bool
	}{
		{"weighted first", config.ScorerConfig{Policy: "weighted", TieBreak: "first"}, false},
		{"type bonus lowest id", config.ScorerConfig{Policy: "type_bonus", TieBreak: "lowest_id"}, false},
		{"empty uses defaults", config.ScorerConfig{}, false},
		{"unknown policy", config.ScorerConfig{Policy: "random"}, true},
		{"unknown tie break", config.ScorerConfig{Policy: "weighted", TieBreak: "last"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateWeights(t *testing.T) {
	assert.NoError(t, ValidateWeights(Weights{Return: 0.5, Liquidity: 0.5}))

	err := ValidateWeights(Weights{Return: -0.1, Risk: 0.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "return weight must be >= 0")

	err = ValidateWeights(Weights{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight sum must be > 0")
}

func TestNewEngineFromConfig(t *testing.T) {
	e, err := NewEngineFromConfig(config.ScorerConfig{Policy: "type_bonus"})
	require.NoError(t, err)
	assert.Equal(t, PolicyTypeBonus, e.Policy().Name())

	_, err = NewEngineFromConfig(config.ScorerConfig{Policy: "bogus"})
	assert.Error(t, err)
}
