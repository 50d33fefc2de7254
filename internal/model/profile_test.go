package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRiskProfile(t *testing.T) {
	tests := []struct {
		in   string
		want RiskProfile
	}{
		{"CONSERVATIVE", RiskProfileConservative},
		{"moderate", RiskProfileModerate},
		{" Aggressive ", RiskProfileAggressive},
		{"conservador", RiskProfileConservative},
		{"MODERADO", RiskProfileModerate},
		{"agressivo", RiskProfileAggressive},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRiskProfile(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRiskProfile_Unknown(t *testing.T) {
	_, err := ParseRiskProfile("yolo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown risk profile")
}

func TestRiskProfile_Valid(t *testing.T) {
	for _, p := range RiskProfiles {
		assert.True(t, p.Valid(), p)
		assert.NotEmpty(t, p.Description())
	}
	assert.False(t, RiskProfile("RECKLESS").Valid())
	assert.Empty(t, RiskProfile("RECKLESS").Description())
}
