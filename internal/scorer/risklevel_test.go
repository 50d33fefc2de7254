package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatingLevel(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"AAA", 1.0},
		{"AA", 2.0},
		{"A", 3.0},
		{"BBB", 5.0},
		{"BB", 6.5},
		{"B", 8.0},
		{"CCC", 9.5},
		{"D", 10.0},
		{"", 6.0},
		{"aaa", 6.0},
		{"C", 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.InDelta(t, tt.want, RatingLevel(tt.label), 0.0001)
		})
	}
}

func TestAliasLevel(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"muito baixo", 1.0},
		{"MUITO_BAIXO", 1.0},
		{"  Muito   Baixo ", 1.0},
		{"baixo", 3.0},
		{"médio", 5.0},
		{"MÉDIO", 5.0},
		{"medio", 5.0},
		{"alto", 7.0},
		{"Muito Alto", 9.0},
		{"muito_alto", 9.0},
		{"", 5.0},
		{"   ", 5.0},
		{"extremo", 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.InDelta(t, tt.want, AliasLevel(tt.label), 0.0001)
		})
	}
}

func TestLookupReportsMatch(t *testing.T) {
	m := LookupRating("BBB")
	assert.True(t, m.Matched)
	assert.Equal(t, RatingTable, m.Table)

	m = LookupRating("unknown")
	assert.False(t, m.Matched)
	assert.InDelta(t, DefaultRatingLevel, m.Level, 0.0001)

	m = LookupAlias("Alto")
	assert.True(t, m.Matched)
	assert.Equal(t, AliasTable, m.Table)

	m = LookupAlias("unknown")
	assert.False(t, m.Matched)
	assert.InDelta(t, DefaultAliasLevel, m.Level, 0.0001)
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		name        string
		label       string
		primary     RiskTable
		wantLevel   float64
		wantMatched bool
		wantTable   RiskTable
	}{
		{"rating under alias primary", "AA", AliasTable, 2.0, true, RatingTable},
		{"alias under rating primary", "baixo", RatingTable, 3.0, true, AliasTable},
		{"unknown falls to alias default", "???", AliasTable, 5.0, false, AliasTable},
		{"unknown falls to rating default", "???", RatingTable, 6.0, false, RatingTable},
		{"empty label", "", RatingTable, 6.0, false, RatingTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RiskLevel(tt.label, tt.primary)
			assert.InDelta(t, tt.wantLevel, got.Level, 0.0001)
			assert.Equal(t, tt.wantMatched, got.Matched)
			assert.Equal(t, tt.wantTable, got.Table)
		})
	}
}
