package simulation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invest-sim/internal/model"
)

func TestMatchProductType(t *testing.T) {
	types := []string{"CDB", "LCI", "Tesouro Direto", "FII"}
	tests := []struct {
		name      string
		hint      string
		wantLabel string
		wantMatch bool
	}{
		{"exact", "CDB", "CDB", true},
		{"case insensitive", "lci", "LCI", true},
		{"hint contains label", "CDB pré-fixado", "CDB", true},
		{"label contains hint", "tesouro", "Tesouro Direto", true},
		{"no match", "Debênture", "", false},
		{"empty hint", "", "", false},
		{"blank hint", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchProductType(tt.hint, types)
			assert.Equal(t, tt.wantMatch, got.Matched)
			assert.Equal(t, tt.wantLabel, got.Label)
		})
	}
}

func TestMatchProductTypeFirstLabelWins(t *testing.T) {
	got := MatchProductType("fundo", []string{"Fundo Multimercado", "Fundo DI"})
	assert.Equal(t, "Fundo Multimercado", got.Label)
}

func TestFilterCandidates(t *testing.T) {
	catalog := []model.Product{
		{ID: 1, Type: "CDB"},
		{ID: 2, Type: "lci"},
		{ID: 3, Type: "CDB"},
	}

	filtered, applied := FilterCandidates(catalog, TypeMatch{Label: "CDB", Matched: true})
	assert.True(t, applied)
	require.Len(t, filtered, 2)
	assert.Equal(t, int64(1), filtered[0].ID)
	assert.Equal(t, int64(3), filtered[1].ID)

	filtered, applied = FilterCandidates(catalog, TypeMatch{Label: "LCI", Matched: true})
	assert.True(t, applied)
	assert.Len(t, filtered, 1)

	filtered, applied = FilterCandidates(catalog, TypeMatch{Label: "FII", Matched: true})
	assert.False(t, applied)
	assert.Len(t, filtered, 3)

	filtered, applied = FilterCandidates(catalog, TypeMatch{})
	assert.False(t, applied)
	assert.Len(t, filtered, 3)
}

func TestSelectBest(t *testing.T) {
	scored := []model.ScoredProduct{
		{Product: model.Product{ID: 7}, Score: 0.4},
		{Product: model.Product{ID: 5}, Score: 0.9},
		{Product: model.Product{ID: 2}, Score: 0.9},
		{Product: model.Product{ID: 9}, Score: 0.1},
	}

	best, err := SelectBest(scored, TieBreakFirst)
	require.NoError(t, err)
	assert.Equal(t, int64(5), best.Product.ID)

	best, err = SelectBest(scored, TieBreakLowestID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), best.Product.ID)
}

func TestSelectBestEmpty(t *testing.T) {
	_, err := SelectBest(nil, TieBreakFirst)
	assert.True(t, errors.Is(err, ErrNoCandidateProducts))
}

func TestParseTieBreak(t *testing.T) {
	tb, err := ParseTieBreak("")
	require.NoError(t, err)
	assert.Equal(t, TieBreakFirst, tb)

	tb, err = ParseTieBreak("lowest_id")
	require.NoError(t, err)
	assert.Equal(t, TieBreakLowestID, tb)

	_, err = ParseTieBreak("random")
	assert.Error(t, err)
}
