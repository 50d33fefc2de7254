package scorer

import (
	"strings"

	"golang.org/x/text/cases"
)

// RiskTable identifies which lookup table resolved a risk label.
type RiskTable string

const (
	// RatingTable maps credit-style ratings (AAA..D) onto the 1-10 scale.
	RatingTable RiskTable = "rating"
	// AliasTable maps qualitative labels ("baixo".."muito alto") onto the 1-10 scale.
	AliasTable RiskTable = "alias"
)

// Defaults applied when a label matches nothing. The rating default is
// deliberately 6.0, not the 5.5 midpoint.
const (
	DefaultRatingLevel = 6.0
	DefaultAliasLevel  = 5.0
)

// LevelMatch is the result of resolving a risk label. Matched is false when
// the level is a table default.
type LevelMatch struct {
	Level   float64   `json:"level"`
	Matched bool      `json:"matched"`
	Table   RiskTable `json:"table"`
}

var ratingLevels = map[string]float64{
	"AAA": 1.0,
	"AA":  2.0,
	"A":   3.0,
	"BBB": 5.0,
	"BB":  6.5,
	"B":   8.0,
	"CCC": 9.5,
	"D":   10.0,
}

var aliasLevels = map[string]float64{
	"muito baixo": 1.0,
	"baixo":       3.0,
	"medio":       5.0,
	"médio":       5.0,
	"alto":        7.0,
	"muito alto":  9.0,
}

// Default returns the level used when a label is not found in t.
func (t RiskTable) Default() float64 {
	if t == RatingTable {
		return DefaultRatingLevel
	}
	return DefaultAliasLevel
}

// LookupRating resolves an exact credit rating label.
func LookupRating(label string) LevelMatch {
	if lvl, ok := ratingLevels[label]; ok {
		return LevelMatch{Level: lvl, Matched: true, Table: RatingTable}
	}
	return LevelMatch{Level: DefaultRatingLevel, Table: RatingTable}
}

// LookupAlias resolves a qualitative label after normalizing case,
// underscores and whitespace.
func LookupAlias(label string) LevelMatch {
	if lvl, ok := aliasLevels[normalizeAlias(label)]; ok {
		return LevelMatch{Level: lvl, Matched: true, Table: AliasTable}
	}
	return LevelMatch{Level: DefaultAliasLevel, Table: AliasTable}
}

// RatingLevel returns the 1-10 level for a credit rating, 6.0 when unknown.
func RatingLevel(label string) float64 {
	return LookupRating(label).Level
}

// AliasLevel returns the 1-10 level for a qualitative label, 5.0 when unknown.
func AliasLevel(label string) float64 {
	return LookupAlias(label).Level
}

// RiskLevel resolves label against both tables, rating first. When neither
// matches, the primary table's default applies.
func RiskLevel(label string, primary RiskTable) LevelMatch {
	if m := LookupRating(label); m.Matched {
		return m
	}
	if m := LookupAlias(label); m.Matched {
		return m
	}
	return LevelMatch{Level: primary.Default(), Table: primary}
}

func normalizeAlias(label string) string {
	s := strings.ReplaceAll(strings.TrimSpace(label), "_", " ")
	if s == "" {
		return ""
	}
	// Casers are stateful; one per call keeps lookups goroutine-safe.
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
