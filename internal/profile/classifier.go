// Package profile classifies an investment request into a risk profile.
package profile

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/invest-sim/internal/model"
)

// Profile thresholds on the summed score. Boundary values belong to the lower profile.
const (
	ConservativeMax = 0.5
	ModerateMax     = 4.0
)

// segment is one linear piece of a breakpoint curve: values in (from, to]
// map linearly onto [lo, hi].
type segment struct {
	from, to float64
	lo, hi   float64
}

// curve is a piecewise-linear score function with flat tails.
type curve struct {
	floorAt  float64 // values <= floorAt score floor
	floor    float64
	segments []segment
	ceiling  float64 // values past the last segment
}

func (c curve) eval(v float64) float64 {
	if v <= c.floorAt {
		return c.floor
	}
	for _, s := range c.segments {
		if v <= s.to {
			return interpolate(s.lo, s.hi, v, s.from, s.to)
		}
	}
	return c.ceiling
}

var amountCurve = curve{
	floorAt: 20_000,
	floor:   -1.0,
	segments: []segment{
		{20_000, 50_000, -1.0, 0.5},
		{50_000, 100_000, 0.5, 1.5},
		{100_000, 300_000, 1.5, 2.5},
		{300_000, 1_000_000, 2.5, 3.5},
		{1_000_000, 5_000_000, 3.5, 4.5},
	},
	ceiling: 5.0,
}

var termCurve = curve{
	floorAt: 3,
	floor:   -3.0,
	segments: []segment{
		{3, 6, -3.0, -2.0},
		{6, 12, -2.0, -0.5},
		{12, 24, -0.5, 0.5},
		{24, 48, 0.5, 1.5},
		{48, 72, 1.5, 2.0},
	},
	ceiling: 2.0,
}

// interpolate maps v from [rangeLo, rangeHi] onto [lo, hi]. A degenerate range returns lo.
func interpolate(lo, hi, v, rangeLo, rangeHi float64) float64 {
	if rangeHi <= rangeLo {
		return lo
	}
	return lo + (v-rangeLo)/(rangeHi-rangeLo)*(hi-lo)
}

// AmountScore scores the invested amount on a -1.0 to +5.0 scale.
func AmountScore(amount float64) float64 {
	return amountCurve.eval(amount)
}

// TermScore scores the holding term on a -3.0 to +2.0 scale.
func TermScore(months int) float64 {
	return termCurve.eval(float64(months))
}

// Score returns the combined amount and term score.
func Score(amount decimal.Decimal, months int) float64 {
	return AmountScore(amount.InexactFloat64()) + TermScore(months)
}

// FromScore maps a combined score onto a profile.
func FromScore(score float64) model.RiskProfile {
	switch {
	case score <= ConservativeMax:
		return model.RiskProfileConservative
	case score <= ModerateMax:
		return model.RiskProfileModerate
	default:
		return model.RiskProfileAggressive
	}
}

// Classify returns the risk profile for an amount and term.
func Classify(amount decimal.Decimal, months int) model.RiskProfile {
	return FromScore(Score(amount, months))
}
