package simulation

import (
	"math"

	"github.com/shopspring/decimal"
)

var monthsPerYear = decimal.NewFromInt(12)

// ProjectValue compounds principal annually at annualRate over termMonths,
// allowing fractional years. The result is rounded half-up to cents.
func ProjectValue(principal, annualRate decimal.Decimal, termMonths int) decimal.Decimal {
	years := decimal.NewFromInt(int64(termMonths)).DivRound(monthsPerYear, 10)
	factor := math.Pow(1+annualRate.InexactFloat64(), years.InexactFloat64())
	return principal.Mul(decimal.NewFromFloat(factor)).Round(2)
}
