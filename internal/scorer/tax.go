package scorer

import (
	"strings"

	"github.com/sells-group/invest-sim/internal/model"
)

// Flat withholding rate for equity-like products.
const equityTaxRate = 0.15

var taxExemptTypes = []string{"LCI", "LCA", "FII"}

var equityTypes = []string{"Ações", "ACAO", "Acoes"}

// regressive brackets by days held; the last bracket has no upper bound.
var taxBrackets = []struct {
	maxDays int
	rate    float64
}{
	{180, 0.225},
	{360, 0.20},
	{720, 0.175},
}

const longTermTaxRate = 0.15

// TaxRate returns the implicit withholding rate for a product type held for days.
func TaxRate(productType string, days int) float64 {
	t := strings.TrimSpace(productType)
	if matchesAny(t, taxExemptTypes) {
		return 0
	}
	if matchesAny(t, equityTypes) {
		return equityTaxRate
	}
	for _, b := range taxBrackets {
		if days <= b.maxDays {
			return b.rate
		}
	}
	return longTermTaxRate
}

// NetRate returns the product's gross annual rate after withholding.
func NetRate(p model.Product, termMonths int) float64 {
	gross := p.AnnualRate.InexactFloat64()
	return gross * (1 - TaxRate(p.Type, termMonths*30))
}

func matchesAny(s string, candidates []string) bool {
	for _, c := range candidates {
		if strings.EqualFold(s, c) {
			return true
		}
	}
	return false
}
