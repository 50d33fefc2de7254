package simulation

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invest-sim/internal/model"
	"github.com/sells-group/invest-sim/internal/scorer"
)

// TieBreak decides which product wins when scores are equal.
type TieBreak string

const (
	// TieBreakFirst keeps the first product encountered in catalog order.
	TieBreakFirst TieBreak = scorer.TieBreakFirst
	// TieBreakLowestID keeps the product with the smallest id.
	TieBreakLowestID TieBreak = scorer.TieBreakLowestID
)

// ParseTieBreak resolves a configured tie-break name. Empty selects TieBreakFirst.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(s) {
	case "", TieBreakFirst:
		return TieBreakFirst, nil
	case TieBreakLowestID:
		return TieBreakLowestID, nil
	default:
		return "", eris.Errorf("simulation: unknown tie break %q", s)
	}
}

// TypeMatch is the outcome of resolving a product-type hint against the
// catalog's labels.
type TypeMatch struct {
	Label   string `json:"label,omitempty"`
	Matched bool   `json:"matched"`
}

// MatchProductType returns the first catalog label that contains the hint or
// is contained by it, ignoring case. A blank hint never matches.
func MatchProductType(hint string, types []string) TypeMatch {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return TypeMatch{}
	}
	for _, label := range types {
		l := strings.ToLower(strings.TrimSpace(label))
		if l == "" {
			continue
		}
		if strings.Contains(h, l) || strings.Contains(l, h) {
			return TypeMatch{Label: label, Matched: true}
		}
	}
	return TypeMatch{}
}

// FilterCandidates keeps the products whose type equals the matched label.
// When nothing matched, or the filter would leave no products, the full list
// is returned and applied is false.
func FilterCandidates(products []model.Product, match TypeMatch) (filtered []model.Product, applied bool) {
	if !match.Matched {
		return products, false
	}
	for _, p := range products {
		if strings.EqualFold(p.Type, match.Label) {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return products, false
	}
	return filtered, true
}

// SelectBest returns the highest-scoring product.
func SelectBest(scored []model.ScoredProduct, tieBreak TieBreak) (model.ScoredProduct, error) {
	if len(scored) == 0 {
		return model.ScoredProduct{}, ErrNoCandidateProducts
	}
	best := scored[0]
	for _, s := range scored[1:] {
		switch {
		case s.Score > best.Score:
			best = s
		case s.Score == best.Score && tieBreak == TieBreakLowestID && s.Product.ID < best.Product.ID:
			best = s
		}
	}
	return best, nil
}
