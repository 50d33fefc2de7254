package catalog

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/invest-sim/internal/model"
)

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	ID                 int64  `yaml:"id"`
	Name               string `yaml:"name"`
	Type               string `yaml:"type"`
	AnnualRate         string `yaml:"annual_rate"`
	LiquidityDays      int    `yaml:"liquidity_days"`
	RiskRating         string `yaml:"risk_rating"`
	Issuer             string `yaml:"issuer"`
	CreditRating       string `yaml:"credit_rating"`
	TransactionCostPct string `yaml:"transaction_cost_pct"`
	AvgDailyVolume     int64  `yaml:"avg_daily_volume"`
	Profile            string `yaml:"profile"`
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) ([]model.Product, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "catalog: parse yaml")
	}

	var errs []string
	products := make([]model.Product, 0, len(f.Products))
	for i, sp := range f.Products {
		p, problems := sp.toProduct()
		for _, msg := range problems {
			errs = append(errs, fmt.Sprintf("products[%d]: %s", i, msg))
		}
		products = append(products, p)
	}
	if len(errs) > 0 {
		return nil, eris.Errorf("catalog: invalid products: %s", strings.Join(errs, "; "))
	}
	return products, nil
}

func (sp seedProduct) toProduct() (model.Product, []string) {
	var problems []string
	p := model.Product{
		ID:             sp.ID,
		Name:           strings.TrimSpace(sp.Name),
		Type:           strings.TrimSpace(sp.Type),
		LiquidityDays:  sp.LiquidityDays,
		RiskRating:     strings.TrimSpace(sp.RiskRating),
		Issuer:         strings.TrimSpace(sp.Issuer),
		CreditRating:   strings.TrimSpace(sp.CreditRating),
		AvgDailyVolume: sp.AvgDailyVolume,
	}

	if p.ID <= 0 {
		problems = append(problems, "id must be positive")
	}
	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if p.Type == "" {
		problems = append(problems, "type is required")
	}
	if p.LiquidityDays < 0 {
		problems = append(problems, "liquidity_days must be >= 0")
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(sp.AnnualRate))
	switch {
	case err != nil:
		problems = append(problems, fmt.Sprintf("annual_rate %q is not a number", sp.AnnualRate))
	case rate.IsNegative():
		problems = append(problems, "annual_rate must be >= 0")
	}
	p.AnnualRate = rate

	if c := strings.TrimSpace(sp.TransactionCostPct); c != "" {
		cost, err := decimal.NewFromString(c)
		if err != nil {
			problems = append(problems, fmt.Sprintf("transaction_cost_pct %q is not a number", c))
		}
		p.TransactionCostPct = cost
	}

	if sp.Profile != "" {
		rp, err := model.ParseRiskProfile(sp.Profile)
		if err != nil {
			problems = append(problems, fmt.Sprintf("profile %q is unknown", sp.Profile))
		}
		p.Profile = rp
	}

	return p, problems
}
