package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invest-sim/internal/model"
)

// columnAliases maps normalized header names, English or Portuguese, to
// seed fields.
var columnAliases = map[string]string{
	"id":                   "id",
	"codigo":               "id",
	"name":                 "name",
	"nome":                 "name",
	"produto":              "name",
	"type":                 "type",
	"tipo":                 "type",
	"annual_rate":          "annual_rate",
	"rate":                 "annual_rate",
	"taxa":                 "annual_rate",
	"rentabilidade":        "annual_rate",
	"liquidity_days":       "liquidity_days",
	"liquidity":            "liquidity_days",
	"liquidez":             "liquidity_days",
	"liquidez_dias":        "liquidity_days",
	"risk_rating":          "risk_rating",
	"risk":                 "risk_rating",
	"risco":                "risk_rating",
	"issuer":               "issuer",
	"emissor":              "issuer",
	"credit_rating":        "credit_rating",
	"rating":               "credit_rating",
	"transaction_cost_pct": "transaction_cost_pct",
	"custo":                "transaction_cost_pct",
	"avg_daily_volume":     "avg_daily_volume",
	"volume":               "avg_daily_volume",
	"profile":              "profile",
	"perfil":               "profile",
}

// ParseTable converts spreadsheet rows into products. The first row is
// the header; unknown columns are ignored. Numbers may use a decimal comma.
func ParseTable(rows [][]string) ([]model.Product, error) {
	if len(rows) == 0 {
		return nil, eris.New("catalog: table has no header row")
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		if field, ok := columnAliases[normalizeHeader(h)]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	for _, required := range []string{"id", "name", "type", "annual_rate"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("catalog: table is missing column %q", required)
		}
	}

	var errs []string
	products := make([]model.Product, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		cell := func(field string) string {
			idx, ok := cols[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		sp := seedProduct{
			Name:               cell("name"),
			Type:               cell("type"),
			AnnualRate:         normalizeNumber(cell("annual_rate")),
			RiskRating:         cell("risk_rating"),
			Issuer:             cell("issuer"),
			CreditRating:       cell("credit_rating"),
			TransactionCostPct: normalizeNumber(cell("transaction_cost_pct")),
			Profile:            cell("profile"),
		}

		var rowErrs []string
		intCell := func(field string) int64 {
			raw := normalizeNumber(cell(field))
			if raw == "" {
				return 0
			}
			n, err := strconv.ParseInt(strings.TrimSuffix(raw, ".0"), 10, 64)
			if err != nil {
				rowErrs = append(rowErrs, fmt.Sprintf("%s %q is not an integer", field, cell(field)))
			}
			return n
		}
		sp.ID = intCell("id")
		sp.LiquidityDays = int(intCell("liquidity_days"))
		sp.AvgDailyVolume = intCell("avg_daily_volume")

		p, problems := sp.toProduct()
		for _, msg := range append(rowErrs, problems...) {
			errs = append(errs, fmt.Sprintf("row %d: %s", line, msg))
		}
		products = append(products, p)
	}
	if len(errs) > 0 {
		return nil, eris.Errorf("catalog: invalid products: %s", strings.Join(errs, "; "))
	}
	return products, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.NewReplacer(" ", "_", "-", "_", "(", "", ")", "", "%", "pct").Replace(h)
	return h
}

// normalizeNumber turns "1.234,56" and "0,12" into "1234.56" and "0.12".
// Plain "0.12" and "1,234.56" keep their meaning.
func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}
