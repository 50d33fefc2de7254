package scorer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/invest-sim/internal/model"
)

func TestTaxRate(t *testing.T) {
	tests := []struct {
		name        string
		productType string
		days        int
		want        float64
	}{
		{"LCI exempt", "LCI", 30, 0},
		{"lca lowercase exempt", "lca", 900, 0},
		{"FII exempt", "FII", 360, 0},
		{"equity accented", "Ações", 30, 0.15},
		{"equity upper accented", "AÇÕES", 30, 0.15},
		{"equity plain", "acao", 1000, 0.15},
		{"equity ACOES", "ACOES", 1000, 0.15},
		{"CDB 90 days", "CDB", 90, 0.225},
		{"CDB 180 days", "CDB", 180, 0.225},
		{"CDB 181 days", "CDB", 181, 0.20},
		{"CDB 360 days", "CDB", 360, 0.20},
		{"Tesouro 720 days", "Tesouro Direto", 720, 0.175},
		{"Tesouro 721 days", "Tesouro Direto", 721, 0.15},
		{"untyped", "", 30, 0.225},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TaxRate(tt.productType, tt.days), 0.0001)
		})
	}
}

func TestNetRate(t *testing.T) {
	cdb := model.Product{Type: "CDB", AnnualRate: decimal.RequireFromString("0.12")}
	assert.InDelta(t, 0.096, NetRate(cdb, 12), 0.0001)
	assert.InDelta(t, 0.102, NetRate(cdb, 36), 0.0001)

	lci := model.Product{Type: "LCI", AnnualRate: decimal.RequireFromString("0.09")}
	assert.InDelta(t, 0.09, NetRate(lci, 6), 0.0001)
}
