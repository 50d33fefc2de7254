package simulation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProjectValue(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		months    int
		want      string
	}{
		{"one year at 10%", "10000", "0.10", 12, "11000.00"},
		{"two years at 10%", "10000", "0.10", 24, "12100.00"},
		{"half year at 10%", "10000", "0.10", 6, "10488.09"},
		{"eighteen months at 10%", "10000", "0.10", 18, "11536.90"},
		{"zero rate", "2500.50", "0", 36, "2500.50"},
		{"one year at 12%", "10000", "0.12", 12, "11200.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectValue(decimal.RequireFromString(tt.principal), decimal.RequireFromString(tt.rate), tt.months)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestProjectValueRoundsToCents(t *testing.T) {
	got := ProjectValue(decimal.RequireFromString("1000"), decimal.RequireFromString("0.0731"), 7)
	assert.Equal(t, int32(-2), got.Exponent())
}
