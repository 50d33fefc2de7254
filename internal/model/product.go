package model

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog entry that can be recommended to an investor.
type Product struct {
	ID                 int64           `json:"id" yaml:"id"`
	Name               string          `json:"name" yaml:"name"`
	Type               string          `json:"type" yaml:"type"`
	AnnualRate         decimal.Decimal `json:"annual_rate" yaml:"annual_rate"`       // gross annual yield, e.g. 0.12
	LiquidityDays      int             `json:"liquidity_days" yaml:"liquidity_days"` // days before penalty-free redemption
	RiskRating         string          `json:"risk_rating" yaml:"risk_rating"`       // "AAA".."D" or "baixo".."muito alto"
	Issuer             string          `json:"issuer,omitempty" yaml:"issuer"`
	CreditRating       string          `json:"credit_rating,omitempty" yaml:"credit_rating"`
	TransactionCostPct decimal.Decimal `json:"transaction_cost_pct" yaml:"transaction_cost_pct"`
	AvgDailyVolume     int64           `json:"avg_daily_volume,omitempty" yaml:"avg_daily_volume"`
	Profile            RiskProfile     `json:"profile,omitempty" yaml:"profile"` // profile the product is curated for
}

// ProductView is the validated view of the selected product returned to callers.
type ProductView struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	NetRate float64 `json:"net_rate"`
	Risk    string  `json:"risk"`
}

// ScoredProduct pairs a product with its suitability score in [0,1].
type ScoredProduct struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}
