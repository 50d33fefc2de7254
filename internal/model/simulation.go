package model

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// ErrInvalidRequest marks a request with a non-positive amount or term.
var ErrInvalidRequest = eris.New("invalid simulation request")

// InvestmentRequest is the immutable input to a simulation.
type InvestmentRequest struct {
	ClientID    string          `json:"client_id"`
	Amount      decimal.Decimal `json:"amount"`
	TermMonths  int             `json:"term_months"`
	ProductType string          `json:"product_type,omitempty"` // optional hint, matched loosely
}

// Validate rejects requests that cannot be scored.
func (r InvestmentRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return eris.Wrapf(ErrInvalidRequest, "amount must be positive, got %s", r.Amount)
	}
	if r.TermMonths <= 0 {
		return eris.Wrapf(ErrInvalidRequest, "term must be positive, got %d months", r.TermMonths)
	}
	return nil
}

// HoldingDays converts the term into the 30-day-month horizon used for tax and liquidity.
func (r InvestmentRequest) HoldingDays() int {
	return r.TermMonths * 30
}

// SimulationResult is returned to the caller once per successful simulation.
type SimulationResult struct {
	Product        ProductView     `json:"product"`
	ProjectedValue decimal.Decimal `json:"projected_value"`
	EffectiveRate  float64         `json:"effective_rate"` // gross annual rate of the product
	TermMonths     int             `json:"term_months"`
	Timestamp      time.Time       `json:"timestamp"`
	Profile        RiskProfile     `json:"profile"`
	Score          float64         `json:"score"`
}

// SimulationRecord is the write-once record handed to the persistence sink.
type SimulationRecord struct {
	ID             string          `json:"id"`
	ClientID       string          `json:"client_id"`
	ProductID      int64           `json:"product_id"`
	ProductName    string          `json:"product_name,omitempty"`
	TermMonths     int             `json:"term_months"`
	Amount         decimal.Decimal `json:"amount"`
	ProjectedValue decimal.Decimal `json:"projected_value"`
	CreatedAt      time.Time       `json:"created_at"`
	Rating         int             `json:"rating"` // round(score*100)
	Profile        RiskProfile     `json:"profile"`
}

// SimulationPage is one page of simulation history.
type SimulationPage struct {
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Total    int                `json:"total"`
	Records  []SimulationRecord `json:"records"`
}

// ProductDaySummary aggregates simulations for one product on one UTC day.
type ProductDaySummary struct {
	ProductName       string          `json:"product_name"`
	Day               string          `json:"day"` // YYYY-MM-DD
	Count             int             `json:"count"`
	AvgProjectedValue decimal.Decimal `json:"avg_projected_value"`
}

// ClientProfile is the most recent profile recorded for a client.
type ClientProfile struct {
	ClientID  string      `json:"client_id"`
	Profile   RiskProfile `json:"profile"`
	Rating    int         `json:"rating"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SimulationStats summarizes all recorded simulations.
type SimulationStats struct {
	Total     int                 `json:"total"`
	ByProfile map[RiskProfile]int `json:"by_profile"`
	AvgRating float64             `json:"avg_rating"`
}
