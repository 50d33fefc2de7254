package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invest-sim/internal/model"
)

// ErrInvalidInput marks rows rejected before they reach the database.
var ErrInvalidInput = eris.New("store: invalid input")

func invalidf(format string, args ...any) error {
	return eris.Wrapf(ErrInvalidInput, format, args...)
}

// DefaultPageSize is used when a SimulationFilter leaves PageSize unset.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// dayLayout is the storage format for UTC calendar days.
const dayLayout = "2006-01-02"

// SimulationFilter selects a page of simulation history. Page is 1-based.
type SimulationFilter struct {
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`
}

// normalize fills defaults and clamps the page size.
func (f SimulationFilter) normalize() SimulationFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

func (f SimulationFilter) offset() int {
	return (f.Page - 1) * f.PageSize
}

// Store defines the persistence interface for the catalog, simulation
// history and request telemetry.
type Store interface {
	// Catalog
	UpsertProducts(ctx context.Context, products []model.Product) (int, error)
	// PruneProducts deletes every product whose id is not in keep and
	// returns how many were removed. An empty keep is rejected.
	PruneProducts(ctx context.Context, keep []int64) (int, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	DistinctProductTypes(ctx context.Context) ([]string, error)
	ListProductsByProfile(ctx context.Context, profile model.RiskProfile) ([]model.Product, error)

	// Simulations
	SaveSimulation(ctx context.Context, rec *model.SimulationRecord) error
	ListSimulations(ctx context.Context, filter SimulationFilter) (*model.SimulationPage, error)
	ListSimulationsByClient(ctx context.Context, clientID string) ([]model.SimulationRecord, error)
	LatestClientProfile(ctx context.Context, clientID string) (*model.ClientProfile, error)
	ProductDailySummary(ctx context.Context) ([]model.ProductDaySummary, error)
	SimulationStats(ctx context.Context) (*model.SimulationStats, error)

	// Telemetry
	SaveTelemetry(ctx context.Context, day time.Time, stats []model.EndpointStat) error
	ListTelemetry(ctx context.Context, from, to time.Time) ([]model.EndpointStat, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// validateProducts rejects products that cannot be keyed.
func validateProducts(products []model.Product) error {
	for i, p := range products {
		if p.ID <= 0 {
			return invalidf("product %d (%q) has non-positive id %d", i, p.Name, p.ID)
		}
	}
	return nil
}

func validateKeep(keep []int64) error {
	if len(keep) == 0 {
		return invalidf("refusing to prune the whole catalog")
	}
	return nil
}

func validateRecord(rec *model.SimulationRecord) error {
	switch {
	case rec == nil:
		return invalidf("nil simulation record")
	case rec.ID == "":
		return invalidf("simulation record has no id")
	case rec.ClientID == "":
		return invalidf("simulation record %s has no client id", rec.ID)
	}
	return nil
}

// dayString formats t as a UTC calendar day.
func dayString(t time.Time) string {
	return t.UTC().Format(dayLayout)
}
