// Package catalog serves the product catalog to simulations through a
// two-level cache in front of the store.
package catalog

import (
	"context"
	"slices"
	"time"

	"github.com/sells-group/invest-sim/internal/model"
)

// Provider supplies candidate products and the distinct product types.
type Provider interface {
	Products(ctx context.Context) ([]model.Product, error)
	Types(ctx context.Context) ([]string, error)
}

// Source is the authoritative catalog, normally a store.Store.
type Source interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	DistinctProductTypes(ctx context.Context) ([]string, error)
}

// Snapshot is a point-in-time copy of the catalog.
type Snapshot struct {
	Products []model.Product `json:"products"`
	Types    []string        `json:"types"`
	LoadedAt time.Time       `json:"loaded_at"`
}

// Clone returns a deep copy so cached snapshots cannot be mutated by callers.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		Products: slices.Clone(s.Products),
		Types:    slices.Clone(s.Types),
		LoadedAt: s.LoadedAt,
	}
}
