package simulation

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/invest-sim/internal/catalog"
	"github.com/sells-group/invest-sim/internal/model"
)

// Sink persists simulation records and answers history lookups.
type Sink interface {
	SaveSimulation(ctx context.Context, rec *model.SimulationRecord) error
	LatestClientProfile(ctx context.Context, clientID string) (*model.ClientProfile, error)
	ListProductsByProfile(ctx context.Context, profile model.RiskProfile) ([]model.Product, error)
}

// Observer receives simulation measurements. monitoring.Metrics implements it.
type Observer interface {
	ObserveSimulation(profile model.RiskProfile, policy string, d time.Duration)
	ObserveTypeFallback()
}

type nopObserver struct{}

func (nopObserver) ObserveSimulation(model.RiskProfile, string, time.Duration) {}
func (nopObserver) ObserveTypeFallback()                                       {}

// Service runs simulations against the catalog and records them.
type Service struct {
	provider  catalog.Provider
	sink      Sink
	simulator *Simulator
	observer  Observer
}

// NewService creates a Service. A nil observer discards measurements.
func NewService(provider catalog.Provider, sink Sink, simulator *Simulator, observer Observer) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		provider:  provider,
		sink:      sink,
		simulator: simulator,
		observer:  observer,
	}
}

// Run simulates req and persists the resulting record. A simulation that
// cannot be recorded is reported as failed.
func (s *Service) Run(ctx context.Context, req model.InvestmentRequest) (*model.SimulationResult, error) {
	start := time.Now()

	out, err := s.Preview(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.sink.SaveSimulation(ctx, &out.Record); err != nil {
		return nil, eris.Wrapf(err, "simulation: save record for client %s", req.ClientID)
	}

	s.observer.ObserveSimulation(out.Result.Profile, s.simulator.Engine().Policy().Name(), time.Since(start))
	zap.L().Info("simulation recorded",
		zap.String("id", out.Record.ID),
		zap.String("client_id", req.ClientID),
		zap.Int64("product_id", out.Result.Product.ID),
		zap.String("profile", string(out.Result.Profile)),
		zap.Float64("score", out.Result.Score),
		zap.String("projected_value", out.Result.ProjectedValue.StringFixed(2)),
	)

	return &out.Result, nil
}

// Preview simulates req without persisting anything.
func (s *Service) Preview(ctx context.Context, req model.InvestmentRequest) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out, err := s.simulator.Simulate(req, snap)
	if err != nil {
		return nil, err
	}

	if req.ProductType != "" && !out.FilterApplied {
		s.observer.ObserveTypeFallback()
		zap.L().Warn("product type hint ignored, scoring full catalog",
			zap.String("client_id", req.ClientID),
			zap.String("hint", req.ProductType),
			zap.Bool("label_matched", out.TypeMatch.Matched),
			zap.String("label", out.TypeMatch.Label),
		)
	}

	return out, nil
}

// ClientProfile returns the latest recorded profile for clientID, or nil.
func (s *Service) ClientProfile(ctx context.Context, clientID string) (*model.ClientProfile, error) {
	cp, err := s.sink.LatestClientProfile(ctx, clientID)
	if err != nil {
		return nil, eris.Wrapf(err, "simulation: profile for client %s", clientID)
	}
	return cp, nil
}

// Recommended lists the products curated for a profile.
func (s *Service) Recommended(ctx context.Context, p model.RiskProfile) ([]model.Product, error) {
	products, err := s.sink.ListProductsByProfile(ctx, p)
	if err != nil {
		return nil, eris.Wrapf(err, "simulation: recommended products for %s", p)
	}
	return products, nil
}

// snapshotProvider hands out products and types read together, so a catalog
// refresh cannot land between the two. catalog.CachedProvider implements it.
type snapshotProvider interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

func (s *Service) snapshot(ctx context.Context) (Snapshot, error) {
	if sp, ok := s.provider.(snapshotProvider); ok {
		snap, err := sp.Snapshot(ctx)
		if err != nil {
			return Snapshot{}, eris.Wrap(err, "simulation: load catalog")
		}
		return Snapshot{Products: snap.Products, Types: snap.Types}, nil
	}

	products, err := s.provider.Products(ctx)
	if err != nil {
		return Snapshot{}, eris.Wrap(err, "simulation: load products")
	}
	types, err := s.provider.Types(ctx)
	if err != nil {
		return Snapshot{}, eris.Wrap(err, "simulation: load product types")
	}
	return Snapshot{Products: products, Types: types}, nil
}
