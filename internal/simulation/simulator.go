// Package simulation selects the best product for an investment request and
// projects its value at the end of the term.
package simulation

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/invest-sim/internal/model"
	"github.com/sells-group/invest-sim/internal/profile"
	"github.com/sells-group/invest-sim/internal/scorer"
)

// Snapshot is the catalog state a simulation runs against. Simulate never
// mutates it.
type Snapshot struct {
	Products []model.Product
	Types    []string
}

// Outcome carries everything a caller may need after a simulation.
type Outcome struct {
	Result        model.SimulationResult
	Record        model.SimulationRecord
	Breakdown     scorer.Breakdown
	TypeMatch     TypeMatch
	FilterApplied bool
	Candidates    int
}

// Simulator runs the classify, score, select and project steps. It is
// immutable after construction and safe for concurrent use.
type Simulator struct {
	engine   *scorer.Engine
	tieBreak TieBreak
	now      func() time.Time
	newID    func() string
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithTieBreak sets the tie-break rule.
func WithTieBreak(tb TieBreak) Option {
	return func(s *Simulator) { s.tieBreak = tb }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithIDSource overrides the record id generator.
func WithIDSource(newID func() string) Option {
	return func(s *Simulator) { s.newID = newID }
}

// NewSimulator creates a Simulator. A nil engine uses the default policy.
func NewSimulator(engine *scorer.Engine, opts ...Option) *Simulator {
	if engine == nil {
		engine = scorer.NewEngine(nil)
	}
	s := &Simulator{
		engine:   engine,
		tieBreak: TieBreakFirst,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the scoring engine.
func (s *Simulator) Engine() *scorer.Engine {
	return s.engine
}

// Simulate recommends a product for req and projects its final value.
func (s *Simulator) Simulate(req model.InvestmentRequest, snap Snapshot) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	riskProfile := profile.Classify(req.Amount, req.TermMonths)

	match := MatchProductType(req.ProductType, snap.Types)
	candidates, applied := FilterCandidates(snap.Products, match)
	if len(candidates) == 0 {
		return nil, eris.Wrapf(ErrNoCandidateProducts, "simulation: client %s", req.ClientID)
	}

	best, err := SelectBest(s.engine.ScoreAll(req, riskProfile, candidates), s.tieBreak)
	if err != nil {
		return nil, eris.Wrapf(err, "simulation: client %s", req.ClientID)
	}
	breakdown := s.engine.Breakdown(best.Product, req, riskProfile, scorer.NewCatalogStats(candidates))

	chosen := best.Product
	projected := ProjectValue(req.Amount, chosen.AnnualRate, req.TermMonths)
	now := s.now().UTC()

	result := model.SimulationResult{
		Product: model.ProductView{
			ID:      chosen.ID,
			Name:    chosen.Name,
			Type:    chosen.Type,
			NetRate: breakdown.NetRate,
			Risk:    chosen.RiskRating,
		},
		ProjectedValue: projected,
		EffectiveRate:  chosen.AnnualRate.InexactFloat64(),
		TermMonths:     req.TermMonths,
		Timestamp:      now,
		Profile:        riskProfile,
		Score:          best.Score,
	}

	record := model.SimulationRecord{
		ID:             s.newID(),
		ClientID:       req.ClientID,
		ProductID:      chosen.ID,
		ProductName:    chosen.Name,
		TermMonths:     req.TermMonths,
		Amount:         req.Amount,
		ProjectedValue: projected,
		CreatedAt:      now,
		Rating:         int(math.Round(best.Score * 100)),
		Profile:        riskProfile,
	}

	return &Outcome{
		Result:        result,
		Record:        record,
		Breakdown:     breakdown,
		TypeMatch:     match,
		FilterApplied: applied,
		Candidates:    len(candidates),
	}, nil
}
