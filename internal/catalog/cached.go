package catalog

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/invest-sim/internal/model"
	"github.com/sells-group/invest-sim/internal/resilience"
)

// DefaultTTL is how long an unread snapshot stays cached.
const DefaultTTL = 5 * time.Minute

// Stats counts cache traffic.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Loads  int64 `json:"loads"`
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// CachedProvider keeps the catalog in memory with expire-after-access
// semantics. Concurrent misses share a single load.
type CachedProvider struct {
	src    Source
	shared SnapshotCache
	ttl    time.Duration
	retry  resilience.RetryConfig
	now    func() time.Time

	mu         sync.Mutex
	snap       *Snapshot
	lastAccess time.Time
	// generation is bumped by Invalidate; loads started under an older
	// generation never populate either cache level.
	generation uint64

	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
	loads  atomic.Int64
}

// CachedOption configures a CachedProvider.
type CachedOption func(*CachedProvider)

// WithTTL sets the idle expiry. Zero or negative disables caching.
func WithTTL(ttl time.Duration) CachedOption {
	return func(c *CachedProvider) { c.ttl = ttl }
}

// WithSharedCache adds a second-level cache consulted before the source.
func WithSharedCache(sc SnapshotCache) CachedOption {
	return func(c *CachedProvider) { c.shared = sc }
}

// WithRetry sets the retry policy for source loads.
func WithRetry(cfg resilience.RetryConfig) CachedOption {
	return func(c *CachedProvider) { c.retry = cfg }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CachedOption {
	return func(c *CachedProvider) { c.now = now }
}

// NewCachedProvider creates a CachedProvider reading from src.
func NewCachedProvider(src Source, opts ...CachedOption) *CachedProvider {
	c := &CachedProvider{
		src:   src,
		ttl:   DefaultTTL,
		retry: resilience.DefaultRetryConfig(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("catalog", "load")
	}
	return c
}

// Products implements Provider.
func (c *CachedProvider) Products(ctx context.Context) ([]model.Product, error) {
	snap, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.Products), nil
}

// Types implements Provider.
func (c *CachedProvider) Types(ctx context.Context) ([]string, error) {
	snap, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.Types), nil
}

// Snapshot returns a copy of the whole cached catalog.
func (c *CachedProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Clone(), nil
}

// Stats returns the cache counters.
func (c *CachedProvider) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Loads:  c.loads.Load(),
	}
}

// Invalidate drops the in-memory snapshot and the shared copy. Call it
// after the catalog changes.
func (c *CachedProvider) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.snap = nil
	c.generation++
	c.mu.Unlock()

	if c.shared != nil {
		if err := c.shared.Delete(ctx); err != nil {
			zap.L().Warn("catalog: shared cache delete failed", zap.Error(err))
		}
	}
}

func (c *CachedProvider) get(ctx context.Context) (*Snapshot, error) {
	snap, gen := c.cached()
	if snap != nil {
		c.hits.Add(1)
		return snap, nil
	}
	c.misses.Add(1)

	// Keyed by generation so callers arriving after Invalidate do not join
	// a load that began before it.
	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		return c.load(ctx, gen)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// cached returns the live snapshot, or nil on a miss, together with the
// current generation.
func (c *CachedProvider) cached() (*Snapshot, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap == nil || c.ttl <= 0 {
		return nil, c.generation
	}
	now := c.now()
	if now.Sub(c.lastAccess) >= c.ttl {
		c.snap = nil
		return nil, c.generation
	}
	c.lastAccess = now
	return c.snap, c.generation
}

func (c *CachedProvider) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen
}

func (c *CachedProvider) load(ctx context.Context, gen uint64) (*Snapshot, error) {
	if c.shared != nil {
		snap, err := c.shared.Get(ctx)
		if err != nil {
			zap.L().Warn("catalog: shared cache read failed", zap.Error(err))
		} else if snap != nil {
			c.store(snap, gen)
			return snap, nil
		}
	}

	snap, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.loads.Add(1)
	if !c.store(snap, gen) {
		zap.L().Debug("catalog: discarding load started before invalidation")
		return snap, nil
	}

	if c.shared != nil {
		if err := c.shared.Set(ctx, snap); err != nil {
			zap.L().Warn("catalog: shared cache write failed", zap.Error(err))
		}
		// Invalidate may have run between store and Set.
		if !c.current(gen) {
			if err := c.shared.Delete(ctx); err != nil {
				zap.L().Warn("catalog: shared cache delete failed", zap.Error(err))
			}
		}
	}

	zap.L().Debug("catalog loaded",
		zap.Int("products", len(snap.Products)),
		zap.Int("types", len(snap.Types)),
	)
	return snap, nil
}

func (c *CachedProvider) fetch(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{LoadedAt: c.now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := resilience.DoVal(gctx, c.retry, c.src.ListProducts)
		if err != nil {
			return eris.Wrap(err, "catalog: list products")
		}
		snap.Products = products
		return nil
	})
	g.Go(func() error {
		types, err := resilience.DoVal(gctx, c.retry, c.src.DistinctProductTypes)
		if err != nil {
			return eris.Wrap(err, "catalog: list product types")
		}
		snap.Types = types
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// store caches snap unless the generation moved on since the load began.
// It reports whether the generation is still current.
func (c *CachedProvider) store(snap *Snapshot, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	if c.ttl > 0 {
		c.snap = snap
		c.lastAccess = c.now()
	}
	return true
}
