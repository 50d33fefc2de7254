package catalog

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/invest-sim/internal/fetcher"
	"github.com/sells-group/invest-sim/internal/model"
)

// ProductSink receives imported products, normally a store.Store.
type ProductSink interface {
	UpsertProducts(ctx context.Context, products []model.Product) (int, error)
	PruneProducts(ctx context.Context, keep []int64) (int, error)
}

// ConditionalFetcher can skip downloads whose content has not changed.
// *fetcher.HTTPFetcher implements it.
type ConditionalFetcher interface {
	DownloadIfChanged(ctx context.Context, location, etag string) (io.ReadCloser, string, bool, error)
}

// Invalidator drops cached catalog snapshots.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Syncer periodically imports a remote catalog into the store and
// invalidates the cache when it changed. HTTP sources are polled with
// If-None-Match; other sources are compared by content digest. The source
// is authoritative: products it no longer lists are removed from the store.
type Syncer struct {
	location    string
	fetcher     fetcher.Fetcher
	conditional ConditionalFetcher
	sink        ProductSink
	cache       Invalidator
	interval    time.Duration

	mu     sync.Mutex
	etag   string
	digest [sha256.Size]byte
}

// NewSyncer creates a Syncer. cond may be nil; cache may be nil.
func NewSyncer(location string, f fetcher.Fetcher, cond ConditionalFetcher, sink ProductSink, cache Invalidator, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if !isHTTP(location) {
		cond = nil
	}
	return &Syncer{
		location:    location,
		fetcher:     f,
		conditional: cond,
		sink:        sink,
		cache:       cache,
		interval:    interval,
	}
}

func isHTTP(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Run syncs immediately and then on every interval until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "catalog.syncer"), zap.String("location", s.location))
	log.Info("starting catalog sync", zap.Duration("interval", s.interval))

	s.runOnce(ctx, log)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("catalog sync stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx, log)
		}
	}
}

func (s *Syncer) runOnce(ctx context.Context, log *zap.Logger) {
	n, changed, err := s.Sync(ctx)
	switch {
	case err != nil:
		log.Error("catalog sync failed", zap.Error(err))
	case changed:
		log.Info("catalog synced", zap.Int("products", n))
	default:
		log.Debug("catalog unchanged")
	}
}

// Sync performs one import. It reports the number of upserted products and
// whether the source had changed since the last successful sync.
func (s *Syncer) Sync(ctx context.Context) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, etag, changed, err := s.download(ctx)
	if err != nil || !changed {
		return 0, false, err
	}

	digest := sha256.Sum256(data)
	if digest == s.digest {
		s.etag = etag
		return 0, false, nil
	}

	products, err := Decode(ctx, bytes.NewReader(data), FormatFor(s.location))
	if err != nil {
		return 0, false, eris.Wrapf(err, "catalog: sync %s", s.location)
	}
	if len(products) == 0 {
		return 0, false, eris.Errorf("catalog: sync %s listed no products", s.location)
	}
	n, err := s.sink.UpsertProducts(ctx, products)
	if err != nil {
		return 0, false, eris.Wrap(err, "catalog: sync upsert")
	}
	keep := make([]int64, len(products))
	for i, p := range products {
		keep[i] = p.ID
	}
	removed, err := s.sink.PruneProducts(ctx, keep)
	if err != nil {
		return 0, false, eris.Wrap(err, "catalog: sync prune")
	}
	if removed > 0 {
		zap.L().Info("catalog: removed delisted products",
			zap.String("location", s.location),
			zap.Int("removed", removed),
		)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.etag = etag
	s.digest = digest
	return n, true, nil
}

func (s *Syncer) download(ctx context.Context) ([]byte, string, bool, error) {
	var (
		body io.ReadCloser
		etag string
		err  error
	)
	if s.conditional != nil {
		var changed bool
		body, etag, changed, err = s.conditional.DownloadIfChanged(ctx, s.location, s.etag)
		if err != nil {
			return nil, "", false, eris.Wrapf(err, "catalog: sync fetch %s", s.location)
		}
		if !changed {
			return nil, etag, false, nil
		}
	} else {
		body, err = s.fetcher.Download(ctx, s.location)
		if err != nil {
			return nil, "", false, eris.Wrapf(err, "catalog: sync fetch %s", s.location)
		}
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", false, eris.Wrap(err, "catalog: sync read")
	}
	return data, etag, true, nil
}
