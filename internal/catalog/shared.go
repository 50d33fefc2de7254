package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/invest-sim/internal/resilience"
)

// SnapshotCache is a second-level cache shared between processes. Get
// returns nil, nil on a miss.
type SnapshotCache interface {
	Get(ctx context.Context) (*Snapshot, error)
	Set(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context) error
}

// RedisClient is the subset of *redis.Client the snapshot cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSnapshotCache stores the catalog as JSON under a single key. Calls
// go through a circuit breaker so an unavailable Redis costs nothing.
type RedisSnapshotCache struct {
	client  RedisClient
	key     string
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewRedisSnapshotCache creates a RedisSnapshotCache.
func NewRedisSnapshotCache(client RedisClient, key string, ttl time.Duration) *RedisSnapshotCache {
	if key == "" {
		key = "invest:catalog"
	}
	return &RedisSnapshotCache{
		client:  client,
		key:     key,
		ttl:     ttl,
		breaker: resilience.NewBreaker("redis-catalog", 3, 30*time.Second),
	}
}

// Get implements SnapshotCache.
func (r *RedisSnapshotCache) Get(ctx context.Context) (*Snapshot, error) {
	var data []byte
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		b, err := r.client.Get(ctx, r.key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		data = b
		return err
	})
	if err != nil {
		return nil, eris.Wrap(err, "catalog: redis get")
	}
	if data == nil {
		return nil, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, eris.Wrap(err, "catalog: decode cached snapshot")
	}
	return &snap, nil
}

// Set implements SnapshotCache.
func (r *RedisSnapshotCache) Set(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return eris.Wrap(err, "catalog: encode snapshot")
	}
	err = r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, r.key, data, r.ttl).Err()
	})
	return eris.Wrap(err, "catalog: redis set")
}

// Delete implements SnapshotCache.
func (r *RedisSnapshotCache) Delete(ctx context.Context) error {
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.client.Del(ctx, r.key).Err()
	})
	return eris.Wrap(err, "catalog: redis del")
}

// MemorySnapshotCache is an in-process SnapshotCache with an absolute TTL.
type MemorySnapshotCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	snap    *Snapshot
	expires time.Time
}

// NewMemorySnapshotCache creates a MemorySnapshotCache. Zero ttl never expires.
func NewMemorySnapshotCache(ttl time.Duration) *MemorySnapshotCache {
	return &MemorySnapshotCache{ttl: ttl, now: time.Now}
}

// Get implements SnapshotCache.
func (m *MemorySnapshotCache) Get(_ context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, nil
	}
	if m.ttl > 0 && !m.now().Before(m.expires) {
		m.snap = nil
		return nil, nil
	}
	return m.snap.Clone(), nil
}

// Set implements SnapshotCache.
func (m *MemorySnapshotCache) Set(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
	m.expires = m.now().Add(m.ttl)
	return nil
}

// Delete implements SnapshotCache.
func (m *MemorySnapshotCache) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = nil
	return nil
}
