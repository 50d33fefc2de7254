package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invest-sim/internal/model"
	"github.com/sells-group/invest-sim/internal/resilience"
)

type fakeRedis struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	failing bool
	calls   int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.calls++
	if f.failing {
		return redis.NewStringResult("", errors.New("dial tcp: i/o timeout"))
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.calls++
	if f.failing {
		return redis.NewStatusResult("", errors.New("dial tcp: i/o timeout"))
	}
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.calls++
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisSnapshotCache_RoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	cache := NewRedisSnapshotCache(rdb, "test:catalog", time.Minute)
	ctx := context.Background()

	miss, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, miss)

	loaded := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Set(ctx, &Snapshot{
		Products: []model.Product{{ID: 1, Name: "CDB", Type: "CDB", AnnualRate: decimal.RequireFromString("0.1250")}},
		Types:    []string{"CDB"},
		LoadedAt: loaded,
	}))
	assert.Equal(t, time.Minute, rdb.ttls["test:catalog"])

	got, err := cache.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Products, 1)
	assert.True(t, got.Products[0].AnnualRate.Equal(decimal.RequireFromString("0.125")))
	assert.Equal(t, []string{"CDB"}, got.Types)
	assert.True(t, got.LoadedAt.Equal(loaded))

	require.NoError(t, cache.Delete(ctx))
	miss, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestRedisSnapshotCache_DefaultKey(t *testing.T) {
	cache := NewRedisSnapshotCache(newFakeRedis(), "", 0)
	assert.Equal(t, "invest:catalog", cache.key)
}

func TestRedisSnapshotCache_BreakerOpens(t *testing.T) {
	rdb := newFakeRedis()
	rdb.failing = true
	cache := NewRedisSnapshotCache(rdb, "k", time.Minute)
	ctx := context.Background()

	for range 3 {
		_, err := cache.Get(ctx)
		require.Error(t, err)
	}
	callsBefore := rdb.calls

	_, err := cache.Get(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrBreakerOpen)
	assert.Equal(t, callsBefore, rdb.calls)
}

func TestRedisSnapshotCache_CorruptPayload(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data["k"] = []byte("{not json")
	cache := NewRedisSnapshotCache(rdb, "k", time.Minute)

	_, err := cache.Get(context.Background())
	assert.Error(t, err)
}

func TestMemorySnapshotCache(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemorySnapshotCache(time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, &Snapshot{Types: []string{"CDB"}}))
	got, err := m.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	got.Types[0] = "mutated"

	again, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CDB", again.Types[0])

	now = now.Add(time.Minute)
	expired, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, expired)
}
