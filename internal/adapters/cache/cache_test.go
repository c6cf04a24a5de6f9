package cache

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"stop-route-service/internal/adapters/repositories"
	"stop-route-service/internal/domain"
	"stop-route-service/internal/platform/db"
	"stop-route-service/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	senta  = domain.Coordinates{Lon: 20.0777, Lat: 45.9275}
	kanjiz = domain.Coordinates{Lon: 20.0597, Lat: 46.0697}
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(conn, repositories.SQLite))
	return conn
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "main 1, senta", NormalizeKey("  Main   1,\tSenta "))
	assert.Equal(t, "", NormalizeKey("   "))
}

func TestLegKey_RoundsToSixDecimals(t *testing.T) {
	a := LegKey(domain.Coordinates{Lon: 20.05970001, Lat: 46.0697})
	b := LegKey(domain.Coordinates{Lon: 20.0597, Lat: 46.06970004})
	assert.Equal(t, "20.059700,46.069700", a)
	assert.Equal(t, a, b)
}

func TestMemoryGeocodeCache_RoundTrip(t *testing.T) {
	c := NewMemoryGeocodeCache(10, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{"senta": senta}))

	got, err := c.GetMany(ctx, []string{"senta", "senta", "missing", " "})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{"senta": senta}, got)
}

func TestRedisGeocodeCache_RoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewRedisGeocodeCache(rdb, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{"senta": senta, "kanjiza": kanjiz}))

	got, err := c.GetMany(ctx, []string{"senta", "missing", "kanjiza"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{"senta": senta, "kanjiza": kanjiz}, got)

	mr.FastForward(2 * time.Minute)

	got, err = c.GetMany(ctx, []string{"senta"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisGeocodeCache_SkipsMalformedEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, mr.Set(redisGeocodePrefix+"broken", "not json"))

	c := NewRedisGeocodeCache(rdb, 0, zaptest.NewLogger(t))
	got, err := c.GetMany(context.Background(), []string{"broken"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSqliteGeocodeCache_RoundTripAndTTL(t *testing.T) {
	conn := openSQLite(t)
	c := NewSqliteGeocodeCache(conn, time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{"senta": senta}))

	got, err := c.GetMany(ctx, []string{"senta", "other"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{"senta": senta}, got)

	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	got, err = c.GetMany(ctx, []string{"senta"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSqliteGeocodeCache_RejectsEmptyKey(t *testing.T) {
	c := NewSqliteGeocodeCache(openSQLite(t), 0, nil)
	err := c.PutMany(context.Background(), map[string]domain.Coordinates{"  ": senta})
	assert.Error(t, err)
}

func TestSqliteLegCache_RoundTripAndTTL(t *testing.T) {
	c := NewSqliteLegCache(openSQLite(t), time.Hour)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	_, ok, err := c.Get(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)

	leg := domain.LegResult{DistanceKm: 16.2, DurationMin: 14.5}
	require.NoError(t, c.Put(ctx, "a", "b", leg))
	require.NoError(t, c.Put(ctx, "a", "b", leg))

	got, ok, err := c.Get(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, leg, got)

	_, ok, err = c.Get(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, ok, "legs are directional")

	c.now = func() time.Time { return base.Add(90 * time.Minute) }
	_, ok, err = c.Get(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSqliteLegCache_RejectsEmptyKeys(t *testing.T) {
	c := NewSqliteLegCache(openSQLite(t), 0)
	assert.Error(t, c.Put(context.Background(), "", "b", domain.LegResult{}))
	_, _, err := c.Get(context.Background(), "a", "")
	assert.Error(t, err)
}

type countingGeocoder struct {
	mu    sync.Mutex
	calls int
	out   map[string]domain.Coordinates
}

func (g *countingGeocoder) lookup(q string) (domain.Coordinates, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if c, ok := g.out[q]; ok {
		return c, nil
	}
	return domain.Coordinates{}, ports.ErrNotFound
}

func (g *countingGeocoder) Geocode(_ context.Context, q string) (domain.Coordinates, error) {
	return g.lookup(q)
}

func (g *countingGeocoder) GeocodeTownCentroid(_ context.Context, town string) (domain.Coordinates, error) {
	return g.lookup("town=" + town)
}

type failingGeocodeCache struct{}

func (failingGeocodeCache) GetMany(context.Context, []string) (map[string]domain.Coordinates, error) {
	return nil, errors.New("cache down")
}

func (failingGeocodeCache) PutMany(context.Context, map[string]domain.Coordinates) error {
	return errors.New("cache down")
}

func TestCachedGeocoder_HitsCacheOnSecondCall(t *testing.T) {
	inner := &countingGeocoder{out: map[string]domain.Coordinates{"Main 1, Senta": senta}}
	g := NewCachedGeocoder(inner, NewMemoryGeocodeCache(10, 0), zaptest.NewLogger(t))
	ctx := context.Background()

	c, err := g.Geocode(ctx, "Main 1, Senta")
	require.NoError(t, err)
	assert.Equal(t, senta, c)

	c, err = g.Geocode(ctx, "  main 1,   SENTA ")
	require.NoError(t, err)
	assert.Equal(t, senta, c)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_DoesNotCacheNotFound(t *testing.T) {
	inner := &countingGeocoder{}
	g := NewCachedGeocoder(inner, NewMemoryGeocodeCache(10, 0), zaptest.NewLogger(t))

	for range 2 {
		_, err := g.Geocode(context.Background(), "Nowhere 9")
		assert.ErrorIs(t, err, ports.ErrNotFound)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_TownKeysAreSeparate(t *testing.T) {
	inner := &countingGeocoder{out: map[string]domain.Coordinates{
		"Senta":      {Lon: 1, Lat: 1},
		"town=Senta": senta,
	}}
	cache := NewMemoryGeocodeCache(10, 0)
	g := NewCachedGeocoder(inner, cache, zaptest.NewLogger(t))
	ctx := context.Background()

	c, err := g.GeocodeTownCentroid(ctx, "Senta")
	require.NoError(t, err)
	assert.Equal(t, senta, c)

	c, err = g.Geocode(ctx, "Senta")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lon: 1, Lat: 1}, c)

	got, err := cache.GetMany(ctx, []string{"town:senta", "senta"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCachedGeocoder_BypassesBrokenCache(t *testing.T) {
	inner := &countingGeocoder{out: map[string]domain.Coordinates{"Main 1": senta}}
	g := NewCachedGeocoder(inner, failingGeocodeCache{}, zaptest.NewLogger(t))

	c, err := g.Geocode(context.Background(), "Main 1")
	require.NoError(t, err)
	assert.Equal(t, senta, c)
}

func TestCachedGeocoder_EmptyQuery(t *testing.T) {
	inner := &countingGeocoder{}
	g := NewCachedGeocoder(inner, NewMemoryGeocodeCache(10, 0), nil)

	_, err := g.Geocode(context.Background(), "   ")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.Zero(t, inner.calls)
}

type countingLegRouter struct {
	calls int
	err   error
}

func (r *countingLegRouter) ComputeLeg(_ context.Context, from, to domain.Coordinates) (domain.LegResult, error) {
	r.calls++
	if r.err != nil {
		return domain.LegResult{}, r.err
	}
	return domain.LegResult{DistanceKm: domain.HaversineKm(from, to), DurationMin: 1}, nil
}

func TestCachedLegRouter(t *testing.T) {
	inner := &countingLegRouter{}
	r := NewCachedLegRouter(inner, NewSqliteLegCache(openSQLite(t), 0), zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := r.ComputeLeg(ctx, kanjiz, senta)
	require.NoError(t, err)
	second, err := r.ComputeLeg(ctx, kanjiz, senta)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)

	_, err = r.ComputeLeg(ctx, senta, kanjiz)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedLegRouter_DoesNotCacheFailures(t *testing.T) {
	inner := &countingLegRouter{err: ports.ErrNoRoute}
	r := NewCachedLegRouter(inner, NewSqliteLegCache(openSQLite(t), 0), zaptest.NewLogger(t))

	for range 2 {
		_, err := r.ComputeLeg(context.Background(), kanjiz, senta)
		assert.ErrorIs(t, err, ports.ErrNoRoute)
	}
	assert.Equal(t, 2, inner.calls)
}

type countingPlaces struct {
	towns, streets int
}

func (p *countingPlaces) ListTowns(context.Context) ([]domain.Town, error) {
	p.towns++
	return []domain.Town{{Name: "Senta", Coordinates: senta}}, nil
}

func (p *countingPlaces) ListStreets(_ context.Context, town string) ([]domain.Street, error) {
	p.streets++
	return []domain.Street{{Address: "Main 1, " + town}}, nil
}

func TestCachedPlaces(t *testing.T) {
	inner := &countingPlaces{}
	p := NewCachedPlaces(inner, 0, time.Hour)
	ctx := context.Background()

	for range 3 {
		towns, err := p.ListTowns(ctx)
		require.NoError(t, err)
		assert.Len(t, towns, 1)
	}
	assert.Equal(t, 1, inner.towns)

	_, err := p.ListStreets(ctx, "Senta")
	require.NoError(t, err)
	_, err = p.ListStreets(ctx, " senta ")
	require.NoError(t, err)
	_, err = p.ListStreets(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.streets)
}

type blockingGeocoder struct {
	countingGeocoder
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *blockingGeocoder) Geocode(ctx context.Context, q string) (domain.Coordinates, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return g.lookup(q)
	case <-ctx.Done():
		return domain.Coordinates{}, ctx.Err()
	}
}

func TestCachedGeocoder_CancelledCallerDoesNotFailOthers(t *testing.T) {
	inner := &blockingGeocoder{
		countingGeocoder: countingGeocoder{out: map[string]domain.Coordinates{"Main 1": senta}},
		started:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	g := NewCachedGeocoder(inner, NewMemoryGeocodeCache(10, 0), zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := g.Geocode(ctx, "Main 1")
		firstErr <- err
	}()

	<-inner.started
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	type result struct {
		c   domain.Coordinates
		err error
	}
	second := make(chan result, 1)
	go func() {
		c, err := g.Geocode(context.Background(), "Main 1")
		second <- result{c, err}
	}()

	close(inner.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, senta, res.c)
	assert.Equal(t, 1, inner.calls)
}
