package cache

import (
	"context"
	"fmt"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const townKeyPrefix = "town:"

// CachedGeocoder wraps a Geocoder with a GeocodeCache.
//
// Concurrent misses for the same key share one upstream call, which is not
// cancelled when the caller that started it goes away. Only successful
// lookups are stored; not-found answers are retried next time. Cache read and
// write failures are logged and bypassed.
type CachedGeocoder struct {
	inner ports.Geocoder
	cache ports.GeocodeCache
	log   *zap.Logger
	group singleflight.Group
}

func NewCachedGeocoder(inner ports.Geocoder, cache ports.GeocodeCache, log *zap.Logger) *CachedGeocoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedGeocoder{inner: inner, cache: cache, log: log}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, query string) (domain.Coordinates, error) {
	return g.lookup(ctx, NormalizeKey(query), func(ctx context.Context) (domain.Coordinates, error) {
		return g.inner.Geocode(ctx, query)
	})
}

func (g *CachedGeocoder) GeocodeTownCentroid(ctx context.Context, town string) (domain.Coordinates, error) {
	return g.lookup(ctx, townKeyPrefix+NormalizeKey(town), func(ctx context.Context) (domain.Coordinates, error) {
		return g.inner.GeocodeTownCentroid(ctx, town)
	})
}

func (g *CachedGeocoder) lookup(
	ctx context.Context,
	key string,
	fetch func(context.Context) (domain.Coordinates, error),
) (domain.Coordinates, error) {
	if key == "" || key == townKeyPrefix {
		return domain.Coordinates{}, ports.ErrNotFound
	}

	hits, err := g.cache.GetMany(ctx, []string{key})
	if err != nil {
		g.log.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
	} else if c, ok := hits[key]; ok {
		return c, nil
	}

	// The shared lookup outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := g.group.DoChan(key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		c, err := fetch(fctx)
		if err != nil {
			return domain.Coordinates{}, err
		}
		if !c.IsZero() {
			if err := g.cache.PutMany(fctx, map[string]domain.Coordinates{key: c}); err != nil {
				g.log.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return c, nil
	})

	select {
	case <-ctx.Done():
		return domain.Coordinates{}, fmt.Errorf("cached geocode: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.Coordinates{}, fmt.Errorf("cached geocode: %w", res.Err)
		}
		return res.Val.(domain.Coordinates), nil
	}
}
