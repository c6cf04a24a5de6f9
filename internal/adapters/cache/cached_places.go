package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/ports"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"
)

const townsKey = "towns"

// CachedPlaces keeps the town list and per-town street lists in memory for
// a fixed TTL. Street lists are keyed by the lowercased town name.
type CachedPlaces struct {
	inner ports.PlacesProvider
	c     gcache.Cache
	group singleflight.Group
}

func NewCachedPlaces(inner ports.PlacesProvider, size int, ttl time.Duration) *CachedPlaces {
	if size <= 0 {
		size = 512
	}
	b := gcache.New(size).LRU()
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	return &CachedPlaces{inner: inner, c: b.Build()}
}

func (p *CachedPlaces) ListTowns(ctx context.Context) ([]domain.Town, error) {
	v, err := p.load(townsKey, func() (any, error) {
		return p.inner.ListTowns(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Town), nil
}

func (p *CachedPlaces) ListStreets(ctx context.Context, town string) ([]domain.Street, error) {
	key := "streets:" + strings.ToLower(strings.TrimSpace(town))
	v, err := p.load(key, func() (any, error) {
		return p.inner.ListStreets(ctx, town)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Street), nil
}

func (p *CachedPlaces) load(key string, fetch func() (any, error)) (any, error) {
	if v, err := p.c.Get(key); err == nil {
		return v, nil
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		return nil, err
	}

	v, err, _ := p.group.Do(key, func() (any, error) {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		_ = p.c.Set(key, v)
		return v, nil
	})
	return v, err
}
