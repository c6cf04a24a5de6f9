package cache

import (
	"context"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/ports"

	"go.uber.org/zap"
)

// CachedLegRouter wraps a LegRouter with a LegCache keyed by coordinates
// rounded to 6 decimals. Failures are never cached.
type CachedLegRouter struct {
	inner ports.LegRouter
	cache ports.LegCache
	log   *zap.Logger
}

func NewCachedLegRouter(inner ports.LegRouter, cache ports.LegCache, log *zap.Logger) *CachedLegRouter {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedLegRouter{inner: inner, cache: cache, log: log}
}

func (r *CachedLegRouter) ComputeLeg(ctx context.Context, from, to domain.Coordinates) (domain.LegResult, error) {
	origin, dest := LegKey(from), LegKey(to)

	leg, ok, err := r.cache.Get(ctx, origin, dest)
	if err != nil {
		r.log.Warn("leg cache read failed", zap.String("origin", origin), zap.String("destination", dest), zap.Error(err))
	} else if ok {
		return leg, nil
	}

	leg, err = r.inner.ComputeLeg(ctx, from, to)
	if err != nil {
		return domain.LegResult{}, err
	}

	if err := r.cache.Put(ctx, origin, dest, leg); err != nil {
		r.log.Warn("leg cache write failed", zap.String("origin", origin), zap.String("destination", dest), zap.Error(err))
	}
	return leg, nil
}
