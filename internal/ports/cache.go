package ports

import (
	"context"
	"stop-route-service/internal/domain"
)

// Keyed store for geocoding answers. Entries expire after the TTL the
// implementation was built with; expired entries behave as misses.
type GeocodeCache interface {
	GetMany(ctx context.Context, keys []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, entries map[string]domain.Coordinates) error
}

// Keyed store for per-leg routing answers.
type LegCache interface {
	Get(ctx context.Context, origin, destination string) (domain.LegResult, bool, error)
	Put(ctx context.Context, origin, destination string, leg domain.LegResult) error
}
