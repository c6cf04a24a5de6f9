package ports

import (
	"context"
	"errors"
	"stop-route-service/internal/domain"
)

// ErrNoRoute means the routing engine found no drivable route. It is distinct
// from a zero-length route and must never be reported as distance 0.
var ErrNoRoute = errors.New("no route")

// Contract for single-leg travel metrics.
type LegRouter interface {
	ComputeLeg(ctx context.Context, from, to domain.Coordinates) (domain.LegResult, error)
}

// Contract for whole-route totals and path geometry.
type RouteProvider interface {
	ComputeRoute(ctx context.Context, waypoints []domain.Coordinates) (domain.RouteResult, error)
}
