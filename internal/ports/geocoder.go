package ports

import (
	"context"
	"errors"
	"stop-route-service/internal/domain"
)

// ErrNotFound is returned by collaborators when a lookup has no answer.
var ErrNotFound = errors.New("not found")

// Contract for resolving free text to coordinates.
// Implementations must be side-effect free from the caller's perspective.
type Geocoder interface {
	// Resolve a full address. Returns ErrNotFound when nothing matches.
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
	// Resolve a town to its centroid. Used when address geocoding fails.
	GeocodeTownCentroid(ctx context.Context, town string) (domain.Coordinates, error)
}
