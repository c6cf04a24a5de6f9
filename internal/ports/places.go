package ports

import (
	"context"
	"stop-route-service/internal/domain"
)

// Autocomplete data sources. Empty lists mean "no suggestions", not failure.
type PlacesProvider interface {
	ListTowns(ctx context.Context) ([]domain.Town, error)
	ListStreets(ctx context.Context, town string) ([]domain.Street, error)
}

// Free-text town lookup for the town picker.
type TownSearcher interface {
	SearchTowns(ctx context.Context, query string) ([]string, error)
}
