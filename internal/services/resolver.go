package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/ports"

	"go.uber.org/zap"
)

// CoordinateSource records which strategy produced a stop's coordinates.
type CoordinateSource string

const (
	SourceSuggestion CoordinateSource = "suggestion"
	SourceAddress    CoordinateSource = "address"
	SourceTown       CoordinateSource = "town"
	SourceTownList   CoordinateSource = "town-list"
	SourceNone       CoordinateSource = "none"
)

// Resolver turns a stop's town and address into coordinates, falling back
// from the full address to the town centroid and finally to the town list.
type Resolver struct {
	geocoder ports.Geocoder
	places   ports.PlacesProvider // optional
	country  string
	log      *zap.Logger
}

func NewResolver(geocoder ports.Geocoder, places ports.PlacesProvider, country string, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{geocoder: geocoder, places: places, country: country, log: log}
}

// Resolve returns coordinates and their source. A nil result with SourceNone
// means every strategy failed; that is not an error. Only context
// cancellation is returned as one.
func (r *Resolver) Resolve(ctx context.Context, town, address string, suggested *domain.Coordinates) (*domain.Coordinates, CoordinateSource, error) {
	if suggested != nil && !suggested.IsZero() {
		c := *suggested
		return &c, SourceSuggestion, nil
	}

	if r.geocoder != nil {
		c, err := r.geocoder.Geocode(ctx, r.query(SanitizeAddress(address), town))
		if ok, cerr := r.usable(ctx, "address", c, err); cerr != nil {
			return nil, SourceNone, cerr
		} else if ok {
			return &c, SourceAddress, nil
		}

		c, err = r.geocoder.GeocodeTownCentroid(ctx, town)
		if ok, cerr := r.usable(ctx, "town", c, err); cerr != nil {
			return nil, SourceNone, cerr
		} else if ok {
			return &c, SourceTown, nil
		}
	}

	if c, ok := r.fromTownList(ctx, town); ok {
		return &c, SourceTownList, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, SourceNone, err
	}

	return nil, SourceNone, nil
}

func (r *Resolver) query(address, town string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{address, town, r.country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// usable treats (0,0) as a failed lookup.
func (r *Resolver) usable(ctx context.Context, strategy string, c domain.Coordinates, err error) (bool, error) {
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return false, fmt.Errorf("resolve %s: %w", strategy, cerr)
		}
		if !errors.Is(err, ports.ErrNotFound) {
			r.log.Warn("geocoding failed", zap.String("strategy", strategy), zap.Error(err))
		}
		return false, nil
	}
	return !c.IsZero(), nil
}

func (r *Resolver) fromTownList(ctx context.Context, town string) (domain.Coordinates, bool) {
	if r.places == nil || strings.TrimSpace(town) == "" {
		return domain.Coordinates{}, false
	}

	towns, err := r.places.ListTowns(ctx)
	if err != nil {
		r.log.Warn("town list unavailable", zap.Error(err))
		return domain.Coordinates{}, false
	}

	want := FoldName(town)
	for _, t := range towns {
		if FoldName(t.Name) == want && !t.Coordinates.IsZero() {
			return t.Coordinates, true
		}
	}
	return domain.Coordinates{}, false
}
