package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/ports"
)

type fakeGeocoder struct {
	mu        sync.Mutex
	addresses map[string]domain.Coordinates
	towns     map[string]domain.Coordinates
	calls     []string
	onCall    func(n int)
}

func (f *fakeGeocoder) Geocode(_ context.Context, q string) (domain.Coordinates, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	n := len(f.calls)
	hook := f.onCall
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if c, ok := f.addresses[q]; ok {
		return c, nil
	}
	return domain.Coordinates{}, ports.ErrNotFound
}

func (f *fakeGeocoder) GeocodeTownCentroid(_ context.Context, town string) (domain.Coordinates, error) {
	if c, ok := f.towns[town]; ok {
		return c, nil
	}
	return domain.Coordinates{}, ports.ErrNotFound
}

type fakePlaces struct {
	towns []domain.Town
	err   error
}

func (f fakePlaces) ListTowns(context.Context) ([]domain.Town, error) { return f.towns, f.err }

func (f fakePlaces) ListStreets(context.Context, string) ([]domain.Street, error) { return nil, nil }

// fakeLegRouter returns the straight-line distance times factor, failing for
// destinations listed in fail.
type fakeLegRouter struct {
	factor float64
	fail   map[domain.Coordinates]bool
	calls  [][2]domain.Coordinates
}

func (f *fakeLegRouter) ComputeLeg(_ context.Context, from, to domain.Coordinates) (domain.LegResult, error) {
	f.calls = append(f.calls, [2]domain.Coordinates{from, to})
	if f.fail[to] {
		return domain.LegResult{}, fmt.Errorf("leg to %s: %w", to.Key(), ports.ErrNoRoute)
	}
	km := domain.HaversineKm(from, to) * f.factor
	return domain.LegResult{DistanceKm: km, DurationMin: km}, nil
}

type fakeRouteProvider struct {
	got []domain.Coordinates
	err error
}

func (f *fakeRouteProvider) ComputeRoute(_ context.Context, wps []domain.Coordinates) (domain.RouteResult, error) {
	f.got = wps
	if f.err != nil {
		return domain.RouteResult{}, f.err
	}
	return domain.RouteResult{DistanceKm: 12.5, DurationMin: 20}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []ports.RouteEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, evt ports.RouteEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return f.err
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

// seqRand replays fixed values, then repeats the last one.
type seqRand struct {
	vals []float64
	i    int
}

func (s *seqRand) Float64() float64 {
	if len(s.vals) == 0 {
		return 0.25
	}
	v := s.vals[min(s.i, len(s.vals)-1)]
	s.i++
	return v
}

var errBoom = errors.New("boom")

func coords(lon, lat float64) *domain.Coordinates {
	return &domain.Coordinates{Lon: lon, Lat: lat}
}

func km(v float64) *float64 { return &v }
