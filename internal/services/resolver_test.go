package services

import (
	"context"
	"testing"

	"stop-route-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Strategies(t *testing.T) {
	geo := &fakeGeocoder{
		addresses: map[string]domain.Coordinates{
			"Glavna 5, Senta, Serbia": {Lon: 20.08, Lat: 45.93},
			"Nula 1, Ada, Serbia":     {},
		},
		towns: map[string]domain.Coordinates{
			"Ada": {Lon: 20.13, Lat: 45.80},
		},
	}
	places := fakePlaces{towns: []domain.Town{
		{Name: "Čoka", Coordinates: domain.Coordinates{Lon: 20.14, Lat: 45.94}},
	}}
	r := NewResolver(geo, places, "Serbia", nil)

	tests := []struct {
		name      string
		town      string
		address   string
		suggested *domain.Coordinates
		want      *domain.Coordinates
		source    CoordinateSource
	}{
		{"suggestion wins", "Senta", "Glavna 5", coords(20.1, 45.9), coords(20.1, 45.9), SourceSuggestion},
		{"zero suggestion ignored", "Senta", "Glavna 5", coords(0, 0), coords(20.08, 45.93), SourceAddress},
		{"address with phone", "Senta", "Glavna 5, 064 123 4567", nil, coords(20.08, 45.93), SourceAddress},
		{"zero answer falls back to town", "Ada", "Nula 1", nil, coords(20.13, 45.80), SourceTown},
		{"town list accent insensitive", "coka", "Nepoznata 9", nil, coords(20.14, 45.94), SourceTownList},
		{"nothing found", "Nigde", "Nepoznata 9", nil, nil, SourceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src, err := r.Resolve(context.Background(), tt.town, tt.address, tt.suggested)
			require.NoError(t, err)
			assert.Equal(t, tt.source, src)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_TownListErrorIsNotFatal(t *testing.T) {
	r := NewResolver(&fakeGeocoder{}, fakePlaces{err: errBoom}, "", nil)

	got, src, err := r.Resolve(context.Background(), "Senta", "Glavna 5", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, SourceNone, src)
}

func TestResolver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(&fakeGeocoder{}, nil, "Serbia", nil)

	_, _, err := r.Resolve(ctx, "Senta", "Glavna 5", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolver_QueryOmitsEmptyParts(t *testing.T) {
	geo := &fakeGeocoder{}
	r := NewResolver(geo, nil, "", nil)

	_, _, err := r.Resolve(context.Background(), "Senta", "Glavna 5", nil)
	require.NoError(t, err)

	require.Len(t, geo.calls, 1)
	assert.Equal(t, "Glavna 5, Senta", geo.calls[0])
}
