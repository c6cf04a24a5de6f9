package distance

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/ports"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
	"go.uber.org/zap/zaptest"
)

var (
	kanjiza = domain.Coordinates{Lon: 20.0597, Lat: 46.0697}
	senta   = domain.Coordinates{Lon: 20.08, Lat: 45.93}
)

func TestOSRM_ComputeRouteLineString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route/v1/driving/20.0597,46.0697;20.08,45.93", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("overview"))
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		io.WriteString(w, `{"code":"Ok","routes":[{"distance":17250,"duration":1260,
			"geometry":{"type":"LineString","coordinates":[[20.0597,46.0697],[20.07,46.0],[20.08,45.93]]}}]}`)
	}))
	defer server.Close()

	p := NewOSRMProvider(server.URL+"/", "", zaptest.NewLogger(t))
	res, err := p.ComputeRoute(context.Background(), []domain.Coordinates{kanjiza, senta})

	require.NoError(t, err)
	assert.InDelta(t, 17.25, res.DistanceKm, 1e-12)
	assert.InDelta(t, 21.0, res.DurationMin, 1e-12)
	assert.Equal(t, orb.LineString{{20.0597, 46.0697}, {20.07, 46.0}, {20.08, 45.93}}, res.Geometry)
}

func TestOSRM_MultiLineStringIsFlattened(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"code":"Ok","routes":[{"distance":1000,"duration":60,
			"geometry":{"type":"MultiLineString","coordinates":[[[1,1],[2,2]],[[3,3]]]}}]}`)
	}))
	defer server.Close()

	leg, err := NewOSRMProvider(server.URL, "driving", nil).ComputeLeg(context.Background(), kanjiza, senta)
	require.NoError(t, err)
	assert.Equal(t, domain.LegResult{DistanceKm: 1, DurationMin: 1}, leg)

	res, err := NewOSRMProvider(server.URL, "driving", nil).ComputeRoute(context.Background(), []domain.Coordinates{kanjiza, senta})
	require.NoError(t, err)
	assert.Equal(t, orb.LineString{{1, 1}, {2, 2}, {3, 3}}, res.Geometry)
}

func TestOSRM_NoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"code":"NoRoute","message":"Impossible route between points"}`)
	}))
	defer server.Close()

	p := NewOSRMProvider(server.URL, "", nil)

	_, err := p.ComputeRoute(context.Background(), []domain.Coordinates{kanjiza, senta})
	require.ErrorIs(t, err, ports.ErrNoRoute)

	_, err = p.ComputeRoute(context.Background(), []domain.Coordinates{kanjiza})
	require.ErrorIs(t, err, ports.ErrNoRoute)
}

func TestORS_ComputeRouteDecodesPolyline(t *testing.T) {
	encoded := polyline.EncodeCoords([][]float64{{46.0697, 20.0597}, {45.93, 20.08}})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/directions/driving-hgv", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("Authorization"))

		var body directionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, [][]float64{{20.0597, 46.0697}, {20.08, 45.93}}, body.Coordinates)

		json.NewEncoder(w).Encode(map[string]any{"routes": []any{map[string]any{
			"summary":  map[string]any{"distance": 18000.0, "duration": 1500.0},
			"geometry": string(encoded),
		}}})
	}))
	defer server.Close()

	p, err := NewORSProvider("key", server.URL, "", zaptest.NewLogger(t))
	require.NoError(t, err)

	res, err := p.ComputeRoute(context.Background(), []domain.Coordinates{kanjiza, senta})
	require.NoError(t, err)

	assert.InDelta(t, 18.0, res.DistanceKm, 1e-12)
	assert.InDelta(t, 25.0, res.DurationMin, 1e-12)
	require.Len(t, res.Geometry, 2)
	assert.InDelta(t, 20.0597, res.Geometry[0].Lon(), 1e-5)
	assert.InDelta(t, 46.0697, res.Geometry[0].Lat(), 1e-5)
	assert.InDelta(t, 20.08, res.Geometry[1].Lon(), 1e-5)
}

func TestORS_ComputeRouteNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":2009,"message":"Route could not be found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	p, err := NewORSProvider("key", server.URL, ORSProfileCar, nil)
	require.NoError(t, err)

	_, err = p.ComputeRoute(context.Background(), []domain.Coordinates{kanjiza, senta})
	require.ErrorIs(t, err, ports.ErrNoRoute)
}

func TestORS_ComputeLegMatrix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/matrix/driving-hgv", r.URL.Path)

		var body matrixRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []int{0}, body.Sources)
		assert.Equal(t, []int{1}, body.Destinations)
		assert.Equal(t, "km", body.Units)

		io.WriteString(w, `{"distances":[[17.4]],"durations":[[1320]]}`)
	}))
	defer server.Close()

	p, err := NewORSProvider("key", server.URL, "", nil)
	require.NoError(t, err)

	leg, err := p.ComputeLeg(context.Background(), kanjiza, senta)
	require.NoError(t, err)
	assert.InDelta(t, 17.4, leg.DistanceKm, 1e-12)
	assert.InDelta(t, 22.0, leg.DurationMin, 1e-12)
}

func TestORS_ComputeLegNullCell(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"distances":[[null]],"durations":[[null]]}`)
	}))
	defer server.Close()

	p, err := NewORSProvider("key", server.URL, "", nil)
	require.NoError(t, err)

	_, err = p.ComputeLeg(context.Background(), kanjiza, senta)
	require.ErrorIs(t, err, ports.ErrNoRoute)
}

func TestNewORSProvider_RequiresKey(t *testing.T) {
	_, err := NewORSProvider(" ", "", "", nil)
	require.Error(t, err)
}

func TestStraightLineRouter(t *testing.T) {
	r := NewStraightLineRouter(60)

	leg, err := r.ComputeLeg(context.Background(), kanjiza, senta)
	require.NoError(t, err)

	km := domain.HaversineKm(kanjiza, senta)
	assert.InDelta(t, km, leg.DistanceKm, 1e-12)
	assert.InDelta(t, km, leg.DurationMin, 1e-9)
}
