package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/platform/httpx"
	"stop-route-service/internal/platform/obs"
	"stop-route-service/internal/ports"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// ComputeRoute fetches a driving route through the waypoints in order.
// The encoded polyline geometry is decoded into lon/lat points.
func (o *ORSProvider) ComputeRoute(ctx context.Context, waypoints []domain.Coordinates) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, o.log, "ors.compute_route")(&err)

	if len(waypoints) < 2 {
		return domain.RouteResult{}, ports.ErrNoRoute
	}

	coords := make([][]float64, 0, len(waypoints))
	for _, w := range waypoints {
		coords = append(coords, w.CoordsToList())
	}

	payload, err := json.Marshal(directionsRequest{Coordinates: coords})
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("marshal directions request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, o.profile)
	resp, err := o.http.DoWithRetry(ctx, func() (*http.Request, error) {
		return o.http.NewRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		if httpx.IsStatus(err, http.StatusNotFound) {
			return domain.RouteResult{}, fmt.Errorf("directions request: %w: %v", ports.ErrNoRoute, err)
		}
		return domain.RouteResult{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.RouteResult{}, fmt.Errorf("decode directions response: %w", err)
	}
	if len(dr.Routes) == 0 {
		return domain.RouteResult{}, ports.ErrNoRoute
	}

	route := dr.Routes[0]
	line, err := decodePolyline(route.Geometry)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("decode directions geometry: %w", err)
	}

	return domain.RouteResult{
		DistanceKm:  route.Summary.Distance / 1000,
		DurationMin: route.Summary.Duration / 60,
		Geometry:    line,
	}, nil
}

// decodePolyline turns a precision-5 encoded polyline (lat,lon pairs) into a
// lon/lat LineString.
func decodePolyline(encoded string) (orb.LineString, error) {
	if encoded == "" {
		return orb.LineString{}, nil
	}

	points, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%d trailing bytes", len(rest))
	}

	line := make(orb.LineString, 0, len(points))
	for _, p := range points {
		line = append(line, orb.Point{p[1], p[0]})
	}
	return line, nil
}
