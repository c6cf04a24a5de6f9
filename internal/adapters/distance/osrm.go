package distance

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/platform/httpx"
	"stop-route-service/internal/platform/obs"
	"stop-route-service/internal/ports"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

const (
	DefaultOSRMBaseURL = "https://router.project-osrm.org"
	DefaultOSRMProfile = "driving"
)

type osrmRouteResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64           `json:"distance"`
		Duration float64           `json:"duration"`
		Geometry *geojson.Geometry `json:"geometry"`
	} `json:"routes"`
}

// OSRMProvider implements RouteProvider and LegRouter against an OSRM
// server. It is safe for concurrent use.
type OSRMProvider struct {
	http    *httpx.Client
	log     *zap.Logger
	baseURL string
	profile string
}

func NewOSRMProvider(baseURL, profile string, log *zap.Logger) *OSRMProvider {
	if baseURL == "" {
		baseURL = DefaultOSRMBaseURL
	}
	if profile == "" {
		profile = DefaultOSRMProfile
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OSRMProvider{
		http:    httpx.New(15*time.Second, nil),
		log:     log.Named("osrm"),
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
	}
}

// ComputeRoute returns the full-overview driving route through waypoints.
func (o *OSRMProvider) ComputeRoute(ctx context.Context, waypoints []domain.Coordinates) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, o.log, "osrm.compute_route")(&err)

	if len(waypoints) < 2 {
		return domain.RouteResult{}, ports.ErrNoRoute
	}

	coords := make([]string, 0, len(waypoints))
	for _, w := range waypoints {
		coords = append(coords, strconv.FormatFloat(w.Lon, 'f', -1, 64)+","+strconv.FormatFloat(w.Lat, 'f', -1, 64))
	}

	params := url.Values{
		"overview":     {"full"},
		"geometries":   {"geojson"},
		"alternatives": {"false"},
	}
	endpoint := fmt.Sprintf("%s/route/v1/%s/%s?%s", o.baseURL, o.profile, strings.Join(coords, ";"), params.Encode())

	var decoded osrmRouteResponse
	if err := o.http.GetJSON(ctx, endpoint, &decoded); err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) && (strings.Contains(se.Body, "NoRoute") || strings.Contains(se.Body, "NoSegment")) {
			return domain.RouteResult{}, fmt.Errorf("osrm route: %w: %v", ports.ErrNoRoute, err)
		}
		return domain.RouteResult{}, fmt.Errorf("osrm route: %w", err)
	}

	if len(decoded.Routes) == 0 || decoded.Routes[0].Geometry == nil {
		return domain.RouteResult{}, fmt.Errorf("osrm route: code %q: %w", decoded.Code, ports.ErrNoRoute)
	}

	route := decoded.Routes[0]
	line, err := flatten(route.Geometry.Geometry())
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("osrm route: %w", err)
	}

	return domain.RouteResult{
		DistanceKm:  route.Distance / 1000,
		DurationMin: route.Duration / 60,
		Geometry:    line,
	}, nil
}

// ComputeLeg routes between two points.
func (o *OSRMProvider) ComputeLeg(ctx context.Context, from, to domain.Coordinates) (domain.LegResult, error) {
	r, err := o.ComputeRoute(ctx, []domain.Coordinates{from, to})
	if err != nil {
		return domain.LegResult{}, err
	}
	return domain.LegResult{DistanceKm: r.DistanceKm, DurationMin: r.DurationMin}, nil
}

// flatten joins LineString or MultiLineString geometry into one path.
func flatten(g orb.Geometry) (orb.LineString, error) {
	switch t := g.(type) {
	case orb.LineString:
		return t, nil
	case orb.MultiLineString:
		var out orb.LineString
		for _, ls := range t {
			out = append(out, ls...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", g)
	}
}
