package geoapify

import (
	"context"
	"fmt"
	"net/url"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/platform/obs"
	"stop-route-service/internal/ports"
)

type routingResponse struct {
	Features []struct {
		Properties struct {
			Distance float64 `json:"distance"`
			Time     float64 `json:"time"`
		} `json:"properties"`
	} `json:"features"`
}

// ComputeLeg returns the driving distance (km) and time (min) between two
// points. An empty answer is ports.ErrNoRoute.
func (c *Client) ComputeLeg(ctx context.Context, from, to domain.Coordinates) (_ domain.LegResult, err error) {
	defer obs.Time(ctx, c.log, "geoapify.compute_leg")(&err)

	params := url.Values{
		"waypoints": {waypoint(from) + "|" + waypoint(to)},
		"mode":      {"drive"},
		"type":      {"balanced"},
		"apiKey":    {c.apiKey},
	}

	var decoded routingResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/v1/routing?"+params.Encode(), &decoded); err != nil {
		return domain.LegResult{}, fmt.Errorf("compute leg %s -> %s: %w", from.Key(), to.Key(), err)
	}

	if len(decoded.Features) == 0 {
		return domain.LegResult{}, fmt.Errorf("compute leg %s -> %s: %w", from.Key(), to.Key(), ports.ErrNoRoute)
	}

	p := decoded.Features[0].Properties
	return domain.LegResult{
		DistanceKm:  p.Distance / 1000,
		DurationMin: p.Time / 60,
	}, nil
}

// waypoint formats lat,lon as Geoapify expects.
func waypoint(c domain.Coordinates) string {
	return formatFloat(c.Lat) + "," + formatFloat(c.Lon)
}
