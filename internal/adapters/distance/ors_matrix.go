package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/platform/obs"
	"stop-route-service/internal/ports"
)

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
	Units        string      `json:"units"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// ComputeLeg retrieves distance and duration for a single origin and
// destination using the OpenRouteService matrix endpoint. A null cell means
// the pair is unreachable and is reported as ports.ErrNoRoute.
func (o *ORSProvider) ComputeLeg(ctx context.Context, from, to domain.Coordinates) (_ domain.LegResult, err error) {
	defer obs.Time(ctx, o.log, "ors.compute_leg")(&err)

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	bodyObj := matrixRequest{
		Locations:    [][]float64{from.CoordsToList(), to.CoordsToList()},
		Destinations: []int{1},
		Metrics:      []string{"distance", "duration"},
		Sources:      []int{0},
		Units:        "km",
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return domain.LegResult{}, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.http.DoWithRetry(ctx, func() (*http.Request, error) {
		return o.http.NewRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.LegResult{}, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return domain.LegResult{}, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Distances) != 1 || len(mr.Durations) != 1 ||
		len(mr.Distances[0]) != 1 || len(mr.Durations[0]) != 1 {
		return domain.LegResult{}, fmt.Errorf(
			"expected a 1x1 matrix; got distances=%d durations=%d",
			len(mr.Distances), len(mr.Durations),
		)
	}

	km, seconds := mr.Distances[0][0], mr.Durations[0][0]
	if km == nil || seconds == nil {
		return domain.LegResult{}, fmt.Errorf("matrix %s -> %s: %w", from.Key(), to.Key(), ports.ErrNoRoute)
	}

	return domain.LegResult{
		DistanceKm:  *km,
		DurationMin: *seconds / 60,
	}, nil
}
