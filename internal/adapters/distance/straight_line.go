package distance

import (
	"context"

	"stop-route-service/internal/domain"
)

// StraightLineRouter estimates legs with the haversine distance and a fixed
// average speed. It needs no network and never fails.
type StraightLineRouter struct {
	SpeedKmh float64
}

func NewStraightLineRouter(speedKmh float64) *StraightLineRouter {
	if speedKmh <= 0 {
		speedKmh = 50
	}
	return &StraightLineRouter{SpeedKmh: speedKmh}
}

func (r *StraightLineRouter) ComputeLeg(_ context.Context, from, to domain.Coordinates) (domain.LegResult, error) {
	km := domain.HaversineKm(from, to)
	return domain.LegResult{DistanceKm: km, DurationMin: km / r.SpeedKmh * 60}, nil
}
