package services

import (
	"context"
	"errors"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/ports"

	"go.uber.org/zap"
)

// Sum leg distances across stops. Absent legs count as zero, so the total is a
// lower bound whenever any leg is missing; see Summarize.
func TotalDistance(stops []domain.Stop) float64 {
	total := 0.0
	for _, st := range stops {
		if st.ID == domain.StartingPointID || st.DistanceFromPrevious == nil {
			continue
		}
		total += *st.DistanceFromPrevious
	}
	return total
}

// Summarize reports the total distance and how trustworthy it is.
func Summarize(stops []domain.Stop) domain.RouteSummary {
	sum := domain.RouteSummary{TotalDistanceKm: TotalDistance(stops)}
	for _, st := range stops {
		if st.ID == domain.StartingPointID {
			continue
		}
		sum.StopCount++
		if st.DistanceFromPrevious == nil {
			sum.MissingLegs++
			continue
		}
		if st.LegStatus == domain.LegEstimated {
			sum.EstimatedLegs++
		}
	}
	sum.Partial = sum.MissingLegs > 0
	return sum
}

// Leg holds the recomputed distance for one stop.
type Leg struct {
	StopID string
	Km     *float64
	Status domain.LegStatus
}

// Aggregator computes per-leg distances through a LegRouter.
type Aggregator struct {
	router ports.LegRouter
	log    *zap.Logger

	// StraightLineFallback estimates failed legs with the haversine distance
	// instead of leaving them unset.
	StraightLineFallback bool
}

func NewAggregator(router ports.LegRouter, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{router: router, log: log}
}

// Compute legs for stops in order, starting at start.
//
// The previous position is the last stop that had coordinates. A stop without
// coordinates is skipped and does not move the previous position. A router
// failure on one leg leaves that leg unset and does not stop the rest. Only
// context cancellation aborts the run.
func (a *Aggregator) ComputeLegs(ctx context.Context, start domain.Coordinates, stops []domain.Stop) ([]Leg, error) {
	legs := make([]Leg, 0, len(stops))
	prev := start

	for _, st := range stops {
		if st.ID == domain.StartingPointID {
			continue
		}
		if !st.HasCoordinates() {
			legs = append(legs, Leg{StopID: st.ID, Status: domain.LegSkipped})
			continue
		}

		to := *st.Coordinates
		res, err := a.router.ComputeLeg(ctx, prev, to)
		switch {
		case err == nil:
			km := res.DistanceKm
			legs = append(legs, Leg{StopID: st.ID, Km: &km, Status: domain.LegRouted})
		case ctx.Err() != nil:
			return legs, ctx.Err()
		default:
			a.log.Warn("leg computation failed",
				zap.String("stop_id", st.ID),
				zap.Bool("no_route", errors.Is(err, ports.ErrNoRoute)),
				zap.Error(err),
			)
			if a.StraightLineFallback {
				km := domain.HaversineKm(prev, to)
				legs = append(legs, Leg{StopID: st.ID, Km: &km, Status: domain.LegEstimated})
			} else {
				legs = append(legs, Leg{StopID: st.ID, Status: domain.LegFailed})
			}
		}

		prev = to
	}

	return legs, nil
}
