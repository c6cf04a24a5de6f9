package dto

import (
	"stop-route-service/internal/domain"

	"github.com/paulmach/orb/geojson"
)

type RouteResponse struct {
	DistanceKm  float64           `json:"distance_km"`
	DurationMin float64           `json:"duration_min"`
	Geometry    *geojson.Geometry `json:"geometry"`
}

func NewRouteResponse(r domain.RouteResult) RouteResponse {
	return RouteResponse{
		DistanceKm:  r.DistanceKm,
		DurationMin: r.DurationMin,
		Geometry:    geojson.NewGeometry(r.Geometry),
	}
}
