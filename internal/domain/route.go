package domain

import "github.com/paulmach/orb"

// Aggregate view of the current stop order.
// Partial is set when at least one leg has no distance, so TotalDistanceKm
// is a lower bound rather than the real route length.
type RouteSummary struct {
	StopCount       int     `json:"stop_count"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	Partial         bool    `json:"partial"`
	MissingLegs     int     `json:"missing_legs"`
	EstimatedLegs   int     `json:"estimated_legs"`
}

// Travel metrics for a single leg between two coordinates.
type LegResult struct {
	DistanceKm  float64
	DurationMin float64
}

// Whole-route metrics and drivable path, independent of per-leg distances.
type RouteResult struct {
	DistanceKm  float64
	DurationMin float64
	Geometry    orb.LineString
}

// Autocomplete entry for a populated place.
type Town struct {
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Postcode    string      `json:"postcode,omitempty"`
}

// Autocomplete entry for a street (optionally with house number) in a town.
type Street struct {
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	Street      string      `json:"street,omitempty"`
	HouseNumber string      `json:"housenumber,omitempty"`
	City        string      `json:"city,omitempty"`
	Postcode    string      `json:"postcode,omitempty"`
}
