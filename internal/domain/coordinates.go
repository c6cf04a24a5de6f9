package domain

import (
	"strconv"

	"github.com/umahmood/haversine"
)

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// IsZero reports the exact (0,0) pair some providers return instead of "not found".
func (c Coordinates) IsZero() bool { return c.Lon == 0 && c.Lat == 0 }

// Key identifies the exact coordinate pair. Two stops share a key only when
// both axes are bit-for-bit equal.
func (c Coordinates) Key() string {
	return strconv.FormatFloat(c.Lon, 'g', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'g', -1, 64)
}

// HaversineKm returns the great-circle distance in kilometres (earth radius 6371 km).
func HaversineKm(a, b Coordinates) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lon},
		haversine.Coord{Lat: b.Lat, Lon: b.Lon},
	)
	return km
}
