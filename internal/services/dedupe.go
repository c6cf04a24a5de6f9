package services

import (
	"math/rand/v2"

	"stop-route-service/internal/domain"
)

// Maximum per-axis offset in degrees applied to a collocated stop.
const dedupeSpread = 0.003

// RandSource yields values in [0, 1).
type RandSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRandSource draws from the process-wide generator.
var DefaultRandSource RandSource = globalRand{}

// Separate stops that share exact coordinates.
//
// Stops are grouped by their exact (lon, lat) pair. The first member of each
// group keeps its position; every later member gets an independent offset in
// (-0.0015, 0.0015) degrees on each axis. Order is preserved and stops outside
// a group are returned as-is. The input slice is not modified.
func DedupeCoordinates(stops []domain.Stop, rnd RandSource) []domain.Stop {
	if rnd == nil {
		rnd = DefaultRandSource
	}

	out := make([]domain.Stop, len(stops))
	groups := make(map[string][]int)
	for i, st := range stops {
		out[i] = st.Clone()
		if st.Coordinates == nil {
			continue
		}
		k := st.Coordinates.Key()
		groups[k] = append(groups[k], i)
	}

	rank := make(map[string]int, len(groups))
	for i := range out {
		c := out[i].Coordinates
		if c == nil {
			continue
		}
		k := c.Key()
		members := groups[k]
		if len(members) < 2 || members[0] == i {
			continue
		}
		rank[k]++
		out[i].Coordinates = &domain.Coordinates{
			Lon: c.Lon + jitter(rnd, rank[k]),
			Lat: c.Lat + jitter(rnd, rank[k]),
		}
	}

	return out
}

// jitter returns a value in the open interval (-dedupeSpread/2, dedupeSpread/2).
// Zero would leave the stop on top of the original, so it is redrawn. When
// the source keeps failing, the offset is derived from the member's rank n
// (1 for the first moved member) so moved members stay apart.
func jitter(rnd RandSource, n int) float64 {
	for range 8 {
		d := (rnd.Float64() - 0.5) * dedupeSpread
		if d != 0 && d > -dedupeSpread/2 {
			return d
		}
	}
	return dedupeSpread / 2 * float64(n) / float64(n+1)
}
