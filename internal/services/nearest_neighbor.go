package services

import (
	"math"

	"stop-route-service/internal/domain"
)

// Order stops using a greedy nearest-neighbor walk from the starting point.
//
// Each step picks the remaining stop with the smallest haversine distance from
// the current position. Ties go to the stop seen first in scan order, so the
// result is deterministic for identical input. Stops without coordinates can
// never be nearest; they are appended last in their original relative order.
// The walk is O(n^2) and makes no claim of optimality.
func NearestNeighborOrder(start domain.Coordinates, stops []domain.Stop) []domain.Stop {
	if len(stops) <= 1 {
		return stops
	}

	remaining := make([]domain.Stop, len(stops))
	copy(remaining, stops)

	result := make([]domain.Stop, 0, len(stops))
	current := start

	for len(remaining) > 0 {
		best := -1
		minDist := math.Inf(1)

		// Select next stop by minimum straight-line distance (greedy step.)
		for i := range remaining {
			if !remaining[i].HasCoordinates() {
				continue
			}
			d := domain.HaversineKm(current, *remaining[i].Coordinates)
			if d < minDist {
				minDist = d
				best = i
			}
		}

		// Only coordinate-less stops are left.
		if best < 0 {
			result = append(result, remaining...)
			break
		}

		next := remaining[best]
		result = append(result, next)
		remaining = append(remaining[:best], remaining[best+1:]...)
		current = *next.Coordinates
	}

	return result
}

// Improve a visiting order with 2-opt segment reversals.
//
// Only stops with coordinates take part; the path is anchored at start and is
// open at the end. A reversal is applied only when it strictly shortens the
// path, so the result is never longer than the input. Stops without
// coordinates keep their trailing position.
func TwoOpt(start domain.Coordinates, stops []domain.Stop) []domain.Stop {
	located := make([]domain.Stop, 0, len(stops))
	var unlocated []domain.Stop
	for _, st := range stops {
		if st.HasCoordinates() {
			located = append(located, st)
		} else {
			unlocated = append(unlocated, st)
		}
	}

	if len(located) < 2 {
		return stops
	}

	point := func(i int) domain.Coordinates {
		if i < 0 {
			return start
		}
		return *located[i].Coordinates
	}

	const eps = 1e-9
	n := len(located)

	for improved := true; improved; {
		improved = false
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				// Reverse located[i..j]; edges (i-1,i) and (j,j+1) are replaced.
				before := domain.HaversineKm(point(i-1), point(i))
				after := domain.HaversineKm(point(i-1), point(j))
				if j+1 < n {
					before += domain.HaversineKm(point(j), point(j+1))
					after += domain.HaversineKm(point(i), point(j+1))
				}
				if after+eps < before {
					reverse(located[i : j+1])
					improved = true
				}
			}
		}
	}

	return append(located, unlocated...)
}

// PathLengthKm sums straight-line legs from start through every stop with
// coordinates.
func PathLengthKm(start domain.Coordinates, stops []domain.Stop) float64 {
	total := 0.0
	current := start
	for _, st := range stops {
		if !st.HasCoordinates() {
			continue
		}
		total += domain.HaversineKm(current, *st.Coordinates)
		current = *st.Coordinates
	}
	return total
}

func reverse(s []domain.Stop) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
