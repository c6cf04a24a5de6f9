package domain

// StartingPointID is the fixed identity of the depot every route begins at.
const StartingPointID = "starting-point"

// LegStatus describes how a stop's DistanceFromPrevious was obtained.
type LegStatus string

const (
	LegPending   LegStatus = ""
	LegRouted    LegStatus = "routed"
	LegEstimated LegStatus = "estimated"
	LegFailed    LegStatus = "failed"
	LegSkipped   LegStatus = "skipped"
)

// Represents a single delivery destination.
// Coordinates stay nil until geocoding succeeds. DistanceFromPrevious is the
// leg length in km from the preceding stop in the current order and is
// cleared whenever the order or the stop's address changes.
type Stop struct {
	ID                   string
	Buyer                string
	Town                 string
	Address              string
	Coordinates          *Coordinates
	DistanceFromPrevious *float64
	LegStatus            LegStatus
}

// StopFields is the user-editable part of a Stop.
type StopFields struct {
	Buyer   string
	Town    string
	Address string
}

// HasCoordinates reports whether the stop can take part in route math.
func (s *Stop) HasCoordinates() bool { return s != nil && s.Coordinates != nil }

// ClearLeg drops the stored leg distance.
func (s *Stop) ClearLeg() {
	s.DistanceFromPrevious = nil
	s.LegStatus = LegPending
}

// Clone returns a deep copy so callers never share pointers with the store.
func (s Stop) Clone() Stop {
	out := s
	if s.Coordinates != nil {
		c := *s.Coordinates
		out.Coordinates = &c
	}
	if s.DistanceFromPrevious != nil {
		d := *s.DistanceFromPrevious
		out.DistanceFromPrevious = &d
	}
	return out
}

// StartingPoint is the fixed anchor of every route. It always has coordinates.
type StartingPoint struct {
	Label       string
	Town        string
	Address     string
	Coordinates Coordinates
}

// Stop renders the starting point as the position-0 stop of a route.
func (p StartingPoint) Stop() Stop {
	c := p.Coordinates
	return Stop{
		ID:          StartingPointID,
		Buyer:       p.Label,
		Town:        p.Town,
		Address:     p.Address,
		Coordinates: &c,
	}
}

// DefaultStartingPoint is the Kanjiža depot.
func DefaultStartingPoint() StartingPoint {
	return StartingPoint{
		Label:       "Starting point",
		Town:        "Kanjiža",
		Address:     "Put narodnih heroja 17, Kanjiža",
		Coordinates: Coordinates{Lon: 20.0597, Lat: 46.0697},
	}
}
