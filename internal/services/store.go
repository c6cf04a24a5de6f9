package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"stop-route-service/internal/domain"

	"github.com/google/uuid"
)

var (
	// ErrStartingPoint is returned when an operation targets the starting point.
	// The store is left untouched.
	ErrStartingPoint = errors.New("starting point cannot be modified")
	ErrStopNotFound  = errors.New("stop not found")
	ErrInvalidInput  = errors.New("invalid input")
)

// StopStore is the in-memory ordered stop list. The starting point is
// implicit position 0 and is never stored in the sequence itself.
//
// Each method is atomic. Multi-step flows (edit then re-geocode, optimize
// then recompute) need an outer single-writer lock; see Planner.
type StopStore struct {
	mu    sync.RWMutex
	start domain.StartingPoint
	order []*domain.Stop
}

func NewStopStore(start domain.StartingPoint) *StopStore {
	return &StopStore{start: start}
}

func (s *StopStore) StartingPoint() domain.StartingPoint {
	return s.start
}

// Append a stop to the end of the order. A missing ID is assigned; buyer,
// town and address are required, coordinates are optional.
func (s *StopStore) Add(stop domain.Stop) (domain.Stop, error) {
	if stop.ID == domain.StartingPointID {
		return domain.Stop{}, ErrStartingPoint
	}
	if err := validateFields(domain.StopFields{Buyer: stop.Buyer, Town: stop.Town, Address: stop.Address}); err != nil {
		return domain.Stop{}, fmt.Errorf("add stop: %w", err)
	}
	if stop.ID == "" {
		stop.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(stop.ID) >= 0 {
		return domain.Stop{}, fmt.Errorf("add stop: duplicate id %q", stop.ID)
	}

	stored := stop.Clone()
	s.order = append(s.order, &stored)
	return stored.Clone(), nil
}

// Remove deletes a stop. Targeting the starting point is a rejected no-op.
func (s *StopStore) Remove(id string) error {
	if id == domain.StartingPointID {
		return ErrStartingPoint
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("remove stop %q: %w", id, ErrStopNotFound)
	}
	s.order = append(s.order[:i], s.order[i+1:]...)
	return nil
}

// Replace the whole non-starting-point sequence.
//
// The store does not check that newOrder contains every existing stop exactly
// once; a caller bug can drop or duplicate stops. Entries carrying the
// starting point id are discarded so the anchor can never move.
func (s *StopStore) Reorder(newOrder []domain.Stop) {
	next := make([]*domain.Stop, 0, len(newOrder))
	for _, st := range newOrder {
		if st.ID == domain.StartingPointID {
			continue
		}
		c := st.Clone()
		next = append(next, &c)
	}

	s.mu.Lock()
	s.order = next
	s.mu.Unlock()
}

// Edit replaces buyer/town/address and clears coordinates and the leg
// distance pending re-geocoding.
func (s *StopStore) Edit(id string, fields domain.StopFields) (domain.Stop, error) {
	if id == domain.StartingPointID {
		return domain.Stop{}, ErrStartingPoint
	}
	if err := validateFields(fields); err != nil {
		return domain.Stop{}, fmt.Errorf("edit stop %q: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return domain.Stop{}, fmt.Errorf("edit stop %q: %w", id, ErrStopNotFound)
	}

	st := s.order[i]
	st.Buyer = fields.Buyer
	st.Town = fields.Town
	st.Address = fields.Address
	st.Coordinates = nil
	st.ClearLeg()

	return st.Clone(), nil
}

// SetCoordinates stores a geocoding result (nil clears) and invalidates the leg.
func (s *StopStore) SetCoordinates(id string, c *domain.Coordinates) error {
	if id == domain.StartingPointID {
		return ErrStartingPoint
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("set coordinates %q: %w", id, ErrStopNotFound)
	}

	st := s.order[i]
	if c == nil {
		st.Coordinates = nil
	} else {
		cc := *c
		st.Coordinates = &cc
	}
	st.ClearLeg()
	return nil
}

// SetLeg records the distance from the preceding stop. A nil distance leaves
// the leg absent with the given status.
func (s *StopStore) SetLeg(id string, km *float64, status domain.LegStatus) error {
	if id == domain.StartingPointID {
		return ErrStartingPoint
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("set leg %q: %w", id, ErrStopNotFound)
	}

	st := s.order[i]
	if km == nil {
		st.DistanceFromPrevious = nil
	} else {
		d := *km
		st.DistanceFromPrevious = &d
	}
	st.LegStatus = status
	return nil
}

// Move a stop from one position to another (0-based, starting point excluded).
// Leg distances are left as they were.
func (s *StopStore) Move(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.order)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move stop: %w: position out of range (from=%d to=%d len=%d)", ErrInvalidInput, from, to, n)
	}
	if from == to {
		return nil
	}

	st := s.order[from]
	s.order = append(s.order[:from], s.order[from+1:]...)
	s.order = append(s.order[:to], append([]*domain.Stop{st}, s.order[to:]...)...)
	return nil
}

// Clear empties the sequence. The starting point is unaffected.
func (s *StopStore) Clear() {
	s.mu.Lock()
	s.order = nil
	s.mu.Unlock()
}

func (s *StopStore) Get(id string) (domain.Stop, error) {
	if id == domain.StartingPointID {
		return s.start.Stop(), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return domain.Stop{}, fmt.Errorf("get stop %q: %w", id, ErrStopNotFound)
	}
	return s.order[i].Clone(), nil
}

// Stops returns copies of the non-starting-point stops in route order.
func (s *StopStore) Stops() []domain.Stop {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Stop, 0, len(s.order))
	for _, st := range s.order {
		out = append(out, st.Clone())
	}
	return out
}

// Route returns the effective route: starting point first, then the stops.
func (s *StopStore) Route() []domain.Stop {
	stops := s.Stops()
	out := make([]domain.Stop, 0, len(stops)+1)
	out = append(out, s.start.Stop())
	return append(out, stops...)
}

func (s *StopStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *StopStore) indexLocked(id string) int {
	for i, st := range s.order {
		if st.ID == id {
			return i
		}
	}
	return -1
}

func validateFields(f domain.StopFields) error {
	if strings.TrimSpace(f.Buyer) == "" {
		return fmt.Errorf("%w: buyer must be non-empty", ErrInvalidInput)
	}
	if strings.TrimSpace(f.Town) == "" {
		return fmt.Errorf("%w: town must be non-empty", ErrInvalidInput)
	}
	if strings.TrimSpace(f.Address) == "" {
		return fmt.Errorf("%w: address must be non-empty", ErrInvalidInput)
	}
	return nil
}
