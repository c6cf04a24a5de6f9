package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/platform/obs"
	"stop-route-service/internal/ports"

	"go.uber.org/zap"
)

// Route change event types.
const (
	EventStopAdded      = "stop.added"
	EventStopUpdated    = "stop.updated"
	EventStopRemoved    = "stop.removed"
	EventStopsCleared   = "stops.cleared"
	EventStopsReordered = "stops.reordered"
	EventStopsOptimized = "stops.optimized"
	EventStopsImported  = "stops.imported"
	EventRouteRecompute = "route.recomputed"
)

type PlannerOptions struct {
	// Pause between geocoding calls during bulk import.
	ImportDelay time.Duration
	// Run a 2-opt pass after nearest neighbor.
	TwoOpt bool
	// Source for duplicate-coordinate offsets; nil uses DefaultRandSource.
	Rand RandSource
}

// Planner owns the stop list and runs every flow that mutates it.
//
// Mutations are serialized by mu so multi-step flows (edit then re-geocode,
// optimize then recompute) never interleave. Geocoding for add, edit and
// import happens before the lock is taken.
type Planner struct {
	mu sync.Mutex

	store      *StopStore
	resolver   *Resolver
	aggregator *Aggregator
	routes     ports.RouteProvider
	events     ports.EventPublisher
	log        *zap.Logger
	opts       PlannerOptions

	imp importTracker
}

func NewPlanner(
	store *StopStore,
	resolver *Resolver,
	aggregator *Aggregator,
	routes ports.RouteProvider,
	events ports.EventPublisher,
	log *zap.Logger,
	opts PlannerOptions,
) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Rand == nil {
		opts.Rand = DefaultRandSource
	}
	return &Planner{
		store:      store,
		resolver:   resolver,
		aggregator: aggregator,
		routes:     routes,
		events:     events,
		log:        log,
		opts:       opts,
	}
}

// StopInput is a stop as entered by the user. Coordinates optionally carry a
// position picked from a street suggestion.
type StopInput struct {
	Buyer       string
	Town        string
	Address     string
	Coordinates *domain.Coordinates
}

func (in StopInput) fields() domain.StopFields {
	return domain.StopFields{Buyer: in.Buyer, Town: in.Town, Address: in.Address}
}

// Stops returns the starting point followed by the stops in order.
func (p *Planner) Stops() []domain.Stop {
	return p.store.Route()
}

func (p *Planner) StartingPoint() domain.StartingPoint {
	return p.store.StartingPoint()
}

func (p *Planner) Summary() domain.RouteSummary {
	return Summarize(p.store.Stops())
}

// AddStop geocodes the input and appends it. A stop that cannot be geocoded
// is still added, without coordinates. The leg distance is left unset.
func (p *Planner) AddStop(ctx context.Context, in StopInput) (st domain.Stop, src CoordinateSource, err error) {
	defer obs.Time(ctx, p.log, "planner.add_stop")(&err)

	if err := validateFields(in.fields()); err != nil {
		return domain.Stop{}, SourceNone, fmt.Errorf("add stop: %w", err)
	}

	coords, src, err := p.resolver.Resolve(ctx, in.Town, in.Address, in.Coordinates)
	if err != nil {
		return domain.Stop{}, SourceNone, fmt.Errorf("add stop: %w", err)
	}

	p.mu.Lock()
	st, err = p.store.Add(domain.Stop{
		Buyer:       in.Buyer,
		Town:        in.Town,
		Address:     in.Address,
		Coordinates: coords,
	})
	n := p.store.Len()
	p.mu.Unlock()

	if err != nil {
		return domain.Stop{}, SourceNone, err
	}

	p.publish(ctx, EventStopAdded, st.ID, n)
	return st, src, nil
}

// EditStop replaces the user fields and re-geocodes. Coordinates and the leg
// distance are cleared first, so a failed lookup leaves the stop unlocated.
func (p *Planner) EditStop(ctx context.Context, id string, in StopInput) (st domain.Stop, src CoordinateSource, err error) {
	defer obs.Time(ctx, p.log, "planner.edit_stop")(&err)

	if id == domain.StartingPointID {
		return domain.Stop{}, SourceNone, ErrStartingPoint
	}
	if err := validateFields(in.fields()); err != nil {
		return domain.Stop{}, SourceNone, fmt.Errorf("edit stop %q: %w", id, err)
	}
	if _, err := p.store.Get(id); err != nil {
		return domain.Stop{}, SourceNone, err
	}

	coords, src, err := p.resolver.Resolve(ctx, in.Town, in.Address, in.Coordinates)
	if err != nil {
		return domain.Stop{}, SourceNone, fmt.Errorf("edit stop %q: %w", id, err)
	}

	p.mu.Lock()
	if _, err = p.store.Edit(id, in.fields()); err == nil {
		err = p.store.SetCoordinates(id, coords)
	}
	if err == nil {
		err = p.clearLegAfterLocked(id)
	}
	if err == nil {
		st, err = p.store.Get(id)
	}
	n := p.store.Len()
	p.mu.Unlock()

	if err != nil {
		return domain.Stop{}, SourceNone, err
	}

	p.publish(ctx, EventStopUpdated, id, n)
	return st, src, nil
}

// RemoveStop deletes a stop. The starting point is rejected and left intact.
// The following stop loses its leg since its predecessor changed.
func (p *Planner) RemoveStop(ctx context.Context, id string) error {
	p.mu.Lock()
	next, hasNext := p.successorLocked(id)
	err := p.store.Remove(id)
	if err == nil && hasNext {
		err = p.store.SetLeg(next, nil, domain.LegPending)
	}
	n := p.store.Len()
	p.mu.Unlock()

	if err != nil {
		return err
	}

	p.publish(ctx, EventStopRemoved, id, n)
	return nil
}

func (p *Planner) ClearStops(ctx context.Context) {
	p.mu.Lock()
	p.store.Clear()
	p.mu.Unlock()

	p.publish(ctx, EventStopsCleared, "", 0)
}

// MoveStop drags the stop at route position from to position to. Positions
// count the starting point as 0, so neither may be 0. Leg distances stay as
// they were until the next recompute.
func (p *Planner) MoveStop(ctx context.Context, from, to int) error {
	if from == 0 || to == 0 {
		return ErrStartingPoint
	}

	p.mu.Lock()
	err := p.store.Move(from-1, to-1)
	n := p.store.Len()
	p.mu.Unlock()

	if err != nil {
		return err
	}

	p.publish(ctx, EventStopsReordered, "", n)
	return nil
}

// Reorder applies an explicit order. ids must name every current stop exactly
// once; anything else is rejected without touching the list. Legs whose
// predecessor changed are cleared.
func (p *Planner) Reorder(ctx context.Context, ids []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.store.Stops()
	if len(ids) != len(current) {
		return fmt.Errorf("reorder: %w: got %d ids for %d stops", ErrInvalidInput, len(ids), len(current))
	}

	byID := make(map[string]domain.Stop, len(current))
	for _, st := range current {
		byID[st.ID] = st
	}

	next := make([]domain.Stop, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == domain.StartingPointID {
			return ErrStartingPoint
		}
		st, ok := byID[id]
		if !ok {
			return fmt.Errorf("reorder: %q: %w", id, ErrStopNotFound)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("reorder: %w: duplicate id %q", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
		next = append(next, st)
	}

	p.store.Reorder(invalidateMovedLegs(current, next))
	p.publish(ctx, EventStopsReordered, "", len(next))
	return nil
}

// Optimize reorders the current stops with nearest neighbor (plus 2-opt when
// enabled) starting at the starting point.
func (p *Planner) Optimize(ctx context.Context) []domain.Stop {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.optimizeLocked()
	p.publish(ctx, EventStopsOptimized, "", p.store.Len())
	return p.store.Route()
}

// Recompute optimizes the order and then recomputes every leg through the
// router. Failed legs are left unset and reported through the summary.
func (p *Planner) Recompute(ctx context.Context) (sum domain.RouteSummary, err error) {
	defer obs.Time(ctx, p.log, "planner.recompute")(&err)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.optimizeLocked()

	legs, err := p.aggregator.ComputeLegs(ctx, p.store.StartingPoint().Coordinates, p.store.Stops())
	for _, leg := range legs {
		if serr := p.store.SetLeg(leg.StopID, leg.Km, leg.Status); serr != nil {
			return domain.RouteSummary{}, fmt.Errorf("recompute: %w", serr)
		}
	}
	if err != nil {
		return domain.RouteSummary{}, fmt.Errorf("recompute: %w", err)
	}

	sum = Summarize(p.store.Stops())
	p.publish(ctx, EventRouteRecompute, "", sum.StopCount)
	return sum, nil
}

// Route asks the route provider for the whole path over every stop that has
// coordinates. Fewer than two waypoints is ports.ErrNoRoute.
func (p *Planner) Route(ctx context.Context) (res domain.RouteResult, err error) {
	defer obs.Time(ctx, p.log, "planner.route")(&err)

	if p.routes == nil {
		return domain.RouteResult{}, errors.New("route: no route provider configured")
	}

	waypoints := []domain.Coordinates{p.store.StartingPoint().Coordinates}
	for _, st := range p.store.Stops() {
		if st.HasCoordinates() {
			waypoints = append(waypoints, *st.Coordinates)
		}
	}
	if len(waypoints) < 2 {
		return domain.RouteResult{}, ports.ErrNoRoute
	}

	res, err = p.routes.ComputeRoute(ctx, waypoints)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("route: %w", err)
	}
	return res, nil
}

// successorLocked returns the id of the stop right after id, if any.
func (p *Planner) successorLocked(id string) (string, bool) {
	stops := p.store.Stops()
	for i, st := range stops {
		if st.ID == id && i+1 < len(stops) {
			return stops[i+1].ID, true
		}
	}
	return "", false
}

// clearLegAfterLocked drops the leg of the stop following id.
func (p *Planner) clearLegAfterLocked(id string) error {
	next, ok := p.successorLocked(id)
	if !ok {
		return nil
	}
	return p.store.SetLeg(next, nil, domain.LegPending)
}

func (p *Planner) optimizeLocked() {
	current := p.store.Stops()
	next := p.order(current)
	p.store.Reorder(invalidateMovedLegs(current, next))
}

func (p *Planner) order(stops []domain.Stop) []domain.Stop {
	start := p.store.StartingPoint().Coordinates
	out := NearestNeighborOrder(start, stops)
	if p.opts.TwoOpt {
		out = TwoOpt(start, out)
	}
	return out
}

func (p *Planner) publish(ctx context.Context, typ, stopID string, count int) {
	if p.events == nil {
		return
	}
	evt := ports.RouteEvent{Type: typ, StopID: stopID, StopCount: count, OccurredAt: time.Now().UTC()}
	if err := p.events.Publish(ctx, evt); err != nil {
		p.log.Warn("publish route event failed", zap.String("type", typ), zap.Error(err))
	}
}

// invalidateMovedLegs clears the leg of every stop whose predecessor differs
// between the two orders.
func invalidateMovedLegs(before, after []domain.Stop) []domain.Stop {
	prevOf := make(map[string]string, len(before))
	prev := domain.StartingPointID
	for _, st := range before {
		prevOf[st.ID] = prev
		prev = st.ID
	}

	out := make([]domain.Stop, len(after))
	prev = domain.StartingPointID
	for i, st := range after {
		out[i] = st.Clone()
		if old, ok := prevOf[st.ID]; !ok || old != prev {
			out[i].ClearLeg()
		}
		prev = st.ID
	}
	return out
}
