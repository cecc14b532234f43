package routing

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"campus_router/pkg/graph"
)

var (
	// ErrNoRoute is returned when the two buildings' anchors are not connected.
	ErrNoRoute = errors.New("no route found")

	// ErrInvalidRequest is returned when source and destination are the same
	// building.
	ErrInvalidRequest = errors.New("invalid route request")
)

// Finder computes shortest routes between buildings on a Map.
// It holds no per-query state and is safe for concurrent use.
type Finder struct {
	m   *graph.Map
	log *zap.Logger
}

// NewFinder creates a route finder over m.
func NewFinder(m *graph.Map, log *zap.Logger) *Finder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Finder{m: m, log: log}
}

// FindRoute computes the shortest route between two buildings by name.
// The returned route is raw: one step per edge.
func (f *Finder) FindRoute(from, to string) (*Route, error) {
	a, err := f.m.BuildingByID(from)
	if err != nil {
		return nil, err
	}
	b, err := f.m.BuildingByID(to)
	if err != nil {
		return nil, err
	}
	return f.FindBetween(a.ID, b.ID)
}

// FindBetween computes the shortest route between two buildings by index.
// An index the map does not know returns graph.ErrNotFound.
func (f *Finder) FindBetween(from, to graph.BuildingID) (*Route, error) {
	for _, id := range []graph.BuildingID{from, to} {
		if _, err := f.m.Lookup(id); err != nil {
			return nil, err
		}
	}
	if from == to {
		return nil, fmt.Errorf("%w: source and destination are both %q", ErrInvalidRequest, f.m.BuildingName(from))
	}

	// Step 1: Resolve anchors.
	src := f.m.Anchor(from)
	dst := f.m.Anchor(to)

	// Step 2: Cheap reachability check before searching.
	if !f.m.Connected(src.ID, dst.ID) {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoRoute, f.m.BuildingName(from), f.m.BuildingName(to))
	}

	// Step 3: Dijkstra between anchors.
	ids, dist, ok := shortestPath(f.m, src.ID, dst.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoRoute, f.m.BuildingName(from), f.m.BuildingName(to))
	}

	// Step 4: Materialize waypoints and the names needed to describe them.
	wps := make([]graph.Waypoint, len(ids))
	names := map[graph.BuildingID]string{
		from: f.m.BuildingName(from),
		to:   f.m.BuildingName(to),
	}
	for i, id := range ids {
		w := f.m.Waypoint(id)
		wps[i] = w
		if w.InBuilding() {
			names[w.Building] = f.m.BuildingName(w.Building)
		}
	}

	f.log.Debug("route found",
		zap.String("from", names[from]),
		zap.String("to", names[to]),
		zap.Int("waypoints", len(wps)),
		zap.Float64("weight", dist))

	return &Route{
		From:      from,
		To:        to,
		Waypoints: wps,
		Steps:     rawSteps(wps),
		Weight:    dist,
		Names:     names,
	}, nil
}
