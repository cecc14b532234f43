package routing

import (
	"fmt"

	"campus_router/pkg/graph"
)

// Route is a walk through the waypoint graph from one building's anchor to
// another's. Routes are built per query and never modified afterwards.
type Route struct {
	From      graph.BuildingID `json:"from"`
	To        graph.BuildingID `json:"to"`
	Waypoints []graph.Waypoint `json:"waypoints"`
	Steps     []RouteStep      `json:"steps"`
	Weight    float64          `json:"weight"`

	// Names of every building the route touches, so the route can be
	// described without the map.
	Names map[graph.BuildingID]string `json:"names"`
}

// RouteStep is a sub-path of a route. Path holds every waypoint from Start to
// End inclusive; Building is the building context the step starts within.
type RouteStep struct {
	Start    graph.Waypoint   `json:"start"`
	End      graph.Waypoint   `json:"end"`
	Path     []graph.Waypoint `json:"path"`
	Building graph.BuildingID `json:"building"`
}

// Name returns the name of a building on the route, or "" if unknown.
func (r *Route) Name(id graph.BuildingID) string {
	return r.Names[id]
}

// Label describes a waypoint for instructions: its building name, or its
// coordinate for a path junction.
func (r *Route) Label(w graph.Waypoint) string {
	if name := r.Names[w.Building]; w.InBuilding() && name != "" {
		return name
	}
	return fmt.Sprintf("(%d, %d)", w.X, w.Y)
}

// Flatten concatenates the step paths, sharing each boundary waypoint once.
// For any route it reproduces Waypoints.
func (r *Route) Flatten() []graph.Waypoint {
	var out []graph.Waypoint
	for i, s := range r.Steps {
		if i == 0 {
			out = append(out, s.Path...)
			continue
		}
		if len(s.Path) > 0 {
			out = append(out, s.Path[1:]...)
		}
	}
	return out
}

// ThroughBuildings returns the buildings the route passes through, in order
// of first appearance.
func (r *Route) ThroughBuildings() []graph.BuildingID {
	var out []graph.BuildingID
	seen := make(map[graph.BuildingID]bool)
	add := func(id graph.BuildingID) {
		if id != graph.NoBuilding && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, s := range r.Steps {
		add(s.Building)
		add(s.End.Building)
	}
	return out
}

// newStep copies path into a step with the given context.
func newStep(path []graph.Waypoint, building graph.BuildingID) RouteStep {
	p := make([]graph.Waypoint, len(path))
	copy(p, path)
	return RouteStep{
		Start:    p[0],
		End:      p[len(p)-1],
		Path:     p,
		Building: building,
	}
}

// rawSteps returns one step per edge of the waypoint sequence, carrying the
// building context forward across junctions.
func rawSteps(wps []graph.Waypoint) []RouteStep {
	switch len(wps) {
	case 0:
		return nil
	case 1:
		return []RouteStep{newStep(wps, wps[0].Building)}
	}
	steps := make([]RouteStep, 0, len(wps)-1)
	ctx := wps[0].Building
	for i := 0; i < len(wps)-1; i++ {
		if wps[i].InBuilding() {
			ctx = wps[i].Building
		}
		steps = append(steps, newStep(wps[i:i+2], ctx))
	}
	return steps
}
