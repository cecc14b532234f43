package routing

import (
	"maps"
	"slices"

	"campus_router/pkg/graph"
)

// Contract returns a copy of r whose steps are merged into the fewest
// straight runs. A step ends at an interior waypoint where the walker enters
// a different building, or where the path bends.
//
// Contraction only regroups waypoints: the flattened steps always equal the
// raw waypoint sequence, and contracting twice is the same as once.
func Contract(r *Route) *Route {
	out := &Route{
		From:      r.From,
		To:        r.To,
		Waypoints: slices.Clone(r.Waypoints),
		Weight:    r.Weight,
		Names:     maps.Clone(r.Names),
	}
	out.Steps = contractSteps(out.Waypoints)
	return out
}

func contractSteps(wps []graph.Waypoint) []RouteStep {
	if len(wps) < 3 {
		return rawSteps(wps)
	}

	var steps []RouteStep
	ctx := wps[0].Building
	start := 0
	for i := 1; i < len(wps)-1; i++ {
		w := wps[i]
		enters := w.InBuilding() && w.Building != ctx
		if enters || bends(wps[i-1], w, wps[i+1]) {
			steps = append(steps, newStep(wps[start:i+1], ctx))
			start = i
		}
		if enters {
			ctx = w.Building
		}
	}
	return append(steps, newStep(wps[start:], ctx))
}

// bends reports whether a → b → c is anything but a straight continuation.
// Coordinates are integers, so collinearity is exact. A zero-length leg
// (stairs between stacked floors) counts as a bend.
func bends(a, b, c graph.Waypoint) bool {
	dx1, dy1 := b.X-a.X, b.Y-a.Y
	dx2, dy2 := c.X-b.X, c.Y-b.Y
	if (dx1 == 0 && dy1 == 0) || (dx2 == 0 && dy2 == 0) {
		return true
	}
	cross := int64(dx1)*int64(dy2) - int64(dy1)*int64(dx2)
	dot := int64(dx1)*int64(dx2) + int64(dy1)*int64(dy2)
	return cross != 0 || dot <= 0
}
