package routing

import (
	"campus_router/pkg/geo"
	"campus_router/pkg/graph"
)

// DefaultMarkerOffset is how far, in map pixels, a marker sits from its waypoint.
const DefaultMarkerOffset = 20.0

// Marker is a label position for a building the route touches. X, Y lie on
// the outside of the route's angle at the waypoint so the label does not
// cover the drawn path.
type Marker struct {
	Building string         `json:"building"`
	At       graph.Waypoint `json:"at"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
}

// TransitionMarkers places a marker at the source, at the destination, and
// at every step start where the route enters a new building. A waypoint whose
// legs are exactly opposed has no outside and gets no marker.
func TransitionMarkers(r *Route, offset float64) []Marker {
	if r == nil || len(r.Waypoints) < 2 {
		return nil
	}
	if offset <= 0 {
		offset = DefaultMarkerOffset
	}
	wps := r.Waypoints
	last := len(wps) - 1

	// Positions in the waypoint sequence that get a marker, in route order.
	at := []int{0}
	steps := r.Steps
	if len(steps) == 0 {
		steps = contractSteps(wps)
	}
	idx := 0
	for i, s := range steps {
		if i > 0 && s.Building != steps[i-1].Building && s.Building != graph.NoBuilding && idx != 0 && idx != last {
			at = append(at, idx)
		}
		idx += len(s.Path) - 1
	}
	at = append(at, last)

	var out []Marker
	for _, i := range at {
		cur := wps[i]
		var before, after graph.Waypoint
		switch i {
		case 0:
			before, after = wps[1], wps[1]
		case last:
			before, after = wps[last-1], wps[last-1]
		default:
			before, after = wps[i-1], wps[i+1]
		}
		v, err := geo.OppositeVector(geo.Sub(before.Point(), cur.Point()), geo.Sub(after.Point(), cur.Point()))
		if err != nil {
			continue
		}
		p := geo.Add(cur.Point(), geo.Scale(v, offset))
		out = append(out, Marker{
			Building: r.Label(cur),
			At:       cur,
			X:        p[0],
			Y:        p[1],
		})
	}
	return out
}
