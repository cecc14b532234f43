package routing

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"campus_router/pkg/graph"
)

// ToGeoJSON renders directions as a feature collection in map-pixel space:
// one LineString per step, in order, followed by one Point per marker.
func ToGeoJSON(d *Directions) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if d == nil || d.Route == nil {
		return fc
	}
	r := d.Route

	for i, s := range r.Steps {
		ls := make(orb.LineString, len(s.Path))
		for j, w := range s.Path {
			ls[j] = w.Point()
		}
		f := geojson.NewFeature(ls)
		f.Properties["step"] = i
		if s.Building != graph.NoBuilding {
			f.Properties["building"] = r.Name(s.Building)
		}
		if i < len(d.Instructions) {
			f.Properties["kind"] = string(d.Instructions[i].Kind)
			f.Properties["instruction"] = d.Instructions[i].Text
		}
		fc.Append(f)
	}

	for _, m := range d.Markers {
		f := geojson.NewFeature(orb.Point{m.X, m.Y})
		f.Properties["marker"] = m.Building
		f.Properties["waypoint"] = m.At.ID
		fc.Append(f)
	}
	return fc
}
