package routing

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"campus_router/pkg/geo"
	"campus_router/pkg/graph"
)

// DefaultTapThreshold is the default maximum distance, in map pixels, between
// a tap and a building's anchor for the tap to select that building.
const DefaultTapThreshold = 100.0

// BuildingIndex answers nearest-building queries over building anchors
// (the position of each building's main floor).
type BuildingIndex struct {
	tr rtree.RTreeG[graph.BuildingID]
	m  *graph.Map
}

// NewBuildingIndex builds a spatial index of every building anchor in m.
func NewBuildingIndex(m *graph.Map) *BuildingIndex {
	idx := &BuildingIndex{m: m}
	for _, b := range m.Buildings() {
		p := m.Anchor(b.ID).Point()
		pt := [2]float64{p[0], p[1]}
		idx.tr.Insert(pt, pt, b.ID)
	}
	return idx
}

// Len returns the number of indexed buildings.
func (idx *BuildingIndex) Len() int {
	return idx.tr.Len()
}

// Nearest returns the building whose anchor is closest to (x, y), provided it
// is within threshold. Equidistant buildings resolve to the lower index.
// A negative threshold selects DefaultTapThreshold.
func (idx *BuildingIndex) Nearest(x, y, threshold float64) (graph.Building, bool) {
	if threshold < 0 || math.IsNaN(threshold) {
		threshold = DefaultTapThreshold
	}
	q := orb.Point{x, y}
	lo := [2]float64{x - threshold, y - threshold}
	hi := [2]float64{x + threshold, y + threshold}

	best := graph.NoBuilding
	bestDist := math.Inf(1)
	idx.tr.Search(lo, hi, func(min, _ [2]float64, id graph.BuildingID) bool {
		d := geo.Distance(q, orb.Point{min[0], min[1]})
		if d > threshold {
			return true
		}
		if d < bestDist || (d == bestDist && id < best) {
			best, bestDist = id, d
		}
		return true
	})
	if best == graph.NoBuilding {
		return graph.Building{}, false
	}
	return idx.m.Building(best), true
}

// NearestToTap converts a normalized tap position into map pixels using dims
// and returns the nearest building within threshold.
func (idx *BuildingIndex) NearestToTap(dims geo.Dimensions, fx, fy, threshold float64) (graph.Building, bool) {
	p := dims.FromTap(fx, fy)
	return idx.Nearest(p[0], p[1], threshold)
}
