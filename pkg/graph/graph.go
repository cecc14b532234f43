package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"
)

var (
	// ErrMalformedMapData is returned when loader output violates the map's
	// structural invariants.
	ErrMalformedMapData = errors.New("malformed map data")

	// ErrNotFound is returned for an unknown building id.
	ErrNotFound = errors.New("not found")
)

// WaypointID indexes Map waypoints.
type WaypointID uint32

// FloorID indexes Map floors.
type FloorID uint32

// BuildingID indexes Map buildings.
type BuildingID uint32

// Sentinels for "none".
const (
	NoWaypoint = ^WaypointID(0)
	NoFloor    = ^FloorID(0)
	NoBuilding = ^BuildingID(0)
)

// Waypoint is a graph node at an integer map-pixel coordinate. Building and
// Floor are NoBuilding/NoFloor for a plain path junction.
type Waypoint struct {
	ID       WaypointID `json:"id"`
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Building BuildingID `json:"building"`
	Floor    FloorID    `json:"floor"`
}

// Point returns the waypoint position as a float point.
func (w Waypoint) Point() orb.Point {
	return orb.Point{float64(w.X), float64(w.Y)}
}

// InBuilding reports whether the waypoint belongs to a building.
func (w Waypoint) InBuilding() bool {
	return w.Building != NoBuilding
}

// Floor is one level of a building. Position is the canonical entry/exit
// waypoint for the floor.
type Floor struct {
	ID        FloorID
	Name      string
	Building  BuildingID
	Position  WaypointID
	Waypoints []WaypointID
}

// Building owns one or more floors, one of which is the main floor.
type Building struct {
	ID        BuildingID
	Name      string
	Floors    []FloorID
	MainFloor FloorID
}

// Edge is one direction of an undirected path between two waypoints.
type Edge struct {
	To     WaypointID
	Weight float64
}

// link is an undirected edge as loaded, kept in insertion order.
type link struct {
	a, b   WaypointID
	weight float64
}

// Map is the campus waypoint graph. It is immutable once built and safe for
// concurrent readers.
type Map struct {
	waypoints []Waypoint
	floors    []Floor
	buildings []Building
	byName    map[string]BuildingID
	links     []link

	// Adjacency in CSR form. firstOut[w]..firstOut[w+1] index adj for waypoint w,
	// in link insertion order.
	firstOut []uint32
	adj      []Edge

	component     []uint32 // union-find root per waypoint
	componentSize []uint32 // waypoints in that component
}

// clone copies b so callers cannot reach the map's floor lists.
func (b Building) clone() Building {
	b.Floors = slices.Clone(b.Floors)
	return b
}

// Buildings returns all buildings in load order.
func (m *Map) Buildings() []Building {
	bs := make([]Building, len(m.buildings))
	for i, b := range m.buildings {
		bs[i] = b.clone()
	}
	return bs
}

// BuildingByID looks a building up by its unique name.
func (m *Map) BuildingByID(name string) (Building, error) {
	id, ok := m.byName[name]
	if !ok {
		return Building{}, fmt.Errorf("building %q: %w", name, ErrNotFound)
	}
	return m.buildings[id].clone(), nil
}

// Lookup returns the building with the given index, or ErrNotFound when the
// index is out of range.
func (m *Map) Lookup(id BuildingID) (Building, error) {
	if int(id) >= len(m.buildings) {
		return Building{}, fmt.Errorf("building %d: %w", id, ErrNotFound)
	}
	return m.buildings[id].clone(), nil
}

// Building returns the building with the given index. It panics on an
// unknown index; use Lookup for ids from outside the map.
func (m *Map) Building(id BuildingID) Building {
	return m.buildings[id].clone()
}

// BuildingName returns the name of a building, or "" for NoBuilding.
func (m *Map) BuildingName(id BuildingID) string {
	if id == NoBuilding || int(id) >= len(m.buildings) {
		return ""
	}
	return m.buildings[id].Name
}

// Floor returns the floor with the given index.
func (m *Map) Floor(id FloorID) Floor {
	f := m.floors[id]
	f.Waypoints = slices.Clone(f.Waypoints)
	return f
}

// Waypoint returns the waypoint with the given index.
func (m *Map) Waypoint(id WaypointID) Waypoint {
	return m.waypoints[id]
}

// Anchor returns the routing anchor of a building: its main floor position.
func (m *Map) Anchor(id BuildingID) Waypoint {
	return m.waypoints[m.floors[m.buildings[id].MainFloor].Position]
}

// Neighbors returns the edges leaving w in insertion order. The returned slice
// is shared with the map and must not be modified.
func (m *Map) Neighbors(w WaypointID) []Edge {
	start, end := m.firstOut[w], m.firstOut[w+1]
	return m.adj[start:end:end]
}

// Connected reports whether a path exists between a and b.
func (m *Map) Connected(a, b WaypointID) bool {
	return m.component[a] == m.component[b]
}

// NumWaypoints returns the number of waypoints.
func (m *Map) NumWaypoints() int { return len(m.waypoints) }

// NumFloors returns the number of floors.
func (m *Map) NumFloors() int { return len(m.floors) }

// NumBuildings returns the number of buildings.
func (m *Map) NumBuildings() int { return len(m.buildings) }

// NumEdges returns the number of undirected edges.
func (m *Map) NumEdges() int { return len(m.links) }
