package graph

import (
	"fmt"
	"math"

	"campus_router/pkg/geo"
)

// MapData is the output contract of a map loader.
type MapData struct {
	Buildings []BuildingRecord
	Waypoints []WaypointRecord
	Edges     []EdgeRecord
}

// BuildingRecord describes a building and its floors. MainFloor may be left
// empty when the building has a single floor.
type BuildingRecord struct {
	ID        string
	Floors    []FloorRecord
	MainFloor string
}

// FloorRecord names a floor and the key of its position waypoint.
type FloorRecord struct {
	Name     string
	Position string
}

// WaypointRecord is a waypoint keyed by a loader-chosen string. Building and
// Floor are optional; Floor requires Building.
type WaypointRecord struct {
	Key      string
	X, Y     int
	Building string
	Floor    string
}

// EdgeRecord is an undirected edge between two waypoint keys. A nil Weight
// means the planar distance between the endpoints; an explicit zero is a
// free link such as an elevator lobby.
type EdgeRecord struct {
	From, To string
	Weight   *float64
}

// WeightOf returns an explicit edge weight override.
func WeightOf(w float64) *float64 {
	return &w
}

// arena is the index-addressed form of a map before adjacency is built.
type arena struct {
	waypoints []Waypoint
	floors    []Floor
	buildings []Building
	links     []link
}

// Build validates loader output and creates the Map.
func Build(data *MapData) (*Map, error) {
	var a arena

	// Step 1: Buildings and floors.
	byName := make(map[string]BuildingID, len(data.Buildings))
	type floorKey struct {
		building BuildingID
		name     string
	}
	floorIDs := make(map[floorKey]FloorID)

	for _, br := range data.Buildings {
		if br.ID == "" {
			return nil, fmt.Errorf("%w: building with empty id", ErrMalformedMapData)
		}
		if _, dup := byName[br.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate building id %q", ErrMalformedMapData, br.ID)
		}
		if len(br.Floors) == 0 {
			return nil, fmt.Errorf("%w: building %q has no floors", ErrMalformedMapData, br.ID)
		}

		bid := BuildingID(len(a.buildings))
		byName[br.ID] = bid
		b := Building{ID: bid, Name: br.ID, MainFloor: NoFloor}

		mainName := br.MainFloor
		if mainName == "" && len(br.Floors) == 1 {
			mainName = br.Floors[0].Name
		}

		for _, fr := range br.Floors {
			k := floorKey{bid, fr.Name}
			if _, dup := floorIDs[k]; dup {
				return nil, fmt.Errorf("%w: building %q: duplicate floor %q", ErrMalformedMapData, br.ID, fr.Name)
			}
			fid := FloorID(len(a.floors))
			floorIDs[k] = fid
			a.floors = append(a.floors, Floor{ID: fid, Name: fr.Name, Building: bid, Position: NoWaypoint})
			b.Floors = append(b.Floors, fid)
			if fr.Name == mainName {
				b.MainFloor = fid
			}
		}
		if b.MainFloor == NoFloor {
			return nil, fmt.Errorf("%w: building %q: main floor %q is not one of its floors", ErrMalformedMapData, br.ID, br.MainFloor)
		}
		a.buildings = append(a.buildings, b)
	}

	// Step 2: Waypoints.
	keys := make(map[string]WaypointID, len(data.Waypoints))
	for _, wr := range data.Waypoints {
		if wr.Key == "" {
			return nil, fmt.Errorf("%w: waypoint with empty key", ErrMalformedMapData)
		}
		if _, dup := keys[wr.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate waypoint %q", ErrMalformedMapData, wr.Key)
		}
		w := Waypoint{ID: WaypointID(len(a.waypoints)), X: wr.X, Y: wr.Y, Building: NoBuilding, Floor: NoFloor}
		if wr.Building != "" {
			bid, ok := byName[wr.Building]
			if !ok {
				return nil, fmt.Errorf("%w: waypoint %q: unknown building %q", ErrMalformedMapData, wr.Key, wr.Building)
			}
			w.Building = bid
		}
		if wr.Floor != "" {
			if w.Building == NoBuilding {
				return nil, fmt.Errorf("%w: waypoint %q: floor %q without building", ErrMalformedMapData, wr.Key, wr.Floor)
			}
			fid, ok := floorIDs[floorKey{w.Building, wr.Floor}]
			if !ok {
				return nil, fmt.Errorf("%w: waypoint %q: building %q has no floor %q", ErrMalformedMapData, wr.Key, wr.Building, wr.Floor)
			}
			w.Floor = fid
		}
		keys[wr.Key] = w.ID
		a.waypoints = append(a.waypoints, w)
	}

	// Step 3: Floor positions. The position waypoint joins the floor's building.
	for _, br := range data.Buildings {
		bid := byName[br.ID]
		for _, fr := range br.Floors {
			fid := floorIDs[floorKey{bid, fr.Name}]
			wid, ok := keys[fr.Position]
			if !ok {
				return nil, fmt.Errorf("%w: building %q floor %q: unknown position waypoint %q", ErrMalformedMapData, br.ID, fr.Name, fr.Position)
			}
			w := &a.waypoints[wid]
			if w.Building != NoBuilding && w.Building != bid {
				return nil, fmt.Errorf("%w: waypoint %q belongs to %q, not %q", ErrMalformedMapData, fr.Position, a.buildings[w.Building].Name, br.ID)
			}
			if w.Floor != NoFloor && w.Floor != fid {
				return nil, fmt.Errorf("%w: waypoint %q is the position of two floors", ErrMalformedMapData, fr.Position)
			}
			w.Building = bid
			w.Floor = fid
			a.floors[fid].Position = wid
		}
	}

	// Step 4: Edges, weighted by planar distance unless overridden.
	for i, er := range data.Edges {
		from, ok := keys[er.From]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d references unknown waypoint %q", ErrMalformedMapData, i, er.From)
		}
		to, ok := keys[er.To]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d references unknown waypoint %q", ErrMalformedMapData, i, er.To)
		}
		weight := geo.Distance(a.waypoints[from].Point(), a.waypoints[to].Point())
		if er.Weight != nil {
			weight = *er.Weight
		}
		a.links = append(a.links, link{a: from, b: to, weight: weight})
	}

	return a.finish()
}

// finish checks the index-level invariants and builds adjacency and
// component labels. It is shared by Build and ReadBinary.
func (a *arena) finish() (*Map, error) {
	numWaypoints := uint32(len(a.waypoints))
	numFloors := FloorID(len(a.floors))
	numBuildings := BuildingID(len(a.buildings))

	byName := make(map[string]BuildingID, len(a.buildings))
	for i := range a.buildings {
		b := &a.buildings[i]
		if _, dup := byName[b.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate building id %q", ErrMalformedMapData, b.Name)
		}
		byName[b.Name] = b.ID
		b.Floors = b.Floors[:0]
	}

	// Rebuild ownership lists from the floor and waypoint side so the two
	// directions cannot disagree.
	for i := range a.floors {
		f := &a.floors[i]
		if f.Building >= numBuildings {
			return nil, fmt.Errorf("%w: floor %q has no building", ErrMalformedMapData, f.Name)
		}
		if uint32(f.Position) >= numWaypoints {
			return nil, fmt.Errorf("%w: floor %q has no position", ErrMalformedMapData, f.Name)
		}
		if p := a.waypoints[f.Position]; p.Building != f.Building || p.Floor != f.ID {
			return nil, fmt.Errorf("%w: floor %q position is not on the floor", ErrMalformedMapData, f.Name)
		}
		f.Waypoints = nil
		b := &a.buildings[f.Building]
		b.Floors = append(b.Floors, f.ID)
	}
	for _, w := range a.waypoints {
		if w.Building != NoBuilding && w.Building >= numBuildings {
			return nil, fmt.Errorf("%w: waypoint %d has unknown building", ErrMalformedMapData, w.ID)
		}
		if w.Floor == NoFloor {
			continue
		}
		if w.Floor >= numFloors || a.floors[w.Floor].Building != w.Building {
			return nil, fmt.Errorf("%w: waypoint %d has a floor outside its building", ErrMalformedMapData, w.ID)
		}
		f := &a.floors[w.Floor]
		f.Waypoints = append(f.Waypoints, w.ID)
	}
	for _, b := range a.buildings {
		if len(b.Floors) == 0 {
			return nil, fmt.Errorf("%w: building %q has no floors", ErrMalformedMapData, b.Name)
		}
		if b.MainFloor >= numFloors || a.floors[b.MainFloor].Building != b.ID {
			return nil, fmt.Errorf("%w: building %q main floor is not its own", ErrMalformedMapData, b.Name)
		}
	}

	for i, l := range a.links {
		if uint32(l.a) >= numWaypoints || uint32(l.b) >= numWaypoints {
			return nil, fmt.Errorf("%w: edge %d references unknown waypoint", ErrMalformedMapData, i)
		}
		if l.a == l.b {
			return nil, fmt.Errorf("%w: edge %d is a self loop", ErrMalformedMapData, i)
		}
		if l.weight < 0 || math.IsNaN(l.weight) || math.IsInf(l.weight, 0) {
			return nil, fmt.Errorf("%w: edge %d has invalid weight %v", ErrMalformedMapData, i, l.weight)
		}
	}

	// Build FirstOut via counting. Each undirected link contributes one entry
	// per endpoint.
	firstOut := make([]uint32, numWaypoints+1)
	for _, l := range a.links {
		firstOut[l.a+1]++
		firstOut[l.b+1]++
	}
	// Prefix sum.
	for i := uint32(1); i <= numWaypoints; i++ {
		firstOut[i] += firstOut[i-1]
	}

	// Place edges in link order so neighbour iteration follows insertion order.
	adj := make([]Edge, 2*len(a.links))
	pos := make([]uint32, numWaypoints)
	copy(pos, firstOut[:numWaypoints])
	for _, l := range a.links {
		adj[pos[l.a]] = Edge{To: l.b, Weight: l.weight}
		pos[l.a]++
		adj[pos[l.b]] = Edge{To: l.a, Weight: l.weight}
		pos[l.b]++
	}

	m := &Map{
		waypoints: a.waypoints,
		floors:    a.floors,
		buildings: a.buildings,
		byName:    byName,
		links:     a.links,
		firstOut:  firstOut,
		adj:       adj,
	}
	m.component, m.componentSize = labelComponents(numWaypoints, a.links)
	return m, nil
}
