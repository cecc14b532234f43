package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // max rank is ~30 for realistic graphs
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	// Union by rank.
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in the set containing x.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// labelComponents returns the set representative of every waypoint and the
// size of the set it belongs to.
func labelComponents(n uint32, links []link) (labels, sizes []uint32) {
	uf := NewUnionFind(n)
	for _, l := range links {
		uf.Union(uint32(l.a), uint32(l.b))
	}
	labels = make([]uint32, n)
	sizes = make([]uint32, n)
	for i := range n {
		labels[i] = uf.Find(i)
		sizes[i] = uf.Size(i)
	}
	return labels, sizes
}

// NumComponents returns the number of connected components, counting each
// isolated waypoint as its own component.
func (m *Map) NumComponents() int {
	roots := make(map[uint32]struct{})
	for _, c := range m.component {
		roots[c] = struct{}{}
	}
	return len(roots)
}

// LargestComponent returns the waypoints belonging to the largest connected
// component.
func (m *Map) LargestComponent() []WaypointID {
	if len(m.waypoints) == 0 {
		return nil
	}

	// Find the representative with the largest size. Ties go to the component
	// of the lowest waypoint so the answer is stable.
	bestRoot := m.component[0]
	bestSize := uint32(0)
	for i, c := range m.component {
		if m.componentSize[i] > bestSize {
			bestRoot = c
			bestSize = m.componentSize[i]
		}
	}

	nodes := make([]WaypointID, 0, bestSize)
	for i, c := range m.component {
		if c == bestRoot {
			nodes = append(nodes, WaypointID(i))
		}
	}
	return nodes
}

// IsolatedBuildings returns buildings whose anchor lies outside the largest
// component; no route can reach them from the rest of the campus.
func (m *Map) IsolatedBuildings() []Building {
	largest := m.LargestComponent()
	if len(largest) == 0 {
		return nil
	}
	root := m.component[largest[0]]

	var out []Building
	for _, b := range m.buildings {
		if m.component[m.Anchor(b.ID).ID] != root {
			out = append(out, b)
		}
	}
	return out
}
