package routing

import (
	"math"

	"campus_router/pkg/graph"
)

// MinHeap is a concrete-typed min-heap for Dijkstra priority queue.
// Avoids interface boxing overhead of container/heap.
//
// Entries with equal distance pop in push order, which keeps tie-breaking
// between equally short paths reproducible.
type MinHeap struct {
	items []PQItem
	seq   uint64
}

// PQItem is a priority queue entry.
type PQItem struct {
	Node graph.WaypointID
	Dist float64
	seq  uint64
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(node graph.WaypointID, dist float64) {
	h.items = append(h.items, PQItem{Node: node, Dist: dist, seq: h.seq})
	h.seq++
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *MinHeap) less(i, j int) bool {
	if h.items[i].Dist != h.items[j].Dist {
		return h.items[i].Dist < h.items[j].Dist
	}
	return h.items[i].seq < h.items[j].seq
}

func (h *MinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.less(left, smallest) {
			smallest = left
		}
		if right < n && h.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// searchState holds per-query Dijkstra state. A fresh one is used for every
// query so concurrent queries never share it.
type searchState struct {
	dist    []float64
	pred    []graph.WaypointID
	settled []bool
	pq      MinHeap
}

func newSearchState(n int) *searchState {
	dist := make([]float64, n)
	pred := make([]graph.WaypointID, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		pred[i] = graph.NoWaypoint
	}
	return &searchState{
		dist:    dist,
		pred:    pred,
		settled: make([]bool, n),
		pq:      MinHeap{items: make([]PQItem, 0, 64)},
	}
}

// shortestPath runs Dijkstra from source to target and returns the waypoint
// sequence and its total weight. ok is false when target is unreachable.
//
// Relaxation is strict and neighbours are scanned in edge insertion order, so
// among equally short paths the first one discovered wins.
func shortestPath(m *graph.Map, source, target graph.WaypointID) (path []graph.WaypointID, dist float64, ok bool) {
	qs := newSearchState(m.NumWaypoints())
	qs.dist[source] = 0
	qs.pq.Push(source, 0)

	for qs.pq.Len() > 0 {
		item := qs.pq.Pop()
		u := item.Node
		if qs.settled[u] || item.Dist > qs.dist[u] {
			continue // stale entry
		}
		qs.settled[u] = true
		if u == target {
			break
		}

		for _, e := range m.Neighbors(u) {
			if qs.settled[e.To] {
				continue
			}
			newDist := item.Dist + e.Weight
			if newDist < qs.dist[e.To] {
				qs.dist[e.To] = newDist
				qs.pred[e.To] = u
				qs.pq.Push(e.To, newDist)
			}
		}
	}

	if math.IsInf(qs.dist[target], 1) {
		return nil, 0, false
	}

	// Trace predecessors back from target, then reverse.
	for node := target; node != graph.NoWaypoint; node = qs.pred[node] {
		path = append(path, node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, qs.dist[target], true
}
