package osm

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"go.uber.org/zap"

	"campus_router/pkg/geo"
	"campus_router/pkg/graph"
)

// Tags read from campus nodes and ways.
const (
	TagBuilding = "campus:building" // node: id of the building it belongs to
	TagMain     = "campus:main"     // node: "yes" marks the building's main floor
	TagWeight   = "campus:weight"   // way: per-segment weight override
	TagLevel    = "level"           // node: floor name, default "0"
)

// Format is an OSM file encoding.
type Format int

const (
	FormatXML Format = iota
	FormatPBF
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".pbf") {
		return FormatPBF
	}
	return FormatXML
}

// walkableHighways lists highway tag values a pedestrian can use.
var walkableHighways = map[string]bool{
	"footway":       true,
	"path":          true,
	"pedestrian":    true,
	"corridor":      true,
	"steps":         true,
	"elevator":      true,
	"living_street": true,
	"service":       true,
}

// isWalkable returns true if the way can be walked.
func isWalkable(tags osm.Tags) bool {
	if !walkableHighways[tags.Find("highway")] {
		return false
	}

	// Skip restricted access.
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("foot") == "no" {
		return false
	}
	return true
}

// wayInfo holds parsed way data collected during Pass 1.
type wayInfo struct {
	NodeIDs []osm.NodeID
	Weight  *float64
}

// nodeInfo holds a node's position and campus tags collected during Pass 2.
type nodeInfo struct {
	ID       osm.NodeID
	Lat, Lon float64
	Building string
	Level    string
	Main     bool
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	Format Format
	BBox   geo.BBox       // if non-zero, drop segments with an endpoint outside
	Size   geo.Dimensions // map image the coordinates are projected onto; DefaultSize if zero
	Logger *zap.Logger
}

// DefaultSize is the map image size used when ParseOptions.Size is zero.
var DefaultSize = geo.Dimensions{Width: 3000, Height: 2000}

// Parse reads OSM data and returns campus map loader output. Nodes tagged
// campus:building become floor waypoints; every other node on a walkable way
// is a path junction. Coordinates are projected into map pixels.
//
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*graph.MapData, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opt.Size == (geo.Dimensions{}) {
		opt.Size = DefaultSize
	}

	// Pass 1: Scan ways to collect referenced node IDs and way info.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := newScanner(ctx, rs, opt.Format, true, false)
	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !isWalkable(w.Tags) || len(w.Nodes) < 2 {
			continue
		}

		info := wayInfo{NodeIDs: make([]osm.NodeID, len(w.Nodes))}
		if v := w.Tags.Find(TagWeight); v != "" {
			weight, err := strconv.ParseFloat(v, 64)
			if err != nil || weight < 0 {
				scanner.Close()
				return nil, fmt.Errorf("%w: way %d: bad %s %q", graph.ErrMalformedMapData, w.ID, TagWeight, v)
			}
			info.Weight = graph.WeightOf(weight)
		}
		for i, wn := range w.Nodes {
			info.NodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}
		ways = append(ways, info)
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	log.Info("pass 1 complete", zap.Int("ways", len(ways)), zap.Int("referenced_nodes", len(referencedNodes)))

	// Pass 2: Scan nodes for coordinates of referenced nodes and every
	// building node.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodes := make(map[osm.NodeID]nodeInfo, len(referencedNodes))
	scanner = newScanner(ctx, rs, opt.Format, false, true)
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		building := n.Tags.Find(TagBuilding)
		if _, needed := referencedNodes[n.ID]; !needed && building == "" {
			continue
		}
		info := nodeInfo{ID: n.ID, Lat: n.Lat, Lon: n.Lon, Building: building}
		if building != "" {
			info.Level = n.Tags.Find(TagLevel)
			if info.Level == "" {
				info.Level = "0"
			}
			info.Main = n.Tags.Find(TagMain) == "yes"
		}
		nodes[n.ID] = info
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	log.Info("pass 2 complete", zap.Int("nodes", len(nodes)))

	return buildMapData(nodes, ways, opt, log)
}

func newScanner(ctx context.Context, r io.Reader, f Format, skipNodes, skipWays bool) osm.Scanner {
	if f == FormatPBF {
		s := osmpbf.New(ctx, r, 1)
		s.SkipNodes = skipNodes
		s.SkipWays = skipWays
		s.SkipRelations = true
		return s
	}
	return osmxml.New(ctx, r)
}

func nodeKey(id osm.NodeID) string {
	return "n" + strconv.FormatInt(int64(id), 10)
}

// buildMapData projects the collected nodes and turns them into loader output.
func buildMapData(nodes map[osm.NodeID]nodeInfo, ways []wayInfo, opt ParseOptions, log *zap.Logger) (*graph.MapData, error) {
	useBBox := !opt.BBox.IsZero()

	// Node IDs in ascending order keep the output independent of map order.
	ids := make([]osm.NodeID, 0, len(nodes))
	for id, n := range nodes {
		if useBBox && !opt.BBox.Contains(n.Lat, n.Lon) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	bounds := opt.BBox
	if !useBBox {
		for _, id := range ids {
			bounds = bounds.Extend(nodes[id].Lat, nodes[id].Lon)
		}
	}
	proj := geo.Projection{Bounds: bounds, Size: opt.Size}

	data := &graph.MapData{}
	kept := make(map[osm.NodeID]bool, len(ids))
	type floorKey struct{ building, level string }
	floorPos := make(map[floorKey]string)
	buildingIdx := make(map[string]int)

	for _, id := range ids {
		n := nodes[id]
		x, y := proj.ToPixel(n.Lat, n.Lon)
		key := nodeKey(id)
		kept[id] = true

		wr := graph.WaypointRecord{Key: key, X: x, Y: y}
		if n.Building != "" {
			bi, ok := buildingIdx[n.Building]
			if !ok {
				bi = len(data.Buildings)
				buildingIdx[n.Building] = bi
				data.Buildings = append(data.Buildings, graph.BuildingRecord{ID: n.Building})
			}
			b := &data.Buildings[bi]
			fk := floorKey{n.Building, n.Level}
			if _, ok := floorPos[fk]; !ok {
				// The lowest node id on a floor is its position.
				floorPos[fk] = key
				b.Floors = append(b.Floors, graph.FloorRecord{Name: n.Level, Position: key})
			} else {
				wr.Building, wr.Floor = n.Building, n.Level
			}
			if n.Main {
				if b.MainFloor != "" && b.MainFloor != n.Level {
					return nil, fmt.Errorf("%w: building %q has main floors %q and %q", graph.ErrMalformedMapData, n.Building, b.MainFloor, n.Level)
				}
				b.MainFloor = n.Level
			}
		}
		data.Waypoints = append(data.Waypoints, wr)
	}

	for i := range data.Buildings {
		b := &data.Buildings[i]
		if b.MainFloor == "" && len(b.Floors) > 1 {
			log.Warn("building has no main floor tag, using its first floor",
				zap.String("building", b.ID), zap.String("floor", b.Floors[0].Name))
			b.MainFloor = b.Floors[0].Name
		}
	}

	var skipped, filtered int
	for _, w := range ways {
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			from, to := w.NodeIDs[i], w.NodeIDs[i+1]
			_, fromOk := nodes[from]
			_, toOk := nodes[to]
			if !fromOk || !toOk {
				skipped++
				continue
			}
			if !kept[from] || !kept[to] {
				filtered++
				continue
			}
			if from == to {
				continue
			}
			data.Edges = append(data.Edges, graph.EdgeRecord{From: nodeKey(from), To: nodeKey(to), Weight: w.Weight})
		}
	}

	if skipped > 0 {
		log.Warn("skipped edges due to missing node coordinates", zap.Int("edges", skipped))
	}
	if filtered > 0 {
		log.Info("filtered edges outside bounding box", zap.Int("edges", filtered))
	}
	log.Info("built campus map data",
		zap.Int("buildings", len(data.Buildings)),
		zap.Int("waypoints", len(data.Waypoints)),
		zap.Int("edges", len(data.Edges)))

	return data, nil
}
