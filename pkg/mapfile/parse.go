// Package mapfile reads campus maps: the line-oriented text format, OSM
// extracts, and compiled binary snapshots.
//
// The text format has one directive per line; '#' starts a comment.
//
//	building <id>
//	floor <name> <x> <y> [main]
//	waypoint <key> <x> <y> [<building>[:<floor>]]
//	path <ref> <ref>... [weight=<w>]
//
// floor belongs to the most recent building and creates the waypoint
// "<building>:<floor>" at (x, y). A path joins consecutive refs. A ref is a
// waypoint key, "<building>:<floor>", a bare building id (its main floor),
// or an anonymous junction "(x,y)".
package mapfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"campus_router/pkg/graph"
)

type parser struct {
	data     *graph.MapData
	building int // index into data.Buildings, -1 before the first building
	keys     map[string]bool
	bare     map[string]bool // building ids, for resolving bare refs
	pending  []pendingRef
	line     int
}

// pendingRef is a bare building ref in an edge, resolved once all floors
// (and main floor markers) are known.
type pendingRef struct {
	edge int
	from bool
	line int
	id   string
}

// Parse reads a text map into loader output. Errors name the offending line
// and wrap graph.ErrMalformedMapData.
func Parse(r io.Reader) (*graph.MapData, error) {
	p := &parser{
		data:     &graph.MapData{},
		building: -1,
		keys:     make(map[string]bool),
		bare:     make(map[string]bool),
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		p.line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if err := p.directive(fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := p.resolvePending(); err != nil {
		return nil, err
	}
	return p.data, nil
}

func (p *parser) directive(f []string) error {
	switch f[0] {
	case "building":
		return p.parseBuilding(f[1:])
	case "floor":
		return p.parseFloor(f[1:])
	case "waypoint":
		return p.parseWaypoint(f[1:])
	case "path":
		return p.parsePath(f[1:])
	}
	return fmt.Errorf("%w: unknown directive %q", graph.ErrMalformedMapData, f[0])
}

func (p *parser) parseBuilding(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: building takes an id", graph.ErrMalformedMapData)
	}
	id := args[0]
	if strings.ContainsAny(id, ":(),") {
		return fmt.Errorf("%w: building id %q may not contain ':', ',' or parentheses", graph.ErrMalformedMapData, id)
	}
	// Duplicate ids are reported by graph.Build.
	p.bare[id] = true
	p.data.Buildings = append(p.data.Buildings, graph.BuildingRecord{ID: id})
	p.building = len(p.data.Buildings) - 1
	return nil
}

func (p *parser) parseFloor(args []string) error {
	if p.building < 0 {
		return fmt.Errorf("%w: floor outside a building", graph.ErrMalformedMapData)
	}
	if len(args) != 3 && !(len(args) == 4 && args[3] == "main") {
		return fmt.Errorf("%w: floor takes <name> <x> <y> [main]", graph.ErrMalformedMapData)
	}
	x, y, err := parseXY(args[1], args[2])
	if err != nil {
		return err
	}
	b := &p.data.Buildings[p.building]
	key := b.ID + ":" + args[0]
	if err := p.addWaypoint(graph.WaypointRecord{Key: key, X: x, Y: y}); err != nil {
		return err
	}
	b.Floors = append(b.Floors, graph.FloorRecord{Name: args[0], Position: key})
	if len(args) == 4 {
		if b.MainFloor != "" {
			return fmt.Errorf("%w: building %q has two main floors", graph.ErrMalformedMapData, b.ID)
		}
		b.MainFloor = args[0]
	}
	return nil
}

func (p *parser) parseWaypoint(args []string) error {
	if len(args) != 3 && len(args) != 4 {
		return fmt.Errorf("%w: waypoint takes <key> <x> <y> [building[:floor]]", graph.ErrMalformedMapData)
	}
	x, y, err := parseXY(args[1], args[2])
	if err != nil {
		return err
	}
	wr := graph.WaypointRecord{Key: args[0], X: x, Y: y}
	if len(args) == 4 {
		wr.Building, wr.Floor, _ = strings.Cut(args[3], ":")
	}
	return p.addWaypoint(wr)
}

func (p *parser) parsePath(args []string) error {
	var weight *float64
	if n := len(args); n > 0 && strings.HasPrefix(args[n-1], "weight=") {
		w, err := strconv.ParseFloat(strings.TrimPrefix(args[n-1], "weight="), 64)
		if err != nil {
			return fmt.Errorf("%w: bad weight %q", graph.ErrMalformedMapData, args[n-1])
		}
		weight = graph.WeightOf(w)
		args = args[:n-1]
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: path needs at least two waypoints", graph.ErrMalformedMapData)
	}

	keys := make([]string, len(args))
	for i, ref := range args {
		k, err := p.ref(ref)
		if err != nil {
			return err
		}
		keys[i] = k
	}
	for i := 1; i < len(keys); i++ {
		e := len(p.data.Edges)
		p.data.Edges = append(p.data.Edges, graph.EdgeRecord{From: keys[i-1], To: keys[i], Weight: weight})
		if p.bare[args[i-1]] && !p.keys[args[i-1]] {
			p.pending = append(p.pending, pendingRef{edge: e, from: true, line: p.line, id: args[i-1]})
		}
		if p.bare[args[i]] && !p.keys[args[i]] {
			p.pending = append(p.pending, pendingRef{edge: e, line: p.line, id: args[i]})
		}
	}
	return nil
}

// ref returns the waypoint key a path ref names. Junction refs create their
// waypoint on first use; bare building ids are returned as-is and resolved
// at the end of the file.
func (p *parser) ref(ref string) (string, error) {
	if strings.HasPrefix(ref, "(") {
		inner, ok := strings.CutSuffix(ref[1:], ")")
		xs, ys, ok2 := strings.Cut(inner, ",")
		if !ok || !ok2 {
			return "", fmt.Errorf("%w: bad junction %q", graph.ErrMalformedMapData, ref)
		}
		x, y, err := parseXY(xs, ys)
		if err != nil {
			return "", err
		}
		key := fmt.Sprintf("@%d,%d", x, y)
		if !p.keys[key] {
			p.keys[key] = true
			p.data.Waypoints = append(p.data.Waypoints, graph.WaypointRecord{Key: key, X: x, Y: y})
		}
		return key, nil
	}
	if p.keys[ref] || p.bare[ref] {
		return ref, nil
	}
	return "", fmt.Errorf("%w: unknown waypoint %q", graph.ErrMalformedMapData, ref)
}

func (p *parser) resolvePending() error {
	mains := make(map[string]string, len(p.data.Buildings))
	for _, b := range p.data.Buildings {
		switch {
		case b.MainFloor != "":
			mains[b.ID] = b.ID + ":" + b.MainFloor
		case len(b.Floors) == 1:
			mains[b.ID] = b.Floors[0].Position
		}
	}
	for _, pr := range p.pending {
		key, ok := mains[pr.id]
		if !ok {
			return fmt.Errorf("line %d: %w: building %q used in a path has no main floor", pr.line, graph.ErrMalformedMapData, pr.id)
		}
		e := &p.data.Edges[pr.edge]
		if pr.from {
			e.From = key
		} else {
			e.To = key
		}
	}
	return nil
}

func (p *parser) addWaypoint(wr graph.WaypointRecord) error {
	if p.keys[wr.Key] {
		return fmt.Errorf("%w: duplicate waypoint %q", graph.ErrMalformedMapData, wr.Key)
	}
	p.keys[wr.Key] = true
	p.data.Waypoints = append(p.data.Waypoints, wr)
	return nil
}

func parseXY(xs, ys string) (x, y int, err error) {
	x, err = strconv.Atoi(xs)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad coordinate %q", graph.ErrMalformedMapData, xs)
	}
	y, err = strconv.Atoi(ys)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad coordinate %q", graph.ErrMalformedMapData, ys)
	}
	return x, y, nil
}
