package mapfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"campus_router/pkg/graph"
)

const campusText = `# Two buildings joined by a tunnel.
building MC
floor 1 100 100
floor 3 100 100 main
waypoint mc-east 140 100 MC:3

building DC
floor 2 300 100

path MC:1 MC:3 weight=30
path MC mc-east (200,100) DC
path (200,100) (200,200)   # dead end
`

func TestParse(t *testing.T) {
	data, err := Parse(strings.NewReader(campusText))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := &graph.MapData{
		Buildings: []graph.BuildingRecord{
			{
				ID:        "MC",
				Floors:    []graph.FloorRecord{{Name: "1", Position: "MC:1"}, {Name: "3", Position: "MC:3"}},
				MainFloor: "3",
			},
			{ID: "DC", Floors: []graph.FloorRecord{{Name: "2", Position: "DC:2"}}},
		},
		Waypoints: []graph.WaypointRecord{
			{Key: "MC:1", X: 100, Y: 100},
			{Key: "MC:3", X: 100, Y: 100},
			{Key: "mc-east", X: 140, Y: 100, Building: "MC", Floor: "3"},
			{Key: "DC:2", X: 300, Y: 100},
			{Key: "@200,100", X: 200, Y: 100},
			{Key: "@200,200", X: 200, Y: 200},
		},
		Edges: []graph.EdgeRecord{
			{From: "MC:1", To: "MC:3", Weight: graph.WeightOf(30)},
			{From: "MC:3", To: "mc-east"},
			{From: "mc-east", To: "@200,100"},
			{From: "@200,100", To: "DC:2"},
			{From: "@200,100", To: "@200,200"},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("MapData mismatch (-want +got):\n%s", diff)
	}

	if _, err := graph.Build(data); err != nil {
		t.Errorf("Build: %v", err)
	}
}

func TestParseZeroWeight(t *testing.T) {
	text := "building A\nfloor 1 0 0\nbuilding B\nfloor 1 30 0\npath A:1 B:1 weight=0\n"
	data, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m, err := graph.Build(data)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	a, _ := m.BuildingByID("A")
	if got := m.Neighbors(m.Anchor(a.ID).ID); len(got) != 1 || got[0].Weight != 0 {
		t.Errorf("Neighbors(A) = %+v, want one free link", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line string
	}{
		{"unknown directive", "room 1", "line 1"},
		{"floor before building", "floor 1 0 0", "line 1"},
		{"bad coordinate", "building A\nfloor 1 x 0", "line 2"},
		{"two main floors", "building A\nfloor 1 0 0 main\nfloor 2 0 0 main", "line 3"},
		{"duplicate waypoint", "building A\nfloor 1 0 0\nwaypoint A:1 5 5", "line 3"},
		{"unknown ref", "building A\nfloor 1 0 0\npath A:1 B:1", "line 3"},
		{"short path", "building A\nfloor 1 0 0\npath A:1 weight=3", "line 3"},
		{"bad weight", "building A\nfloor 1 0 0\npath A:1 (1,1) weight=far", "line 3"},
		{"bad junction", "building A\nfloor 1 0 0\npath A:1 (1;1)", "line 3"},
		{"bare ref without main floor", "building A\nfloor 1 0 0\nfloor 2 0 0\npath A (1,1)", "line 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.text))
			if !errors.Is(err, graph.ErrMalformedMapData) {
				t.Fatalf("err = %v, want ErrMalformedMapData", err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("err = %q, want it to name %s", err, tt.line)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "campus.txt")
	if err := os.WriteFile(path, []byte(campusText), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(context.Background(), path, Options{}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.NumBuildings() != 2 || m.NumWaypoints() != 6 || m.NumEdges() != 5 {
		t.Errorf("counts = %d buildings, %d waypoints, %d edges; want 2, 6, 5",
			m.NumBuildings(), m.NumWaypoints(), m.NumEdges())
	}

	// A compiled snapshot loads to the same map.
	bin := filepath.Join(dir, "campus.bin")
	if err := graph.WriteBinary(bin, m); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}
	m2, err := Load(context.Background(), bin, Options{}, nil)
	if err != nil {
		t.Fatalf("Load snapshot: %v", err)
	}
	if diff := cmp.Diff(m.Buildings(), m2.Buildings()); diff != "" {
		t.Errorf("buildings mismatch (-text +snapshot):\n%s", diff)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(path, []byte("building A\nbuilding A\nfloor 1 0 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// The first A has no floors.
	_, err := Load(context.Background(), path, Options{}, nil)
	if !errors.Is(err, graph.ErrMalformedMapData) {
		t.Fatalf("err = %v, want ErrMalformedMapData", err)
	}
}

func TestKindFromPath(t *testing.T) {
	tests := map[string]Kind{
		"campus.txt":     KindText,
		"campus.map":     KindText,
		"campus.osm":     KindOSM,
		"campus.osm.pbf": KindOSM,
		"campus.BIN":     KindBinary,
	}
	for path, want := range tests {
		if got := KindFromPath(path); got != want {
			t.Errorf("KindFromPath(%q) = %v, want %v", path, got, want)
		}
	}
}
