package routing

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"campus_router/pkg/graph"
)

type stepShape struct {
	Path     []graph.WaypointID
	Building string
}

func shapes(r *Route) []stepShape {
	out := make([]stepShape, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = stepShape{Path: waypointIDs(s.Path), Building: r.Name(s.Building)}
	}
	return out
}

func TestContract(t *testing.T) {
	tests := []struct {
		name  string
		stops []stop
		want  []stepShape
	}{
		{
			name:  "collinear through junction",
			stops: []stop{{"A", 0, 0, "A"}, {"W", 10, 0, ""}, {"B", 20, 0, "B"}},
			want:  []stepShape{{Path: []graph.WaypointID{0, 1, 2}, Building: "A"}},
		},
		{
			name:  "bend at junction",
			stops: []stop{{"A", 0, 0, "A"}, {"W", 0, 10, ""}, {"B", 10, 10, "B"}},
			want: []stepShape{
				{Path: []graph.WaypointID{0, 1}, Building: "A"},
				{Path: []graph.WaypointID{1, 2}, Building: "A"},
			},
		},
		{
			name: "straight through another building",
			stops: []stop{
				{"A", 0, 0, "A"}, {"j1", 5, 0, ""}, {"H", 10, 0, "H"}, {"j2", 15, 0, ""}, {"B", 20, 0, "B"},
			},
			want: []stepShape{
				{Path: []graph.WaypointID{0, 1, 2}, Building: "A"},
				{Path: []graph.WaypointID{2, 3, 4}, Building: "H"},
			},
		},
		{
			name: "long runs merge between bends",
			stops: []stop{
				{"A", 0, 0, "A"}, {"j1", 0, 5, ""}, {"j2", 0, 10, ""}, {"j3", 5, 10, ""}, {"j4", 10, 10, ""}, {"B", 10, 20, "B"},
			},
			want: []stepShape{
				{Path: []graph.WaypointID{0, 1, 2}, Building: "A"},
				{Path: []graph.WaypointID{2, 3, 4}, Building: "A"},
				{Path: []graph.WaypointID{4, 5}, Building: "A"},
			},
		},
		{
			name:  "two waypoints",
			stops: []stop{{"A", 0, 0, "A"}, {"B", 7, 3, "B"}},
			want:  []stepShape{{Path: []graph.WaypointID{0, 1}, Building: "A"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := walkMap(t, tt.stops...)
			raw := findRoute(t, m, tt.stops[0].key, tt.stops[len(tt.stops)-1].key)
			c := Contract(raw)

			if diff := cmp.Diff(tt.want, shapes(c)); diff != "" {
				t.Errorf("steps mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(raw.Waypoints, c.Flatten()); diff != "" {
				t.Errorf("flatten mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(c, Contract(c)); diff != "" {
				t.Errorf("not idempotent (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestContractStairs(t *testing.T) {
	// Walking up stairs then out: the zero-length leg splits the step.
	data := &graph.MapData{
		Buildings: []graph.BuildingRecord{
			{
				ID:        "MC",
				Floors:    []graph.FloorRecord{{Name: "1", Position: "MC:1"}, {Name: "2", Position: "MC:2"}},
				MainFloor: "2",
			},
			{ID: "DC", Floors: []graph.FloorRecord{{Name: "1", Position: "DC:1"}}},
		},
		Waypoints: []graph.WaypointRecord{
			{Key: "MC:1", X: 0, Y: 0},
			{Key: "MC:2", X: 0, Y: 0},
			{Key: "DC:1", X: 20, Y: 0},
		},
		Edges: []graph.EdgeRecord{
			{From: "MC:2", To: "MC:1", Weight: graph.WeightOf(10)},
			{From: "MC:1", To: "DC:1"},
		},
	}
	m, err := graph.Build(data)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	c := Contract(findRoute(t, m, "MC", "DC"))
	want := []stepShape{
		{Path: []graph.WaypointID{1, 0}, Building: "MC"},
		{Path: []graph.WaypointID{0, 2}, Building: "MC"},
	}
	if diff := cmp.Diff(want, shapes(c)); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestContractDoesNotModifyInput(t *testing.T) {
	m := walkMap(t, stop{"A", 0, 0, "A"}, stop{"W", 10, 0, ""}, stop{"B", 20, 0, "B"})
	raw := findRoute(t, m, "A", "B")
	before := shapes(raw)

	c := Contract(raw)
	c.Waypoints[0].X = 99
	c.Names[raw.From] = "changed"

	if diff := cmp.Diff(before, shapes(raw)); diff != "" {
		t.Errorf("raw steps changed (-want +got):\n%s", diff)
	}
	if raw.Waypoints[0].X != 0 || raw.Name(raw.From) != "A" {
		t.Errorf("raw route modified: %+v", raw.Waypoints[0])
	}
}

func TestThroughBuildings(t *testing.T) {
	m := walkMap(t,
		stop{"A", 0, 0, "A"}, stop{"H", 10, 0, "H"}, stop{"j", 20, 0, ""}, stop{"B", 30, 0, "B"},
	)
	c := Contract(findRoute(t, m, "A", "B"))
	var got []string
	for _, id := range c.ThroughBuildings() {
		got = append(got, c.Name(id))
	}
	if diff := cmp.Diff([]string{"A", "H", "B"}, got); diff != "" {
		t.Errorf("buildings mismatch (-want +got):\n%s", diff)
	}
}
