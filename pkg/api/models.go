package api

import (
	"campus_router/pkg/graph"
	"campus_router/pkg/routing"
)

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Format string `json:"format,omitempty"` // "" or "geojson"
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	From         string       `json:"from"`
	To           string       `json:"to"`
	Weight       float64      `json:"weight"`
	Through      []string     `json:"through"`
	Steps        []StepJSON   `json:"steps"`
	Instructions []string     `json:"instructions"`
	Markers      []MarkerJSON `json:"markers"`
}

// StepJSON is one contracted step: the polyline to draw and its instruction.
type StepJSON struct {
	Kind        string      `json:"kind"`
	Instruction string      `json:"instruction"`
	Turn        bool        `json:"turn"` // walker changes direction here
	Building    string      `json:"building,omitempty"`
	Path        []PointJSON `json:"path"`
}

// PointJSON is a map-pixel coordinate.
type PointJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MarkerJSON is a label position for a building on the route.
type MarkerJSON struct {
	Building string  `json:"building"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// NearestResponse is the JSON response for GET /api/v1/nearest.
type NearestResponse struct {
	Building string    `json:"building"`
	Position PointJSON `json:"position"`
}

// BuildingJSON describes a building for clients drawing the map.
type BuildingJSON struct {
	ID       string    `json:"id"`
	Floors   []string  `json:"floors"`
	Main     string    `json:"main_floor"`
	Position PointJSON `json:"position"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumBuildings  int `json:"num_buildings"`
	NumFloors     int `json:"num_floors"`
	NumWaypoints  int `json:"num_waypoints"`
	NumEdges      int `json:"num_edges"`
	NumComponents int `json:"num_components"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// Catalog lists every building of m with its anchor position.
func Catalog(m *graph.Map) []BuildingJSON {
	bs := m.Buildings()
	out := make([]BuildingJSON, len(bs))
	for i, b := range bs {
		floors := make([]string, len(b.Floors))
		for j, f := range b.Floors {
			floors[j] = m.Floor(f).Name
		}
		a := m.Anchor(b.ID)
		out[i] = BuildingJSON{
			ID:       b.Name,
			Floors:   floors,
			Main:     m.Floor(b.MainFloor).Name,
			Position: PointJSON{X: a.X, Y: a.Y},
		}
	}
	return out
}

// Stats summarizes m.
func Stats(m *graph.Map) StatsResponse {
	return StatsResponse{
		NumBuildings:  m.NumBuildings(),
		NumFloors:     m.NumFloors(),
		NumWaypoints:  m.NumWaypoints(),
		NumEdges:      m.NumEdges(),
		NumComponents: m.NumComponents(),
	}
}

func newRouteResponse(d *routing.Directions) RouteResponse {
	r := d.Route
	resp := RouteResponse{
		From:         r.Name(r.From),
		To:           r.Name(r.To),
		Weight:       r.Weight,
		Steps:        make([]StepJSON, len(r.Steps)),
		Instructions: make([]string, len(d.Instructions)),
		Markers:      make([]MarkerJSON, len(d.Markers)),
	}
	for _, id := range r.ThroughBuildings() {
		resp.Through = append(resp.Through, r.Name(id))
	}
	for i, in := range d.Instructions {
		resp.Instructions[i] = in.Text
	}
	for i, s := range r.Steps {
		path := make([]PointJSON, len(s.Path))
		for j, w := range s.Path {
			path[j] = PointJSON{X: w.X, Y: w.Y}
		}
		step := StepJSON{Building: r.Name(s.Building), Path: path}
		if i < len(d.Instructions) {
			step.Kind = string(d.Instructions[i].Kind)
			step.Instruction = d.Instructions[i].Text
			step.Turn = d.Instructions[i].Kind.IsTurn()
		}
		resp.Steps[i] = step
	}
	for i, m := range d.Markers {
		resp.Markers[i] = MarkerJSON{Building: m.Building, X: m.X, Y: m.Y}
	}
	return resp
}
