package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"campus_router/pkg/geo"
	"campus_router/pkg/graph"
	"campus_router/pkg/routing"
)

// HandlerOptions holds the static data the handlers serve alongside queries.
type HandlerOptions struct {
	Buildings    []BuildingJSON
	Dimensions   geo.Dimensions // map image size, for tap coordinates
	TapThreshold float64        // zero selects routing.DefaultTapThreshold
	Logger       *zap.Logger
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	planner routing.Planner
	stats   StatsResponse
	opts    HandlerOptions
	log     *zap.Logger
}

// NewHandlers creates handlers with the given planner.
func NewHandlers(planner routing.Planner, stats StatsResponse, opts HandlerOptions) *Handlers {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TapThreshold <= 0 {
		opts.TapThreshold = routing.DefaultTapThreshold
	}
	return &Handlers{
		planner: planner,
		stats:   stats,
		opts:    opts,
		log:     log,
	}
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Parse request.
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	if req.From == "" {
		writeError(w, http.StatusBadRequest, "missing_building", "from")
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "missing_building", "to")
		return
	}
	if req.Format != "" && req.Format != "geojson" {
		writeError(w, http.StatusBadRequest, "invalid_format", "format")
		return
	}

	// Route.
	d, err := h.planner.Directions(r.Context(), req.From, req.To)
	if err != nil {
		switch {
		case errors.Is(err, graph.ErrNotFound):
			writeError(w, http.StatusNotFound, "unknown_building", "")
		case errors.Is(err, routing.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, "same_building", "")
		case errors.Is(err, routing.ErrNoRoute):
			writeError(w, http.StatusNotFound, "no_route_found", "")
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
		default:
			h.log.Error("route query failed", zap.String("from", req.From), zap.String("to", req.To), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	if req.Format == "geojson" {
		w.Header().Set("Content-Type", "application/geo+json")
		json.NewEncoder(w).Encode(routing.ToGeoJSON(d))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newRouteResponse(d))
}

// HandleNearest handles GET /api/v1/nearest?x=&y=. x and y are the tap
// position relative to the map image, each in [0, 1].
func (h *Handlers) HandleNearest(w http.ResponseWriter, r *http.Request) {
	fx, err := parseFraction(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "x")
		return
	}
	fy, err := parseFraction(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "y")
		return
	}

	p := h.opts.Dimensions.FromTap(fx, fy)
	b, ok := h.planner.NearestBuilding(p[0], p[1], h.opts.TapThreshold)
	if !ok {
		writeError(w, http.StatusNotFound, "no_building_nearby", "")
		return
	}

	resp := NearestResponse{Building: b.Name}
	for _, c := range h.opts.Buildings {
		if c.ID == b.Name {
			resp.Position = c.Position
			break
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleBuildings handles GET /api/v1/buildings.
func (h *Handlers) HandleBuildings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.opts.Buildings)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.stats)
}

func parseFraction(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, errors.New("tap coordinate must be within [0, 1]")
	}
	return v, nil
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
