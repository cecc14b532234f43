package routing

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus_router/pkg/geo"
	"campus_router/pkg/graph"
)

// Planner is the interface for route and proximity queries.
type Planner interface {
	Directions(ctx context.Context, from, to string) (*Directions, error)
	NearestBuilding(x, y, threshold float64) (graph.Building, bool)
}

// Options configures a Service.
type Options struct {
	ToleranceDegrees float64
	MarkerOffset     float64
	CacheEnabled     bool
	CacheTTL         time.Duration
}

// DefaultOptions returns the defaults used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		ToleranceDegrees: geo.DefaultTolerance,
		MarkerOffset:     DefaultMarkerOffset,
		CacheEnabled:     true,
	}
}

// Directions is everything a client needs to draw and read a route.
type Directions struct {
	Route        *Route        `json:"route"`
	Instructions []Instruction `json:"instructions"`
	Markers      []Marker      `json:"markers"`
}

// Text joins the instruction texts, one per line.
func (d *Directions) Text() string {
	var sb strings.Builder
	for i, in := range d.Instructions {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(in.Text)
	}
	return sb.String()
}

// Service implements Planner over a loaded map: find, contract, then describe.
type Service struct {
	m      *graph.Map
	finder *Finder
	index  *BuildingIndex
	cache  *Cache
	opts   Options
	log    *zap.Logger
}

// NewService creates a Service. The cache is only opened when enabled.
func NewService(m *graph.Map, opts Options, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		m:      m,
		finder: NewFinder(m, log.Named("finder")),
		index:  NewBuildingIndex(m),
		opts:   opts,
		log:    log,
	}
	if opts.CacheEnabled {
		c, err := NewCache(opts.CacheTTL)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}
	return s, nil
}

// Map returns the map the service routes over.
func (s *Service) Map() *graph.Map {
	return s.m
}

// Directions finds, contracts and describes the route between two buildings.
func (s *Service) Directions(ctx context.Context, from, to string) (*Directions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := s.m.BuildingByID(from)
	if err != nil {
		return nil, err
	}
	b, err := s.m.BuildingByID(to)
	if err != nil {
		return nil, err
	}

	r := s.cached(a.ID, b.ID)
	if r == nil {
		raw, err := s.finder.FindBetween(a.ID, b.ID)
		if err != nil {
			return nil, err
		}
		r = Contract(raw)
		if s.cache != nil {
			if err := s.cache.Put(r); err != nil {
				s.log.Warn("caching route failed", zap.Error(err))
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Directions{
		Route:        r,
		Instructions: DescribeSteps(r, s.opts.ToleranceDegrees),
		Markers:      TransitionMarkers(r, s.opts.MarkerOffset),
	}, nil
}

func (s *Service) cached(from, to graph.BuildingID) *Route {
	if s.cache == nil {
		return nil
	}
	r, ok, err := s.cache.Get(from, to)
	if err != nil {
		s.log.Warn("reading route cache failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	s.log.Debug("route cache hit", zap.Uint32("from", uint32(from)), zap.Uint32("to", uint32(to)))
	return r
}

// NearestBuilding returns the building closest to (x, y) within threshold.
func (s *Service) NearestBuilding(x, y, threshold float64) (graph.Building, bool) {
	return s.index.Nearest(x, y, threshold)
}

// Close releases the route cache.
func (s *Service) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}
