package mapfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus_router/pkg/geo"
	"campus_router/pkg/graph"
	osmparser "campus_router/pkg/osm"
)

// Options configures map loading. Bounds and Size apply to OSM input only.
type Options struct {
	Bounds geo.BBox
	Size   geo.Dimensions
}

// Kind is the encoding of a map file.
type Kind int

const (
	KindText Kind = iota
	KindOSM
	KindBinary
)

// KindFromPath picks the encoding from a file extension: .bin is a compiled
// snapshot, .osm and .pbf are OSM extracts, anything else is the text format.
func KindFromPath(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".bin":
		return KindBinary
	case ".osm", ".pbf":
		return KindOSM
	}
	return KindText
}

// ReadData parses a text or OSM map file into loader output.
func ReadData(ctx context.Context, path string, opts Options, log *zap.Logger) (*graph.MapData, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	switch KindFromPath(path) {
	case KindOSM:
		return osmparser.Parse(ctx, f, osmparser.ParseOptions{
			Format: osmparser.FormatFromPath(path),
			BBox:   opts.Bounds,
			Size:   opts.Size,
			Logger: log,
		})
	case KindBinary:
		return nil, fmt.Errorf("%s is a compiled snapshot; use Load", path)
	}
	data, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// Load reads a map in any supported encoding and builds it.
func Load(ctx context.Context, path string, opts Options, log *zap.Logger) (*graph.Map, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	var m *graph.Map
	if KindFromPath(path) == KindBinary {
		var err error
		m, err = graph.ReadBinary(path)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
	} else {
		data, err := ReadData(ctx, path, opts, log)
		if err != nil {
			return nil, err
		}
		m, err = graph.Build(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	log.Info("map loaded",
		zap.String("path", path),
		zap.Int("buildings", m.NumBuildings()),
		zap.Int("floors", m.NumFloors()),
		zap.Int("waypoints", m.NumWaypoints()),
		zap.Int("edges", m.NumEdges()),
		zap.Int("components", m.NumComponents()),
		zap.Duration("elapsed", time.Since(start)))
	if isolated := m.IsolatedBuildings(); len(isolated) > 0 {
		names := make([]string, len(isolated))
		for i, b := range isolated {
			names[i] = b.Name
		}
		log.Warn("buildings unreachable from the main path network", zap.Strings("buildings", names))
	}
	return m, nil
}
