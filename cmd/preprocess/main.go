package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"campus_router/pkg/config"
	"campus_router/pkg/geo"
	"campus_router/pkg/graph"
	"campus_router/pkg/logging"
	"campus_router/pkg/mapfile"
)

func main() {
	input := flag.String("input", "", "Path to campus map (.txt, .osm or .osm.pbf)")
	output := flag.String("output", "campus.bin", "Output binary map file path")
	bbox := flag.String("bbox", "", "OSM projection bounds: minLat,minLng,maxLat,maxLng (default: fit to data)")
	width := flag.Int("width", 3000, "Map image width in pixels (OSM input)")
	height := flag.Int("height", 2000, "Map image height in pixels (OSM input)")
	strict := flag.Bool("strict", false, "Fail if any building is unreachable from the main path network")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <campus.txt|campus.osm|campus.osm.pbf> [--output campus.bin] [--bbox minLat,minLng,maxLat,maxLng] [--width W --height H] [--strict]")
		os.Exit(1)
	}

	log, err := logging.New(config.LoggingConfig{Level: *logLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if mapfile.KindFromPath(*input) == mapfile.KindBinary {
		log.Fatal("input is already a compiled snapshot", zap.String("input", *input))
	}

	// Parse bbox option.
	opts := mapfile.Options{Size: geo.Dimensions{Width: *width, Height: *height}}
	if *bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		_, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng)
		if err != nil {
			log.Fatal("invalid bbox format (expected minLat,minLng,maxLat,maxLng)", zap.Error(err))
		}
		opts.Bounds = geo.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
		log.Info("using bounding box",
			zap.Float64("min_lat", minLat), zap.Float64("max_lat", maxLat),
			zap.Float64("min_lng", minLng), zap.Float64("max_lng", maxLng))
	}

	start := time.Now()

	// Step 1: Parse and build the map.
	m, err := mapfile.Load(context.Background(), *input, opts, log)
	if err != nil {
		log.Fatal("failed to build map", zap.Error(err))
	}

	// Step 2: Check reachability.
	if isolated := m.IsolatedBuildings(); len(isolated) > 0 && *strict {
		log.Fatal("unreachable buildings in strict mode", zap.Int("count", len(isolated)))
	}
	largest := m.LargestComponent()
	log.Info("largest component",
		zap.Int("waypoints", len(largest)),
		zap.Float64("percent", float64(len(largest))/float64(max(m.NumWaypoints(), 1))*100))

	// Step 3: Serialize to binary.
	if err := graph.WriteBinary(*output, m); err != nil {
		log.Fatal("failed to write binary", zap.Error(err))
	}

	info, _ := os.Stat(*output)
	log.Info("done",
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
		zap.String("output", *output),
		zap.Int64("bytes", info.Size()))
}
