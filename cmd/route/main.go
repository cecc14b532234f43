package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"campus_router/pkg/config"
	"campus_router/pkg/graph"
	"campus_router/pkg/logging"
	"campus_router/pkg/mapfile"
	"campus_router/pkg/routing"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	mapPath := flag.String("map", "", "Path to campus map; overrides map.path")
	from := flag.String("from", "", "Source building id")
	to := flag.String("to", "", "Destination building id")
	asGeoJSON := flag.Bool("geojson", false, "Print the route as GeoJSON instead of text")
	list := flag.Bool("list", false, "List building ids and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *mapPath != "" {
		cfg.Map.Path = *mapPath
	}
	if cfg.Map.Path == "" || (!*list && (*from == "" || *to == "")) {
		fmt.Fprintln(os.Stderr, "Usage: route --map <campus map> --from <building> --to <building> [--geojson]")
		fmt.Fprintln(os.Stderr, "       route --map <campus map> --list")
		os.Exit(2)
	}

	// Quiet unless asked otherwise: stdout carries the directions.
	if os.Getenv("CAMPUS_LOG_LEVEL") == "" {
		cfg.Logging.Level = "warn"
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	m, err := mapfile.Load(context.Background(), cfg.Map.Path, mapfile.Options{
		Bounds: cfg.Map.BBox(),
		Size:   cfg.Map.Dimensions(),
	}, log)
	if err != nil {
		log.Fatal("failed to load map", zap.Error(err))
	}

	if *list {
		for _, b := range m.Buildings() {
			fmt.Println(b.Name)
		}
		return
	}

	svc, err := routing.NewService(m, routing.Options{
		ToleranceDegrees: cfg.Routing.ToleranceDegrees,
		MarkerOffset:     cfg.Routing.MarkerOffset,
	}, log)
	if err != nil {
		log.Fatal("failed to start route service", zap.Error(err))
	}
	defer svc.Close()

	d, err := svc.Directions(context.Background(), *from, *to)
	switch {
	case errors.Is(err, graph.ErrNotFound):
		fmt.Fprintf(os.Stderr, "unknown building: %v\n", err)
		os.Exit(1)
	case errors.Is(err, routing.ErrInvalidRequest):
		fmt.Fprintln(os.Stderr, "source and destination are the same building")
		os.Exit(1)
	case errors.Is(err, routing.ErrNoRoute):
		fmt.Fprintf(os.Stderr, "no indoor route from %s to %s\n", *from, *to)
		os.Exit(1)
	case err != nil:
		log.Fatal("route query failed", zap.Error(err))
	}

	if *asGeoJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(routing.ToGeoJSON(d)); err != nil {
			log.Fatal("encode geojson", zap.Error(err))
		}
		return
	}
	fmt.Println(d.Text())
	fmt.Printf("(%.0f map units)\n", d.Route.Weight)
}
