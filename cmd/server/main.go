package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"campus_router/pkg/api"
	"campus_router/pkg/config"
	"campus_router/pkg/logging"
	"campus_router/pkg/mapfile"
	"campus_router/pkg/routing"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	mapPath := flag.String("map", "", "Path to campus map (.txt, .osm, .pbf or compiled .bin); overrides map.path")
	addr := flag.String("addr", "", "Listen address; overrides server.addr")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *mapPath != "" {
		cfg.Map.Path = *mapPath
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *corsOrigin != "" {
		cfg.Server.CORSOrigin = *corsOrigin
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Map.Path == "" {
		log.Fatal("no map given; pass -map or set map.path")
	}

	start := time.Now()

	// Load map.
	m, err := mapfile.Load(context.Background(), cfg.Map.Path, mapfile.Options{
		Bounds: cfg.Map.BBox(),
		Size:   cfg.Map.Dimensions(),
	}, log.Named("mapfile"))
	if err != nil {
		log.Fatal("failed to load map", zap.Error(err))
	}

	// Build route service.
	svc, err := routing.NewService(m, routing.Options{
		ToleranceDegrees: cfg.Routing.ToleranceDegrees,
		MarkerOffset:     cfg.Routing.MarkerOffset,
		CacheEnabled:     cfg.Routing.CacheEnabled,
		CacheTTL:         cfg.Routing.CacheTTL,
	}, log.Named("routing"))
	if err != nil {
		log.Fatal("failed to start route service", zap.Error(err))
	}
	defer svc.Close()

	log.Info("ready", zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)))

	// Setup HTTP server.
	handlers := api.NewHandlers(svc, api.Stats(m), api.HandlerOptions{
		Buildings:    api.Catalog(m),
		Dimensions:   cfg.Map.Dimensions(),
		TapThreshold: cfg.Map.TapThreshold,
		Logger:       log.Named("api"),
	})
	srv := api.NewServer(cfg.Server, handlers, log.Named("http"))

	if err := api.ListenAndServe(srv, cfg.Server.ShutdownTimeout, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
