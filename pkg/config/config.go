// Package config loads campus router settings: defaults, then an optional
// YAML file, then CAMPUS_* environment overrides (optionally seeded from a
// .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"campus_router/pkg/geo"
)

// Config aggregates application configuration values.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Map     MapConfig     `yaml:"map"`
	Routing RoutingConfig `yaml:"routing"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig governs HTTP server behaviour.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxConcurrent   int           `yaml:"max_concurrent"`
	CORSOrigin      string        `yaml:"cors_origin"`
}

// MapConfig describes the campus map and the image it is drawn on.
type MapConfig struct {
	Path         string  `yaml:"path"`
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	TapThreshold float64 `yaml:"tap_threshold"`
	Bounds       Bounds  `yaml:"bounds"`
}

// Bounds is the geographic extent projected onto the map image when
// loading OSM data. Zero means fit to the data.
type Bounds struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLng float64 `yaml:"min_lng"`
	MaxLng float64 `yaml:"max_lng"`
}

// RoutingConfig tunes route description and caching.
type RoutingConfig struct {
	ToleranceDegrees float64       `yaml:"tolerance_degrees"`
	MarkerOffset     float64       `yaml:"marker_offset"`
	CacheEnabled     bool          `yaml:"cache_enabled"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console|json
}

const (
	defaultAddr            = ":8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 5 * time.Second
	defaultRequestTimeout  = 5 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMapWidth        = 3000
	defaultMapHeight       = 2000
	defaultTapThreshold    = 100
	defaultTolerance       = geo.DefaultTolerance
	defaultMarkerOffset    = 20
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "console"
)

// EnvFile is read from the working directory before environment overrides
// are applied. Variables already present in the process environment win.
const EnvFile = ".env"

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            defaultAddr,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			RequestTimeout:  defaultRequestTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			MaxConcurrent:   runtime.NumCPU() * 2,
		},
		Map: MapConfig{
			Width:        defaultMapWidth,
			Height:       defaultMapHeight,
			TapThreshold: defaultTapThreshold,
		},
		Routing: RoutingConfig{
			ToleranceDegrees: defaultTolerance,
			MarkerOffset:     defaultMarkerOffset,
			CacheEnabled:     true,
		},
		Logging: LoggingConfig{
			Level:  defaultLoggingLevel,
			Format: defaultLoggingFormat,
		},
	}
}

// Load reads configuration. path may be empty to skip the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := loadEnvFile(EnvFile); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CAMPUS_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CAMPUS_MAP_PATH"); v != "" {
		cfg.Map.Path = v
	}
	if v := os.Getenv("CAMPUS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CAMPUS_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CAMPUS_CORS_ORIGIN"); v != "" {
		cfg.Server.CORSOrigin = v
	}
	if v := os.Getenv("CAMPUS_TOLERANCE_DEGREES"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CAMPUS_TOLERANCE_DEGREES: %w", err)
		}
		cfg.Routing.ToleranceDegrees = f
	}
	if v := os.Getenv("CAMPUS_CACHE_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CAMPUS_CACHE_ENABLED: %w", err)
		}
		cfg.Routing.CacheEnabled = b
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.New("server.addr is empty")
	case c.Server.MaxConcurrent <= 0:
		return fmt.Errorf("server.max_concurrent must be positive, got %d", c.Server.MaxConcurrent)
	case c.Map.Width <= 0 || c.Map.Height <= 0:
		return fmt.Errorf("map dimensions must be positive, got %dx%d", c.Map.Width, c.Map.Height)
	case c.Map.TapThreshold <= 0:
		return fmt.Errorf("map.tap_threshold must be positive, got %v", c.Map.TapThreshold)
	case c.Routing.ToleranceDegrees < 0 || c.Routing.ToleranceDegrees > 180:
		return fmt.Errorf("routing.tolerance_degrees must be within [0, 180], got %v", c.Routing.ToleranceDegrees)
	case c.Routing.MarkerOffset < 0:
		return fmt.Errorf("routing.marker_offset must not be negative, got %v", c.Routing.MarkerOffset)
	}
	b := c.Map.Bounds
	if b != (Bounds{}) && (b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng) {
		return fmt.Errorf("map.bounds is empty or inverted: %+v", b)
	}
	return nil
}

// Dimensions returns the map image size.
func (m MapConfig) Dimensions() geo.Dimensions {
	return geo.Dimensions{Width: m.Width, Height: m.Height}
}

// BBox returns the OSM projection bounds.
func (m MapConfig) BBox() geo.BBox {
	return geo.BBox{MinLat: m.Bounds.MinLat, MaxLat: m.Bounds.MaxLat, MinLng: m.Bounds.MinLng, MaxLng: m.Bounds.MaxLng}
}
