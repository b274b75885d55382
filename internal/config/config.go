package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr       string `yaml:"addr"`        // e.g. ":8080"
	CORSOrigin string `yaml:"cors_origin"` // value of Access-Control-Allow-Origin
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// PlannerConfig tunes the flight path generator.
type PlannerConfig struct {
	CornerDedupFactor    float64 `yaml:"corner_dedup_factor"`    // fraction of forward spacing
	OutsideDropThreshold int     `yaml:"outside_drop_threshold"` // stray points dropped per segment end
	MaxGridPoints        int     `yaml:"max_grid_points"`        // lattice ceiling per request
	TerrainThresholdM    float64 `yaml:"terrain_threshold_m"`    // default simplification threshold
}

// NoFlyZoneConfig points at a directory of GeoJSON files loaded at startup.
type NoFlyZoneConfig struct {
	Dir string `yaml:"dir"` // empty = no preloaded zones
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultMaxGridPoints caps the lattice when max_grid_points is unset.
const DefaultMaxGridPoints = 200000

// Config aggregates all service configuration.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Log        LogConfig       `yaml:"log"`
	Planner    PlannerConfig   `yaml:"planner"`
	NoFlyZones NoFlyZoneConfig `yaml:"no_fly_zones"`
	Metrics    MetricsConfig   `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, fills in defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.CORSOrigin == "" {
		c.Server.CORSOrigin = "*"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Planner.CornerDedupFactor == 0 {
		c.Planner.CornerDedupFactor = 0.1
	}
	if c.Planner.OutsideDropThreshold == 0 {
		c.Planner.OutsideDropThreshold = 2
	}
	if c.Planner.MaxGridPoints == 0 {
		c.Planner.MaxGridPoints = DefaultMaxGridPoints
	}
	if c.Planner.TerrainThresholdM == 0 {
		c.Planner.TerrainThresholdM = 1
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Planner.CornerDedupFactor < 0 || c.Planner.CornerDedupFactor > 1 {
		return fmt.Errorf("planner.corner_dedup_factor must be between 0 and 1, got %.3f", c.Planner.CornerDedupFactor)
	}
	if c.Planner.OutsideDropThreshold < 0 {
		return fmt.Errorf("planner.outside_drop_threshold must be >= 0, got %d", c.Planner.OutsideDropThreshold)
	}
	if c.Planner.MaxGridPoints < 0 {
		return fmt.Errorf("planner.max_grid_points must be >= 0, got %d", c.Planner.MaxGridPoints)
	}
	if c.Planner.TerrainThresholdM <= 0 {
		return fmt.Errorf("planner.terrain_threshold_m must be > 0, got %.3f", c.Planner.TerrainThresholdM)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}
	return nil
}
