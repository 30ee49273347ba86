// Package config loads reader configuration from a JSON file and the
// environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config is the resolved reader configuration.
type Config struct {
	// FlipToSARGeometry reorders tie-point grids so that the first row and
	// column follow the SAR acquisition geometry. Default: false.
	FlipToSARGeometry bool

	// IncidenceGridWidth and IncidenceGridHeight size the incidence-angle
	// tie-point grid. Default: 11 x 11.
	IncidenceGridWidth  int
	IncidenceGridHeight int

	// SlantRangeTimeGrid enables the optional slant-range-time grid for
	// ground-range products. Default: false.
	SlantRangeTimeGrid bool

	// ValidateGeometry rejects tie points outside valid geographic bounds.
	// Default: true.
	ValidateGeometry bool

	LogLevel  string
	LogFormat string

	// CatalogPath is the SQLite database used by the catalog command.
	CatalogPath string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FlipToSARGeometry:   false,
		IncidenceGridWidth:  11,
		IncidenceGridHeight: 11,
		SlantRangeTimeGrid:  false,
		ValidateGeometry:    true,
		LogLevel:            "info",
		LogFormat:           "text",
		CatalogPath:         "novasar-catalog.db",
	}
}

// fileConfig is the on-disk schema. Omitted fields keep their defaults.
type fileConfig struct {
	FlipToSARGeometry   *bool   `json:"flip_to_sar_geometry,omitempty"`
	IncidenceGridWidth  *int    `json:"incidence_grid_width,omitempty"`
	IncidenceGridHeight *int    `json:"incidence_grid_height,omitempty"`
	SlantRangeTimeGrid  *bool   `json:"slant_range_time_grid,omitempty"`
	ValidateGeometry    *bool   `json:"validate_geometry,omitempty"`
	LogLevel            *string `json:"log_level,omitempty"`
	LogFormat           *string `json:"log_format,omitempty"`
	CatalogPath         *string `json:"catalog_path,omitempty"`
}

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Load reads a JSON configuration file and overlays it on Default.
// The file must have a .json extension and be at most 1MB.
func Load(path string) (Config, error) {
	cfg := Default()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	fc.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (fc fileConfig) apply(cfg *Config) {
	if fc.FlipToSARGeometry != nil {
		cfg.FlipToSARGeometry = *fc.FlipToSARGeometry
	}
	if fc.IncidenceGridWidth != nil {
		cfg.IncidenceGridWidth = *fc.IncidenceGridWidth
	}
	if fc.IncidenceGridHeight != nil {
		cfg.IncidenceGridHeight = *fc.IncidenceGridHeight
	}
	if fc.SlantRangeTimeGrid != nil {
		cfg.SlantRangeTimeGrid = *fc.SlantRangeTimeGrid
	}
	if fc.ValidateGeometry != nil {
		cfg.ValidateGeometry = *fc.ValidateGeometry
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
	if fc.CatalogPath != nil {
		cfg.CatalogPath = *fc.CatalogPath
	}
}

// ApplyEnv overrides fields from NOVASAR_* environment variables. Unparsable
// values are reported and leave the field unchanged.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []string
	setBool := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q", key, v))
				return
			}
			*dst = b
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q", key, v))
				return
			}
			*dst = n
		}
	}
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	setBool("NOVASAR_FLIP_TO_SAR_GEOMETRY", &c.FlipToSARGeometry)
	setInt("NOVASAR_INCIDENCE_GRID_WIDTH", &c.IncidenceGridWidth)
	setInt("NOVASAR_INCIDENCE_GRID_HEIGHT", &c.IncidenceGridHeight)
	setBool("NOVASAR_SLANT_RANGE_TIME_GRID", &c.SlantRangeTimeGrid)
	setBool("NOVASAR_VALIDATE_GEOMETRY", &c.ValidateGeometry)
	setString("NOVASAR_LOG_LEVEL", &c.LogLevel)
	setString("NOVASAR_LOG_FORMAT", &c.LogFormat)
	setString("NOVASAR_CATALOG", &c.CatalogPath)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, ", "))
	}
	return c.Validate()
}

// Validate checks that the configuration values are usable.
func (c Config) Validate() error {
	if c.IncidenceGridWidth < 2 {
		return fmt.Errorf("incidence_grid_width must be at least 2, got %d", c.IncidenceGridWidth)
	}
	if c.IncidenceGridHeight < 1 {
		return fmt.Errorf("incidence_grid_height must be positive, got %d", c.IncidenceGridHeight)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}
