package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical defaults file shipped with
// the repository.
const DefaultConfigPath = "config/photometric.defaults.json"

// Config holds the defaults the CLI and report tooling use when a flag is not
// given. Every field is optional; the Get* methods supply the fallback.
type Config struct {
	// Diagram rendering
	DiagramWidth  *int     `json:"diagram_width,omitempty"`
	DiagramHeight *int     `json:"diagram_height,omitempty"`
	Theme         *string  `json:"theme,omitempty"` // "light" or "dark"
	MaxCurves     *int     `json:"max_curves,omitempty"`
	ButterflyTilt *float64 `json:"butterfly_tilt,omitempty"` // degrees

	// Validation
	FluxTolerance *float64 `json:"flux_tolerance,omitempty"` // percentage points

	// Catalog
	CatalogPath *string `json:"catalog_path,omitempty"`

	// Report
	ReportSampleStep *float64 `json:"report_sample_step,omitempty"` // degrees

	// Batch
	BatchTimeout *string `json:"batch_timeout,omitempty"` // duration string like "10m"
}

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The file must have a .json extension
// and be at most 1 MB. Fields omitted from the file keep their defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it is non-empty and returns an empty Config
// otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Empty(), nil
	}
	return Load(path)
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if c.DiagramWidth != nil && *c.DiagramWidth <= 0 {
		return fmt.Errorf("diagram_width must be positive, got %d", *c.DiagramWidth)
	}
	if c.DiagramHeight != nil && *c.DiagramHeight <= 0 {
		return fmt.Errorf("diagram_height must be positive, got %d", *c.DiagramHeight)
	}
	if c.Theme != nil && *c.Theme != "light" && *c.Theme != "dark" {
		return fmt.Errorf("theme must be \"light\" or \"dark\", got %q", *c.Theme)
	}
	if c.MaxCurves != nil && *c.MaxCurves < 0 {
		return fmt.Errorf("max_curves must be non-negative, got %d", *c.MaxCurves)
	}
	if c.ButterflyTilt != nil && (math.IsNaN(*c.ButterflyTilt) || *c.ButterflyTilt < -90 || *c.ButterflyTilt > 90) {
		return fmt.Errorf("butterfly_tilt must be between -90 and 90, got %f", *c.ButterflyTilt)
	}
	if c.FluxTolerance != nil && !(*c.FluxTolerance > 0) {
		return fmt.Errorf("flux_tolerance must be positive, got %f", *c.FluxTolerance)
	}
	if c.ReportSampleStep != nil && !(*c.ReportSampleStep > 0 && *c.ReportSampleStep <= 90) {
		return fmt.Errorf("report_sample_step must be in (0, 90], got %f", *c.ReportSampleStep)
	}
	if c.BatchTimeout != nil && *c.BatchTimeout != "" {
		if _, err := time.ParseDuration(*c.BatchTimeout); err != nil {
			return fmt.Errorf("invalid batch_timeout '%s': %w", *c.BatchTimeout, err)
		}
	}
	return nil
}

// GetDiagramWidth returns the diagram_width value or the default.
func (c *Config) GetDiagramWidth() int {
	if c.DiagramWidth == nil {
		return 600
	}
	return *c.DiagramWidth
}

// GetDiagramHeight returns the diagram_height value or the default.
func (c *Config) GetDiagramHeight() int {
	if c.DiagramHeight == nil {
		return 600
	}
	return *c.DiagramHeight
}

// GetTheme returns the theme name or the default.
func (c *Config) GetTheme() string {
	if c.Theme == nil || *c.Theme == "" {
		return "light"
	}
	return *c.Theme
}

// GetMaxCurves returns the max_curves value or the default. Zero lets the
// renderer pick its own cap.
func (c *Config) GetMaxCurves() int {
	if c.MaxCurves == nil {
		return 8
	}
	return *c.MaxCurves
}

// GetButterflyTilt returns the butterfly_tilt value or the default.
func (c *Config) GetButterflyTilt() float64 {
	if c.ButterflyTilt == nil {
		return 60
	}
	return *c.ButterflyTilt
}

// GetFluxTolerance returns the flux_tolerance value or the default.
func (c *Config) GetFluxTolerance() float64 {
	if c.FluxTolerance == nil {
		return 5
	}
	return *c.FluxTolerance
}

// GetCatalogPath returns the catalog_path value or the default.
func (c *Config) GetCatalogPath() string {
	if c.CatalogPath == nil || *c.CatalogPath == "" {
		return "photometric.db"
	}
	return *c.CatalogPath
}

// GetReportSampleStep returns the report_sample_step value or the default.
func (c *Config) GetReportSampleStep() float64 {
	if c.ReportSampleStep == nil {
		return 5
	}
	return *c.ReportSampleStep
}

// GetBatchTimeout parses and returns the BatchTimeout as a time.Duration.
// Zero means no timeout.
func (c *Config) GetBatchTimeout() time.Duration {
	if c.BatchTimeout == nil || *c.BatchTimeout == "" {
		return 10 * time.Minute // default
	}
	d, err := time.ParseDuration(*c.BatchTimeout)
	if err != nil {
		return 10 * time.Minute // default on parse error
	}
	return d
}
