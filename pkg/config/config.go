// Package config provides configuration loading and management for glrlm3d.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"glrlm3d/pkg/discretize"
	"glrlm3d/pkg/extractor"
	"glrlm3d/pkg/features"
	"glrlm3d/pkg/glrlm"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Discretization parameters
	Discretization struct {
		// BinWidth is the intensity width of one gray level,
		// used when binCount is zero
		BinWidth float64 `yaml:"binWidth"`

		// BinCount fixes the number of gray levels; overrides
		// binWidth when positive
		BinCount int `yaml:"binCount"`
	} `yaml:"discretization"`

	// Run-length matrix parameters
	Matrix struct {
		// Mode selects the direction set: "3D" (13 directions) or
		// "2D" (4 in-plane directions per slice)
		Mode string `yaml:"mode"`

		// Aggregation selects how per-direction matrices combine into
		// feature values: "average" or "sum"
		Aggregation string `yaml:"aggregation"`

		// Workers caps the number of directions scanned concurrently
		Workers int `yaml:"workers"`
	} `yaml:"matrix"`

	// Feature parameters
	Features struct {
		// Enabled lists the feature names to compute;
		// empty means every registered feature
		Enabled []string `yaml:"enabled"`
	} `yaml:"features"`

	// Output parameters
	Output struct {
		// PreviewDir, when set, receives JPEG previews of the
		// discretized slices
		PreviewDir string `yaml:"previewDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Discretization.BinWidth = 25
	cfg.Discretization.BinCount = 0

	cfg.Matrix.Mode = "3D"
	cfg.Matrix.Aggregation = "average"
	cfg.Matrix.Workers = runtime.NumCPU()

	cfg.Features.Enabled = nil

	cfg.Output.PreviewDir = ""
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// ExtractorParams translates the configuration into extractor
// parameters, validating the mode and aggregation strings.
func (c *Config) ExtractorParams() (extractor.Params, error) {
	var params extractor.Params

	params.Bins = discretize.Spec{
		BinWidth: c.Discretization.BinWidth,
		BinCount: c.Discretization.BinCount,
	}
	if err := params.Bins.Validate(); err != nil {
		return params, err
	}

	switch c.Matrix.Mode {
	case "3D", "":
		params.Directions = glrlm.Directions3D
	case "2D":
		params.Directions = glrlm.Directions2D
	default:
		return params, fmt.Errorf("unknown matrix mode %q", c.Matrix.Mode)
	}

	aggregation, err := features.ParseAggregation(c.Matrix.Aggregation)
	if err != nil {
		return params, err
	}
	params.Aggregation = aggregation
	params.Workers = c.Matrix.Workers

	return params, nil
}
