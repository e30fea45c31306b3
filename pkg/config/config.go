// Package config provides configuration loading and management for nucleusmorph.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"nucleusmorph/pkg/detection"
	"nucleusmorph/pkg/nucleus"
	"nucleusmorph/pkg/population"
	"nucleusmorph/pkg/profile"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumWorkers specifies how many goroutines detect landmarks in parallel
		NumWorkers int `yaml:"numWorkers"`

		// Verbose controls progress output
		Verbose bool `yaml:"verbose"`
	} `yaml:"processing"`

	// Profile parameters
	Profile struct {
		// AngleWindowProportion is the angle window as a fraction of the border length
		AngleWindowProportion float64 `yaml:"angleWindowProportion"`

		// BinWidth is the width in percent of each median profile bin
		BinWidth float64 `yaml:"binWidth"`

		// TailSearchMin and TailSearchMax bound the median tail search, in percent from the tip
		TailSearchMin float64 `yaml:"tailSearchMin"`
		TailSearchMax float64 `yaml:"tailSearchMax"`
	} `yaml:"profile"`

	// Landmark detection parameters
	Detection struct {
		// Family selects the detection rules: rodentSperm, pigSperm or round
		Family string `yaml:"family"`

		// LookAhead is the number of neighbours inspected for local extrema
		LookAhead int `yaml:"lookAhead"`

		// Tolerance is the number of neighbours allowed to break an extremum
		Tolerance int `yaml:"tolerance"`

		// MaxTipAngle is the bluntest angle still accepted as a tip
		MaxTipAngle float64 `yaml:"maxTipAngle"`

		// Harmonics low-pass filters angle profiles before detection; 0 disables it
		Harmonics int `yaml:"harmonics"`
	} `yaml:"detection"`

	// Population filter parameters
	Filter struct {
		// MaxDifferenceFromMedian is the accepted ratio to the median for area,
		// perimeter, border length and Feret diameter
		MaxDifferenceFromMedian float64 `yaml:"maxDifferenceFromMedian"`

		// MaxWobbleFromMedian is the accepted ratio to the median path length
		MaxWobbleFromMedian float64 `yaml:"maxWobbleFromMedian"`
	} `yaml:"filter"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.NumWorkers = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.Verbose = true

	// Set default profile parameters
	cfg.Profile.AngleWindowProportion = 0.05
	cfg.Profile.BinWidth = 0.5
	cfg.Profile.TailSearchMin = 20
	cfg.Profile.TailSearchMax = 60

	// Set default detection parameters
	cfg.Detection.Family = nucleus.RodentSperm.String()
	cfg.Detection.LookAhead = 5
	cfg.Detection.Tolerance = 2
	cfg.Detection.MaxTipAngle = 110

	// Set default filter parameters
	cfg.Filter.MaxDifferenceFromMedian = 1.5
	cfg.Filter.MaxWobbleFromMedian = 1.2

	return cfg
}

// Validate checks that the values can drive an analysis
func (c *Config) Validate() error {
	if _, err := nucleus.ParseFamily(c.Detection.Family); err != nil {
		return err
	}
	if c.Profile.AngleWindowProportion <= 0 || c.Profile.AngleWindowProportion >= 0.5 {
		return fmt.Errorf("angleWindowProportion must be in (0, 0.5), got %f", c.Profile.AngleWindowProportion)
	}
	if c.Profile.BinWidth <= 0 || c.Profile.BinWidth > 100 {
		return fmt.Errorf("binWidth must be in (0, 100], got %f", c.Profile.BinWidth)
	}
	if c.Profile.TailSearchMin >= c.Profile.TailSearchMax {
		return fmt.Errorf("tailSearchMin (%f) must be below tailSearchMax (%f)",
			c.Profile.TailSearchMin, c.Profile.TailSearchMax)
	}
	if c.Detection.LookAhead < 1 {
		return fmt.Errorf("lookAhead must be at least 1, got %d", c.Detection.LookAhead)
	}
	if c.Detection.Harmonics < 0 {
		return fmt.Errorf("harmonics must not be negative, got %d", c.Detection.Harmonics)
	}
	if c.Filter.MaxDifferenceFromMedian < 1 || c.Filter.MaxWobbleFromMedian < 1 {
		return fmt.Errorf("filter ratios must be at least 1")
	}
	return nil
}

// Family returns the configured nucleus family
func (c *Config) Family() (nucleus.Family, error) {
	return nucleus.ParseFamily(c.Detection.Family)
}

// ExtremaOptions returns the local extremum settings
func (c *Config) ExtremaOptions() profile.ExtremaOptions {
	return profile.ExtremaOptions{
		LookAhead: c.Detection.LookAhead,
		Tolerance: c.Detection.Tolerance,
	}
}

// DetectionOptions returns the landmark detection settings
func (c *Config) DetectionOptions() detection.Options {
	return detection.Options{
		Extrema:     c.ExtremaOptions(),
		MaxTipAngle: c.Detection.MaxTipAngle,
		Harmonics:   c.Detection.Harmonics,
	}
}

// AlignOptions returns the population alignment settings
func (c *Config) AlignOptions() population.AlignOptions {
	return population.AlignOptions{
		TailSearchMin: c.Profile.TailSearchMin,
		TailSearchMax: c.Profile.TailSearchMax,
		Extrema:       c.ExtremaOptions(),
		Workers:       c.Processing.NumWorkers,
	}
}

// FilterOptions returns the population filter settings
func (c *Config) FilterOptions() population.FilterOptions {
	return population.FilterOptions{
		MaxDifference: c.Filter.MaxDifferenceFromMedian,
		MaxWobble:     c.Filter.MaxWobbleFromMedian,
	}
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
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

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
