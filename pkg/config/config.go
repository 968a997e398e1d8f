// Package config provides configuration loading and management for outlineart.
// It handles loading configuration from YAML files, provides default values and
// turns the free-form settings of the input form into pipeline options.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"outlineart/internal/models"
	"outlineart/pkg/export"
	"outlineart/pkg/exposure"
	"outlineart/pkg/pipeline"
	"outlineart/pkg/postfilter"
)

// Exposure correction labels as shown in the input form.
const (
	LabelGamma            = "Gamma"
	LabelSigmoid          = "Sigmoid"
	LabelCLAHE            = "CLAHE"
	LabelHistEqualization = "Histogram Equalization"
	LabelContrastStretch  = "Contrast Stretching"
)

// MinResolution is the lowest accepted resolution; anything at or below it
// falls back to DefaultResolution.
const (
	MinResolution     = 50
	DefaultResolution = 96
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input parameters
	Input struct {
		// IsPhoto enables exposure correction before thresholding
		IsPhoto bool `yaml:"isPhoto"`

		// ExposureAlgo is one of the exposure correction labels
		ExposureAlgo string `yaml:"exposureAlgo"`
	} `yaml:"input"`

	// Exposure correction parameters
	Exposure struct {
		Gamma          float64 `yaml:"gamma"`
		SigmoidCutoff  float64 `yaml:"sigmoidCutoff"`
		SigmoidGain    float64 `yaml:"sigmoidGain"`
		CLAHEClipLimit float64 `yaml:"claheClipLimit"`
		CLAHETiles     int     `yaml:"claheTiles"`

		// StretchLow and StretchHigh are percentiles in [0, 100]
		StretchLow  float64 `yaml:"stretchLow"`
		StretchHigh float64 `yaml:"stretchHigh"`
	} `yaml:"exposure"`

	// Output parameters
	Output struct {
		// Directory receives one boundary image per input
		Directory string `yaml:"directory"`

		// Classes is the number of intensity classes
		Classes int `yaml:"classes"`

		// Filetype is PNG, JPG or PDF
		Filetype string `yaml:"filetype"`

		TransparentBackground bool `yaml:"transparentBackground"`
		Invert                bool `yaml:"invert"`
		PostFilter            bool `yaml:"postFilter"`

		// Width and Height are in inches; zero keeps the source size
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`

		// Resolution in pixels per inch
		Resolution float64 `yaml:"resolution"`

		// SaveIntermediaryResults determines whether to save each stage as an image
		SaveIntermediaryResults bool   `yaml:"saveIntermediaryResults"`
		IntermediaryDir         string `yaml:"intermediaryDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Post filter parameters
	PostFilter struct {
		// MinComponentSize is the smallest connected boundary fragment kept, in pixels
		MinComponentSize int `yaml:"minComponentSize"`
	} `yaml:"postFilter"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many images are processed in parallel
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.IsPhoto = false
	cfg.Input.ExposureAlgo = LabelSigmoid

	gamma := exposure.DefaultGamma()
	sigmoid := exposure.DefaultSigmoid()
	clahe := exposure.DefaultCLAHE()
	stretch := exposure.DefaultContrastStretch()
	cfg.Exposure.Gamma = gamma.Gamma
	cfg.Exposure.SigmoidCutoff = sigmoid.Cutoff
	cfg.Exposure.SigmoidGain = sigmoid.Gain
	cfg.Exposure.CLAHEClipLimit = clahe.ClipLimit
	cfg.Exposure.CLAHETiles = clahe.Tiles
	cfg.Exposure.StretchLow = stretch.Low
	cfg.Exposure.StretchHigh = stretch.High

	cfg.Output.Directory = "output"
	cfg.Output.Classes = 2
	cfg.Output.Filetype = string(export.PNG)
	cfg.Output.Invert = true
	cfg.Output.Resolution = DefaultResolution
	cfg.Output.IntermediaryDir = "intermediary"
	cfg.Output.Verbose = false

	cfg.PostFilter.MinComponentSize = postfilter.DefaultMinComponentSize

	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
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

// SaveConfig saves the configuration to a YAML file
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

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// ExposureMethod maps the configured label to a correction variant.
// Labels are matched case-insensitively; an unknown label selects Sigmoid.
func (c *Config) ExposureMethod() exposure.Method {
	e := c.Exposure
	switch strings.ToLower(strings.TrimSpace(c.Input.ExposureAlgo)) {
	case strings.ToLower(LabelGamma):
		return exposure.Gamma{Gamma: e.Gamma}
	case strings.ToLower(LabelCLAHE):
		return exposure.CLAHE{Tiles: e.CLAHETiles, ClipLimit: e.CLAHEClipLimit}
	case strings.ToLower(LabelHistEqualization):
		return exposure.HistogramEqualization{}
	case strings.ToLower(LabelContrastStretch):
		return exposure.ContrastStretch{Low: e.StretchLow, High: e.StretchHigh}
	default:
		return exposure.Sigmoid{Cutoff: e.SigmoidCutoff, Gain: e.SigmoidGain}
	}
}

// Resolution returns the configured resolution, or DefaultResolution when it
// is not above MinResolution.
func (c *Config) Resolution() float64 {
	if c.Output.Resolution <= MinResolution {
		return DefaultResolution
	}
	return c.Output.Resolution
}

// TargetSize converts the inch dimensions to pixels at Resolution. A
// non-positive width or height means no resize.
func (c *Config) TargetSize() (models.Size, error) {
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		return models.NoResize(), nil
	}
	ppi := c.Resolution()
	return models.NewSize(int(math.Round(c.Output.Width*ppi)), int(math.Round(c.Output.Height*ppi)))
}

// Format parses the configured output filetype.
func (c *Config) Format() (export.Format, error) {
	return export.ParseFormat(c.Output.Filetype)
}

// PipelineOptions builds the per-run options from the configuration.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	size, err := c.TargetSize()
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("invalid output size: %w", err)
	}
	return pipeline.Options{
		Classes:          c.Output.Classes,
		PhotoCorrection:  c.Input.IsPhoto,
		Correction:       c.ExposureMethod(),
		PostFilter:       c.Output.PostFilter,
		MinComponentSize: c.PostFilter.MinComponentSize,
		Size:             size,
		Invert:           c.Output.Invert,
		Transparent:      c.Output.TransparentBackground,
	}, nil
}
