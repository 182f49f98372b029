package poly

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use readable values
// like "30s" or "2m".
type Duration time.Duration

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts either a duration string or a bare integer of
// nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parsing duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\" or an integer")
	}
	*d = Duration(n)
	return nil
}

// Render format values accepted by Config.RenderFormat.
const (
	RenderNone   = "none"
	RenderSVG    = "svg"
	RenderPNG    = "png"
	RenderBoth   = "both"
	RenderRaster = "raster"
)

// Config represents the full configuration file.
type Config struct {
	InputDir  string `yaml:"inputDir" json:"inputDir"`
	OutputDir string `yaml:"outputDir" json:"outputDir"`
	PolDir    string `yaml:"polDir" json:"polDir"`

	// RenderDir is where comparison renders are written. Empty disables
	// rendering regardless of RenderFormat.
	RenderDir string `yaml:"renderDir,omitempty" json:"renderDir,omitempty"`

	// RenderFormat selects the comparison output: "svg", "png", "both"
	// (vector renders), "raster" (plain PNG with labels), or "none".
	RenderFormat string `yaml:"renderFormat,omitempty" json:"renderFormat,omitempty"`

	// Workers is the number of polygons processed concurrently. The default
	// of 1 keeps processing sequential; inputs are independent, so any value
	// is safe.
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`

	// FileTimeout bounds the processing time of a single polygon. Unusually
	// large inputs are skipped with an error rather than stalling the batch.
	FileTimeout Duration `yaml:"fileTimeout,omitempty" json:"fileTimeout,omitempty"`

	HTTPPort int `yaml:"httpPort,omitempty" json:"httpPort,omitempty"`

	Tolerances Options `yaml:"tolerances,omitempty" json:"tolerances,omitempty"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		InputDir:     "plans",
		OutputDir:    "refined",
		PolDir:       "pol",
		RenderFormat: RenderNone,
		Workers:      1,
		FileTimeout:  Duration(10 * time.Second),
		HTTPPort:     8080,
		Tolerances:   DefaultOptions(),
	}
}

// LoadConfig loads the unified configuration from a YAML file and applies
// defaults for unset fields.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults fills unset fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.InputDir == "" {
		c.InputDir = def.InputDir
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.PolDir == "" {
		c.PolDir = def.PolDir
	}
	if c.RenderFormat == "" {
		c.RenderFormat = def.RenderFormat
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.FileTimeout <= 0 {
		c.FileTimeout = def.FileTimeout
	}
	if c.HTTPPort <= 0 {
		c.HTTPPort = def.HTTPPort
	}
	c.Tolerances = c.Tolerances.withDefaults()
}

// Validate checks field values after defaults are applied.
func (c *Config) Validate() error {
	switch c.RenderFormat {
	case RenderNone, RenderSVG, RenderPNG, RenderBoth, RenderRaster:
	default:
		return fmt.Errorf("renderFormat must be one of none, svg, png, both, raster; got %q", c.RenderFormat)
	}

	if c.Tolerances.DupTolerance < 0 || c.Tolerances.CollinearTolerance < 0 || c.Tolerances.SnapTolerance < 0 {
		return fmt.Errorf("tolerances must be positive")
	}
	if c.Tolerances.SnapTolerance >= 0.5 {
		return fmt.Errorf("snapTolerance %g would snap every coordinate; must be below 0.5", c.Tolerances.SnapTolerance)
	}

	return nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
