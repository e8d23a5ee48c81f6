// Package config handles glbplace configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/glbplace/pkg/math"
)

// Placement modes.
const (
	ModeBake   = "bake"   // transform baked into the asset's scene graph
	ModeMatrix = "matrix" // asset uploaded untouched, host applies the matrix
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Config holds all tool settings.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Limits    LimitsConfig    `yaml:"limits"`
	Placement PlacementConfig `yaml:"placement"`
	Terrain   TerrainConfig   `yaml:"terrain"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console or json
	LogFile string `yaml:"log_file"`
}

// LimitsConfig bounds the inputs the pipeline accepts.
type LimitsConfig struct {
	MaxInputMB int `yaml:"max_input_mb"`
}

// MaxInputBytes returns the input ceiling in bytes.
func (l LimitsConfig) MaxInputBytes() int64 {
	return int64(l.MaxInputMB) << 20
}

// PlacementConfig holds placement settings.
type PlacementConfig struct {
	Mode           string  `yaml:"mode"`
	Scale          float64 `yaml:"scale"`            // default scale when none is given
	RenderAxisSwap string  `yaml:"render_axis_swap"` // none or y-up-to-z-up
	OutputDir      string  `yaml:"output_dir"`
}

// TerrainConfig selects where ground elevation comes from. A grid file
// takes precedence over the fixed elevation.
type TerrainConfig struct {
	GridFile  string  `yaml:"grid_file"`
	Elevation float64 `yaml:"elevation"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			LogFile: "",
		},
		Limits: LimitsConfig{
			MaxInputMB: 200,
		},
		Placement: PlacementConfig{
			Mode:           ModeBake,
			Scale:          1,
			RenderAxisSwap: math.AxisSwapYUpToZUp.String(),
			OutputDir:      "out",
		},
		Terrain: TerrainConfig{
			Elevation: 0,
		},
	}
}

// AxisSwap returns the parsed render axis convention.
func (c *Config) AxisSwap() (math.AxisSwap, error) {
	return math.ParseAxisSwap(c.Placement.RenderAxisSwap)
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	switch c.Placement.Mode {
	case ModeBake, ModeMatrix:
	default:
		return fmt.Errorf("%w: placement.mode %q (want %s or %s)", ErrInvalid, c.Placement.Mode, ModeBake, ModeMatrix)
	}
	if c.Placement.Scale <= 0 {
		return fmt.Errorf("%w: placement.scale must be positive, got %g", ErrInvalid, c.Placement.Scale)
	}
	if _, err := c.AxisSwap(); err != nil {
		return fmt.Errorf("%w: placement.render_axis_swap: %v", ErrInvalid, err)
	}
	if c.Limits.MaxInputMB <= 0 {
		return fmt.Errorf("%w: limits.max_input_mb must be positive, got %d", ErrInvalid, c.Limits.MaxInputMB)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}
