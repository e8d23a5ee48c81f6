package config

import (
	"flag"
	"strconv"
)

// optionalFloat is a float flag that remembers whether it was set.
type optionalFloat struct {
	value float64
	set   bool
}

func (f *optionalFloat) String() string {
	if !f.set {
		return ""
	}
	return strconv.FormatFloat(f.value, 'g', -1, 64)
}

func (f *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.value, f.set = v, true
	return nil
}

var (
	flagConfig     string
	flagDebug      bool
	flagLogFile    string
	flagMode       string
	flagAxisSwap   string
	flagOutputDir  string
	flagTerrain    string
	flagMaxInputMB int
	flagElevation  optionalFloat
)

// RegisterFlags binds the config override flags to fs. Subcommands call
// this on their own flag set before parsing.
func RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&flagConfig, "config", "", "Path to config file")
	fs.BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	fs.StringVar(&flagLogFile, "log-file", "", "Also write logs to this file")
	fs.StringVar(&flagMode, "mode", "", "Placement mode: bake or matrix")
	fs.StringVar(&flagAxisSwap, "axis-swap", "", "Render axis convention: none or y-up-to-z-up")
	fs.StringVar(&flagOutputDir, "out", "", "Output directory")
	fs.StringVar(&flagTerrain, "terrain", "", "Elevation grid file (YAML)")
	fs.IntVar(&flagMaxInputMB, "max-input-mb", 0, "Reject inputs larger than this many MB")
	fs.Var(&flagElevation, "z", "Fixed ground elevation (overrides terrain)")
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if flagDebug {
		cfg.Logging.Level = "debug"
	}
	if flagLogFile != "" {
		cfg.Logging.LogFile = flagLogFile
	}
	if flagMode != "" {
		cfg.Placement.Mode = flagMode
	}
	if flagAxisSwap != "" {
		cfg.Placement.RenderAxisSwap = flagAxisSwap
	}
	if flagOutputDir != "" {
		cfg.Placement.OutputDir = flagOutputDir
	}
	if flagTerrain != "" {
		cfg.Terrain.GridFile = flagTerrain
	}
	if flagMaxInputMB > 0 {
		cfg.Limits.MaxInputMB = flagMaxInputMB
	}
	if flagElevation.set {
		cfg.Terrain.Elevation = flagElevation.value
		cfg.Terrain.GridFile = ""
	}
}
