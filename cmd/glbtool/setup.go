package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/glbplace/internal/config"
	"github.com/Faultbox/glbplace/internal/logger"
	"github.com/Faultbox/glbplace/internal/placement"
	"github.com/Faultbox/glbplace/internal/terrain"
)

// setup loads the config and starts the global logger.
func setup() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	opts := logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: true,
	}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithOptions(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg
}

// newPipeline builds a pipeline from the config. Validate has already
// checked mode and axis swap, so parse errors here are unreachable.
func newPipeline(cfg *config.Config, up placement.Uploader, r placement.Renderer) *placement.Pipeline {
	mode, _ := placement.ParseMode(cfg.Placement.Mode)
	swap, _ := cfg.AxisSwap()

	return placement.New(placement.Config{
		Mode:          mode,
		AxisSwap:      swap,
		MaxInputBytes: cfg.Limits.MaxInputBytes(),
	}, elevationSource(cfg), up, r, logger.Log.Named("placement"))
}

func elevationSource(cfg *config.Config) placement.ElevationSource {
	if cfg.Terrain.GridFile == "" {
		return placement.FixedElevation(cfg.Terrain.Elevation)
	}
	grid, err := terrain.LoadGrid(cfg.Terrain.GridFile)
	if err != nil {
		logger.Error("loading terrain grid", zap.String("file", cfg.Terrain.GridFile), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("terrain grid loaded",
		zap.String("file", cfg.Terrain.GridFile),
		zap.Int("width", grid.Width),
		zap.Int("height", grid.Height))
	return grid
}

// readInput reads the asset file, refusing files over the input ceiling
// before loading them.
func readInput(path string, limit int64) []byte {
	info, err := os.Stat(path)
	if err == nil && info.Size() > limit {
		err = fmt.Errorf("%w: %d bytes, limit %d", placement.ErrInputTooLarge, info.Size(), limit)
	}
	if err != nil {
		logger.Error("reading input", zap.String("file", path), zap.Error(err))
		os.Exit(1)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("reading input", zap.String("file", path), zap.Error(err))
		os.Exit(1)
	}
	return data
}

func scaleOr(s float64, cfg *config.Config) float64 {
	if s != 0 {
		return s
	}
	return cfg.Placement.Scale
}
