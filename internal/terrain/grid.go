// Package terrain samples ground elevation from a regular height grid.
package terrain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidGrid is returned when a grid's dimensions and samples disagree.
var ErrInvalidGrid = errors.New("terrain: invalid grid")

// Grid is a row-major lattice of elevation samples over the host XY plane.
// Sample (i, j) sits at (OriginX + i*CellSize, OriginY + j*CellSize).
type Grid struct {
	OriginX  float64   `yaml:"origin_x"`
	OriginY  float64   `yaml:"origin_y"`
	CellSize float64   `yaml:"cell_size"`
	Width    int       `yaml:"width"`  // samples along X
	Height   int       `yaml:"height"` // samples along Y
	Heights  []float64 `yaml:"heights"`
}

// ParseGrid decodes a YAML grid and validates it.
func ParseGrid(data []byte) (*Grid, error) {
	var g Grid
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGrid, err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// LoadGrid reads and parses a grid file.
func LoadGrid(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grid file: %w", err)
	}
	return ParseGrid(data)
}

// Validate checks the grid shape.
func (g *Grid) Validate() error {
	if g.Width < 1 || g.Height < 1 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidGrid, g.Width, g.Height)
	}
	if !(g.CellSize > 0) {
		return fmt.Errorf("%w: cell size %g", ErrInvalidGrid, g.CellSize)
	}
	if len(g.Heights) != g.Width*g.Height {
		return fmt.Errorf("%w: %d samples for %dx%d grid", ErrInvalidGrid, len(g.Heights), g.Width, g.Height)
	}
	return nil
}

func (g *Grid) at(i, j int) float64 {
	return g.Heights[j*g.Width+i]
}

// HeightAt returns the bilinearly interpolated elevation at (x, y).
// Positions outside the grid are clamped to its edge.
func (g *Grid) HeightAt(x, y float64) float64 {
	i0, i1, fx := cell((x-g.OriginX)/g.CellSize, g.Width)
	j0, j1, fy := cell((y-g.OriginY)/g.CellSize, g.Height)

	// Lerp along X on both rows, then between rows
	south := g.at(i0, j0)*(1-fx) + g.at(i1, j0)*fx
	north := g.at(i0, j1)*(1-fx) + g.at(i1, j1)*fx
	return south*(1-fy) + north*fy
}

// ElevationAt implements the placement pipeline's elevation source.
func (g *Grid) ElevationAt(ctx context.Context, x, y float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return g.HeightAt(x, y), nil
}

// cell maps a fractional sample coordinate to the two bracketing samples
// and the weight of the second.
func cell(f float64, n int) (lo, hi int, frac float64) {
	if n == 1 || math.IsNaN(f) {
		return 0, 0, 0
	}
	f = clamp(f, 0, float64(n-1))
	lo = int(f)
	if lo >= n-1 {
		lo = n - 2
	}
	return lo, lo + 1, clamp(f-float64(lo), 0, 1)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
