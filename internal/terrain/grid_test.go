package terrain

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const epsilon = 1e-9

// 3x2 grid, cell size 10, origin (100, 200):
//
//	y=210:  4  8  0
//	y=200:  0  2  6
func testGrid() *Grid {
	return &Grid{
		OriginX:  100,
		OriginY:  200,
		CellSize: 10,
		Width:    3,
		Height:   2,
		Heights:  []float64{0, 2, 6, 4, 8, 0},
	}
}

func TestHeightAt_Samples(t *testing.T) {
	g := testGrid()
	tests := []struct {
		x, y, want float64
	}{
		{100, 200, 0},
		{110, 200, 2},
		{120, 200, 6},
		{100, 210, 4},
		{110, 210, 8},
		{120, 210, 0},
	}
	for _, tt := range tests {
		if got := g.HeightAt(tt.x, tt.y); math.Abs(got-tt.want) > epsilon {
			t.Errorf("HeightAt(%g, %g) = %g, want %g", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestHeightAt_Bilinear(t *testing.T) {
	g := testGrid()

	// Centre of the first cell averages its four corners.
	if got := g.HeightAt(105, 205); math.Abs(got-3.5) > epsilon {
		t.Errorf("cell centre = %g, want 3.5", got)
	}
	// Along the south edge it is linear in X.
	if got := g.HeightAt(115, 200); math.Abs(got-4) > epsilon {
		t.Errorf("south edge midpoint = %g, want 4", got)
	}
	// Quarter of the way up the west edge.
	if got := g.HeightAt(100, 202.5); math.Abs(got-1) > epsilon {
		t.Errorf("west edge quarter = %g, want 1", got)
	}
}

func TestHeightAt_ClampsOutside(t *testing.T) {
	g := testGrid()

	if got := g.HeightAt(-1000, -1000); got != 0 {
		t.Errorf("far south-west = %g, want corner 0", got)
	}
	if got := g.HeightAt(1000, 200); got != 6 {
		t.Errorf("far east on south row = %g, want 6", got)
	}
	if got := g.HeightAt(110, 1000); got != 8 {
		t.Errorf("far north = %g, want 8", got)
	}
}

func TestHeightAt_SingleSample(t *testing.T) {
	g := &Grid{CellSize: 1, Width: 1, Height: 1, Heights: []float64{7}}
	if got := g.HeightAt(3, -4); got != 7 {
		t.Errorf("HeightAt = %g, want 7", got)
	}
}

func TestHeightAt_SingleRow(t *testing.T) {
	g := &Grid{CellSize: 2, Width: 2, Height: 1, Heights: []float64{0, 10}}
	if got := g.HeightAt(1, 50); math.Abs(got-5) > epsilon {
		t.Errorf("HeightAt = %g, want 5", got)
	}
}

func TestElevationAt(t *testing.T) {
	g := testGrid()

	got, err := g.ElevationAt(context.Background(), 110, 210)
	if err != nil {
		t.Fatalf("ElevationAt failed: %v", err)
	}
	if got != 8 {
		t.Errorf("ElevationAt = %g, want 8", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.ElevationAt(ctx, 0, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseGrid(t *testing.T) {
	data := []byte(`
origin_x: 100
origin_y: 200
cell_size: 10
width: 3
height: 2
heights: [0, 2, 6, 4, 8, 0]
`)
	g, err := ParseGrid(data)
	if err != nil {
		t.Fatalf("ParseGrid failed: %v", err)
	}
	want := testGrid()
	if g.OriginX != want.OriginX || g.OriginY != want.OriginY || g.CellSize != want.CellSize ||
		g.Width != want.Width || g.Height != want.Height || len(g.Heights) != len(want.Heights) {
		t.Errorf("parsed grid = %+v, want %+v", g, want)
	}
}

func TestParseGrid_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "width: [unterminated"},
		{"empty", ""},
		{"zero cell size", "cell_size: 0\nwidth: 1\nheight: 1\nheights: [1]"},
		{"sample count", "cell_size: 1\nwidth: 2\nheight: 2\nheights: [1, 2, 3]"},
		{"negative size", "cell_size: 1\nwidth: -1\nheight: 1\nheights: []"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseGrid([]byte(tt.data)); !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("expected ErrInvalidGrid, got %v", err)
			}
		})
	}
}

func TestLoadGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.yaml")
	if err := os.WriteFile(path, []byte("cell_size: 1\nwidth: 1\nheight: 1\nheights: [2.5]\n"), 0644); err != nil {
		t.Fatalf("failed to write grid: %v", err)
	}

	g, err := LoadGrid(path)
	if err != nil {
		t.Fatalf("LoadGrid failed: %v", err)
	}
	if got := g.HeightAt(0, 0); got != 2.5 {
		t.Errorf("HeightAt = %g, want 2.5", got)
	}

	if _, err := LoadGrid(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
