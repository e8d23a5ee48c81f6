// Package placement runs GLB assets through the codec and hands the result
// to the host: either a re-encoded file for upload or a flattened triangle
// list for direct rendering.
package placement

import (
	"context"
	"errors"
	"fmt"

	"github.com/Faultbox/glbplace/pkg/glb"
	"github.com/Faultbox/glbplace/pkg/math"
)

// DefaultMaxInputBytes is the input ceiling when Config leaves it unset.
const DefaultMaxInputBytes = 200 << 20

var (
	ErrInputTooLarge = errors.New("placement: input exceeds size limit")
	ErrInvalidScale  = errors.New("placement: scale must be positive")
	ErrNoGeometry    = errors.New("placement: asset has no renderable triangles")
	ErrNoUploader    = errors.New("placement: no uploader configured")
	ErrNoRenderer    = errors.New("placement: no renderer configured")
)

// ElevationSource resolves the ground height under a host point.
type ElevationSource interface {
	ElevationAt(ctx context.Context, x, y float64) (float64, error)
}

// Uploader receives an encoded GLB and the matrix the host should apply to it.
type Uploader interface {
	Upload(ctx context.Context, name string, glb []byte, m math.Mat4) error
}

// Renderer receives flattened geometry and its model matrix.
type Renderer interface {
	Render(ctx context.Context, name string, g *glb.GeometryData, m math.Mat4) error
}

// FixedElevation reports the same height everywhere.
type FixedElevation float64

// ElevationAt implements ElevationSource.
func (f FixedElevation) ElevationAt(ctx context.Context, _, _ float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return float64(f), nil
}

// Mode selects where the placement transform lives.
type Mode string

const (
	// ModeBake writes the transform into the asset's scene graph.
	ModeBake Mode = "bake"
	// ModeMatrix uploads the asset untouched alongside a model matrix.
	ModeMatrix Mode = "matrix"
)

// ParseMode converts a config string to a Mode. Empty means ModeBake.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeBake:
		return ModeBake, nil
	case ModeMatrix:
		return ModeMatrix, nil
	default:
		return "", fmt.Errorf("unknown placement mode %q", s)
	}
}

// Config holds pipeline settings.
type Config struct {
	Mode          Mode
	AxisSwap      math.AxisSwap // applied on the render path only
	MaxInputBytes int64
}

func (c Config) maxInput() int64 {
	if c.MaxInputBytes > 0 {
		return c.MaxInputBytes
	}
	return DefaultMaxInputBytes
}

// Result describes a completed placement.
type Result struct {
	Name     string
	X, Y, Z  float64
	Scale    float64
	Matrix   math.Mat4
	Bytes    int               // encoded size handed to the uploader
	Geometry *glb.GeometryData // set on the render path
}
