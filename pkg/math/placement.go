package math

import (
	"fmt"
	"strings"
)

// AxisSwap selects how a placement matrix reconciles the asset convention
// (glTF: Y-up) with the host convention (Z-up, right-handed).
type AxisSwap int

const (
	// AxisSwapNone builds translation and scale only. Use it when the asset
	// still carries a glTF scene graph and the consumer handles axes itself.
	AxisSwapNone AxisSwap = iota
	// AxisSwapYUpToZUp adds a +90 degree rotation about X, mapping asset
	// (x, y, z) to host (x, -z, y). Use it for flattened, index-free vertices
	// handed straight to a Z-up renderer.
	AxisSwapYUpToZUp
)

// yUpToZUp is RotateX(+90deg) with exact zeros.
var yUpToZUp = Mat4{
	1, 0, 0, 0,
	0, 0, 1, 0,
	0, -1, 0, 0,
	0, 0, 0, 1,
}

// String returns the config spelling of the swap.
func (s AxisSwap) String() string {
	switch s {
	case AxisSwapNone:
		return "none"
	case AxisSwapYUpToZUp:
		return "y-up-to-z-up"
	default:
		return fmt.Sprintf("AxisSwap(%d)", int(s))
	}
}

// ParseAxisSwap parses the config spelling produced by String.
func ParseAxisSwap(s string) (AxisSwap, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return AxisSwapNone, nil
	case "y-up-to-z-up", "yup-to-zup":
		return AxisSwapYUpToZUp, nil
	default:
		return AxisSwapNone, fmt.Errorf("unknown axis swap %q", s)
	}
}

// YUpToZUp returns the rotation that maps asset axes onto host axes.
func YUpToZUp() Mat4 {
	return yUpToZUp
}

// Placement builds the matrix that places an asset at host point (x, y, z)
// with a uniform scale: T * S, or T * Rx(+90deg) * S when swap is
// AxisSwapYUpToZUp.
func Placement(x, y, z, scale float32, swap AxisSwap) Mat4 {
	return PlacementScaled(x, y, z, [3]float32{scale, scale, scale}, swap)
}

// PlacementScaled is Placement with a per-axis scale, applied in asset space.
func PlacementScaled(x, y, z float32, scale [3]float32, swap AxisSwap) Mat4 {
	m := Translate(x, y, z)
	if swap == AxisSwapYUpToZUp {
		m = m.Mul(yUpToZUp)
	}
	return m.Mul(Scale(scale[0], scale[1], scale[2]))
}
