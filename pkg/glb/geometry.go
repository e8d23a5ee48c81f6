package glb

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/glbplace/pkg/math"
)

// GeometryData is an index-free triangle list. Positions holds x, y, z per
// vertex. Normals is nil or the same length as Positions.
//
// It shares nothing with the Document it was flattened from.
type GeometryData struct {
	Positions []float32
	Normals   []float32
	Skipped   []SkippedPrimitive
}

// VertexCount returns the number of vertices.
func (g *GeometryData) VertexCount() int {
	return len(g.Positions) / 3
}

// TriangleCount returns the number of whole triangles.
func (g *GeometryData) TriangleCount() int {
	return g.VertexCount() / 3
}

// HasNormals reports whether every vertex carries a normal.
func (g *GeometryData) HasNormals() bool {
	return g.Normals != nil && len(g.Normals) == len(g.Positions)
}

// Bounds returns the axis-aligned box around all positions. The zero Box is
// returned when there are no vertices.
func (g *GeometryData) Bounds() r3.Box {
	if len(g.Positions) < 3 {
		return r3.Box{}
	}
	first := r3.Vec{X: float64(g.Positions[0]), Y: float64(g.Positions[1]), Z: float64(g.Positions[2])}
	box := r3.Box{Min: first, Max: first}
	for i := 3; i+2 < len(g.Positions); i += 3 {
		x, y, z := float64(g.Positions[i]), float64(g.Positions[i+1]), float64(g.Positions[i+2])
		box.Min.X = min(box.Min.X, x)
		box.Min.Y = min(box.Min.Y, y)
		box.Min.Z = min(box.Min.Z, z)
		box.Max.X = max(box.Max.X, x)
		box.Max.Y = max(box.Max.Y, y)
		box.Max.Z = max(box.Max.Z, z)
	}
	return box
}

// Transform returns a copy with positions moved by m as points and normals
// moved by m's inverse-transpose and renormalised. Skipped is carried over.
func (g *GeometryData) Transform(m math.Mat4) *GeometryData {
	out := &GeometryData{
		Positions: make([]float32, len(g.Positions)),
		Skipped:   g.Skipped,
	}
	for i := 0; i+2 < len(g.Positions); i += 3 {
		p := m.TransformPoint([3]float32{g.Positions[i], g.Positions[i+1], g.Positions[i+2]})
		copy(out.Positions[i:], p[:])
	}
	if g.Normals != nil {
		out.Normals = make([]float32, len(g.Normals))
		for i := 0; i+2 < len(g.Normals); i += 3 {
			d := m.TransformNormal([3]float32{g.Normals[i], g.Normals[i+1], g.Normals[i+2]})
			n := math.Vec3From(d).Normalize().Array()
			copy(out.Normals[i:], n[:])
		}
	}
	return out
}
