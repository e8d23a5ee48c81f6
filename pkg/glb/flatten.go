package glb

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"

	"github.com/qmuntal/gltf"
)

// SkippedPrimitive records a primitive Flatten left out and why.
type SkippedPrimitive struct {
	Mesh      int
	Primitive int
	Reason    error
}

// primitiveSoup is one primitive expanded into triangle-soup order.
type primitiveSoup struct {
	positions []float32
	normals   []float32 // nil when the primitive has no usable normals
}

// Flatten expands every triangle primitive of doc into one index-free
// position buffer, walking meshes then primitives in declaration order.
//
// Indexed primitives emit one vertex per index, in index order. Primitives
// without indices emit their vertices as stored. A primitive is skipped, and
// reported in GeometryData.Skipped, when it has no POSITION attribute, uses
// an unsupported layout or mode, or refers to a buffer that was not loaded.
//
// Normals are all-or-nothing: they are returned only when every contributing
// primitive supplied them, and are never zero-filled.
//
// An index past the end of its vertex data, accessor data outside its
// buffer, or a dangling accessor reference aborts with an ErrFormat error
// and no result.
func Flatten(doc *Document) (*GeometryData, error) {
	out := &GeometryData{}
	if doc == nil || doc.GLTF == nil {
		return out, nil
	}

	var normals []float32
	contributed, allNormals := false, true

	for mi, mesh := range doc.GLTF.Meshes {
		if mesh == nil {
			continue
		}
		for pi, prim := range mesh.Primitives {
			if prim == nil {
				continue
			}
			soup, err := doc.flattenPrimitive(prim)
			if err != nil {
				if skippable(err) {
					out.Skipped = append(out.Skipped, SkippedPrimitive{Mesh: mi, Primitive: pi, Reason: err})
					continue
				}
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}

			contributed = true
			out.Positions = append(out.Positions, soup.positions...)
			if soup.normals == nil {
				allNormals = false
			} else if allNormals {
				normals = append(normals, soup.normals...)
			}
		}
	}

	if contributed && allNormals {
		out.Normals = normals
	}
	return out, nil
}

// skippable reports whether err is a skip policy rather than a failure.
func skippable(err error) bool {
	return errors.Is(err, ErrMissingPosition) ||
		errors.Is(err, ErrUnsupportedFeature) ||
		errors.Is(err, ErrBufferNotLoaded)
}

func (d *Document) flattenPrimitive(prim *gltf.Primitive) (primitiveSoup, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return primitiveSoup{}, fmt.Errorf("%w: primitive mode %v", ErrUnsupportedFeature, prim.Mode)
	}

	posIndex, ok := prim.Attributes[AttrPosition]
	if !ok {
		return primitiveSoup{}, ErrMissingPosition
	}
	positions, err := d.readVec3(posIndex)
	if err != nil {
		return primitiveSoup{}, fmt.Errorf("%s: %w", AttrPosition, err)
	}
	vertexCount := len(positions) / 3

	var normals []float32
	if normIndex, ok := prim.Attributes[AttrNormal]; ok {
		n, err := d.readVec3(normIndex)
		switch {
		case err != nil && !skippable(err):
			return primitiveSoup{}, fmt.Errorf("%s: %w", AttrNormal, err)
		case err == nil && len(n) == len(positions):
			normals = n
		}
	}

	if prim.Indices == nil {
		return primitiveSoup{positions: positions, normals: normals}, nil
	}

	indices, err := d.readIndices(*prim.Indices)
	if err != nil {
		return primitiveSoup{}, fmt.Errorf("indices: %w", err)
	}

	soup := primitiveSoup{positions: make([]float32, 0, len(indices)*3)}
	if normals != nil {
		soup.normals = make([]float32, 0, len(indices)*3)
	}
	for i, idx := range indices {
		if int(idx) >= vertexCount {
			return primitiveSoup{}, fmt.Errorf("%w: index %d at %d, %d vertices", ErrOutOfBounds, idx, i, vertexCount)
		}
		v := int(idx) * 3
		soup.positions = append(soup.positions, positions[v:v+3]...)
		if normals != nil {
			soup.normals = append(soup.normals, normals[v:v+3]...)
		}
	}
	return soup, nil
}

// readVec3 reads a FLOAT VEC3 accessor into a flat slice.
func (d *Document) readVec3(index int) ([]float32, error) {
	a, err := d.resolveAccessor(index)
	if err != nil {
		return nil, err
	}
	if a.acc.Type != gltf.AccessorVec3 || a.acc.ComponentType != gltf.ComponentFloat || a.acc.Normalized {
		return nil, fmt.Errorf("%w: accessor %d is %v/%v, need FLOAT VEC3",
			ErrUnsupportedFeature, index, a.acc.ComponentType, a.acc.Type)
	}

	out := make([]float32, 0, a.acc.Count*3)
	for i := 0; i < a.acc.Count; i++ {
		e := a.element(i)
		out = append(out,
			gomath.Float32frombits(binary.LittleEndian.Uint32(e[0:])),
			gomath.Float32frombits(binary.LittleEndian.Uint32(e[4:])),
			gomath.Float32frombits(binary.LittleEndian.Uint32(e[8:])),
		)
	}
	return out, nil
}

// readIndices reads an unsigned 8/16/32-bit SCALAR accessor.
func (d *Document) readIndices(index int) ([]uint32, error) {
	a, err := d.resolveAccessor(index)
	if err != nil {
		return nil, err
	}
	if a.acc.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("%w: index accessor %d is %v, need SCALAR", ErrUnsupportedFeature, index, a.acc.Type)
	}

	out := make([]uint32, a.acc.Count)
	switch a.acc.ComponentType {
	case gltf.ComponentUbyte:
		for i := range out {
			out[i] = uint32(a.element(i)[0])
		}
	case gltf.ComponentUshort:
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(a.element(i)))
		}
	case gltf.ComponentUint:
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(a.element(i))
		}
	default:
		return nil, fmt.Errorf("%w: index component type %v", ErrUnsupportedFeature, a.acc.ComponentType)
	}
	return out, nil
}
