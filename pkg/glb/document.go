package glb

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/qmuntal/gltf"
)

// Document is a decoded GLB: the glTF JSON description plus the binary chunk
// payloads, attached to the buffers that declare no URI.
//
// Nodes live in GLTF.Nodes and refer to each other by index, so the scene
// graph is an arena of stable integer handles.
type Document struct {
	GLTF *gltf.Document
}

// Stats summarises the size of a document's scene description.
type Stats struct {
	Scenes     int
	Nodes      int
	Meshes     int
	Primitives int
	Accessors  int
	Buffers    int // declared buffers, owned or not
}

// NewDocument wraps a glTF document. Buffers without a URI whose Data is set
// are treated as owned binary buffers.
func NewDocument(g *gltf.Document) *Document {
	if g == nil {
		g = &gltf.Document{}
	}
	return &Document{GLTF: g}
}

// Buffers returns the owned binary buffers in declaration order. It is empty
// for JSON-only documents and for documents whose buffers all use URIs.
func (d *Document) Buffers() [][]byte {
	var out [][]byte
	for _, b := range d.GLTF.Buffers {
		if isOwned(b) {
			out = append(out, b.Data)
		}
	}
	return out
}

// Stats returns element counts for the document.
func (d *Document) Stats() Stats {
	g := d.GLTF
	s := Stats{
		Scenes:    len(g.Scenes),
		Nodes:     len(g.Nodes),
		Meshes:    len(g.Meshes),
		Accessors: len(g.Accessors),
		Buffers:   len(g.Buffers),
	}
	for _, m := range g.Meshes {
		if m != nil {
			s.Primitives += len(m.Primitives)
		}
	}
	return s
}

func isOwned(b *gltf.Buffer) bool {
	return b != nil && b.URI == "" && b.Data != nil
}

// accessorData is a bounds-checked view of one accessor's elements.
type accessorData struct {
	acc    *gltf.Accessor
	data   []byte // starts at element 0
	stride int
	elem   int
}

// element returns the bytes of element i.
func (a accessorData) element(i int) []byte {
	off := i * a.stride
	return a.data[off : off+a.elem]
}

// resolveAccessor follows accessor -> buffer view -> buffer and checks that
// every element lies inside the owned buffer.
func (d *Document) resolveAccessor(index int) (accessorData, error) {
	g := d.GLTF
	if index < 0 || index >= len(g.Accessors) || g.Accessors[index] == nil {
		return accessorData{}, fmt.Errorf("%w: accessor %d", ErrBadReference, index)
	}
	acc := g.Accessors[index]

	if acc.Sparse != nil {
		return accessorData{}, fmt.Errorf("%w: accessor %d is sparse", ErrUnsupportedFeature, index)
	}
	if acc.BufferView == nil {
		return accessorData{}, fmt.Errorf("%w: accessor %d has no buffer view", ErrUnsupportedFeature, index)
	}

	vi := *acc.BufferView
	if vi < 0 || vi >= len(g.BufferViews) || g.BufferViews[vi] == nil {
		return accessorData{}, fmt.Errorf("%w: accessor %d -> buffer view %d", ErrBadReference, index, vi)
	}
	view := g.BufferViews[vi]

	if view.Buffer < 0 || view.Buffer >= len(g.Buffers) || g.Buffers[view.Buffer] == nil {
		return accessorData{}, fmt.Errorf("%w: buffer view %d -> buffer %d", ErrBadReference, vi, view.Buffer)
	}
	buf := g.Buffers[view.Buffer]
	if !isOwned(buf) {
		return accessorData{}, fmt.Errorf("%w: buffer %d", ErrBufferNotLoaded, view.Buffer)
	}

	if view.ByteOffset < 0 || view.ByteLength < 0 || view.ByteOffset+view.ByteLength > len(buf.Data) {
		return accessorData{}, fmt.Errorf("%w: buffer view %d [%d,+%d) exceeds buffer %d (%d bytes)",
			ErrOutOfBounds, vi, view.ByteOffset, view.ByteLength, view.Buffer, len(buf.Data))
	}

	elem := acc.ComponentType.ByteSize() * acc.Type.Components()
	if elem <= 0 {
		return accessorData{}, fmt.Errorf("%w: accessor %d has unknown element layout", ErrUnsupportedFeature, index)
	}
	stride := view.ByteStride
	if stride == 0 {
		stride = elem
	}
	if stride < elem {
		return accessorData{}, fmt.Errorf("%w: buffer view %d stride %d below element size %d",
			ErrOutOfBounds, vi, stride, elem)
	}

	if acc.Count < 0 || acc.ByteOffset < 0 {
		return accessorData{}, fmt.Errorf("%w: accessor %d has negative count or offset", ErrOutOfBounds, index)
	}
	end := acc.ByteOffset
	if acc.Count > 0 {
		if acc.Count-1 > view.ByteLength/stride {
			return accessorData{}, fmt.Errorf("%w: accessor %d count %d exceeds buffer view %d",
				ErrOutOfBounds, index, acc.Count, vi)
		}
		end += stride*(acc.Count-1) + elem
	}
	if end > view.ByteLength {
		return accessorData{}, fmt.Errorf("%w: accessor %d ends at %d, buffer view %d is %d bytes",
			ErrOutOfBounds, index, end, vi, view.ByteLength)
	}

	start := view.ByteOffset + acc.ByteOffset
	return accessorData{
		acc:    acc,
		data:   buf.Data[start : view.ByteOffset+view.ByteLength],
		stride: stride,
		elem:   elem,
	}, nil
}

// validate checks the references a decoded document must satisfy: scene and
// child handles point at existing nodes, and every accessor a primitive uses
// stays inside its owned buffer. Unsupported layouts and unloaded buffers are
// left to the flattener.
func (d *Document) validate() error {
	g := d.GLTF
	nodeOK := func(n int) bool { return n >= 0 && n < len(g.Nodes) && g.Nodes[n] != nil }

	for si, scene := range g.Scenes {
		if scene == nil {
			continue
		}
		for _, n := range scene.Nodes {
			if !nodeOK(n) {
				return fmt.Errorf("%w: scene %d -> node %d", ErrBadReference, si, n)
			}
		}
	}
	for ni, node := range g.Nodes {
		if node == nil {
			continue
		}
		for _, c := range node.Children {
			if !nodeOK(c) {
				return fmt.Errorf("%w: node %d -> child %d", ErrBadReference, ni, c)
			}
		}
		if node.Mesh != nil && (*node.Mesh < 0 || *node.Mesh >= len(g.Meshes)) {
			return fmt.Errorf("%w: node %d -> mesh %d", ErrBadReference, ni, *node.Mesh)
		}
	}

	for mi, mesh := range g.Meshes {
		if mesh == nil {
			continue
		}
		for pi, prim := range mesh.Primitives {
			if prim == nil {
				continue
			}
			for _, name := range slices.Sorted(maps.Keys(prim.Attributes)) {
				if err := d.checkAccessor(prim.Attributes[name]); err != nil {
					return fmt.Errorf("mesh %d primitive %d %s: %w", mi, pi, name, err)
				}
			}
			if prim.Indices != nil {
				if err := d.checkAccessor(*prim.Indices); err != nil {
					return fmt.Errorf("mesh %d primitive %d indices: %w", mi, pi, err)
				}
			}
		}
	}
	return nil
}

func (d *Document) checkAccessor(index int) error {
	_, err := d.resolveAccessor(index)
	if errors.Is(err, ErrFormat) {
		return err
	}
	return nil
}
