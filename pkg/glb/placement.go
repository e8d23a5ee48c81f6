package glb

import (
	"slices"

	"github.com/qmuntal/gltf"
)

// WrapperNodeName names the node ApplyPlacement inserts above scene roots.
const WrapperNodeName = "placement"

// HostToAsset converts a host point (Z-up, right-handed) into glTF asset
// space (Y-up): (x, y, z) becomes (x, z, -y).
func HostToAsset(x, y, z float64) [3]float64 {
	return [3]float64{x, z, -y}
}

// ApplyPlacement places every scene of doc at host point (x, y, z) with a
// uniform scale.
//
// For each scene with at least one root, a new wrapper node is appended to
// the node arena with translation HostToAsset(x, y, z) and scale
// (scale, scale, scale). The scene's roots become the wrapper's children, in
// order, and the wrapper becomes the scene's only root. Moved nodes keep
// their mesh and local transform. Scenes without roots are left alone.
//
// doc is modified in place and returned.
func ApplyPlacement(doc *Document, x, y, z, scale float64) *Document {
	if doc == nil || doc.GLTF == nil {
		return doc
	}
	g := doc.GLTF
	translation := HostToAsset(x, y, z)

	for _, scene := range g.Scenes {
		if scene == nil || len(scene.Nodes) == 0 {
			continue
		}
		wrapper := &gltf.Node{
			Name:        WrapperNodeName,
			Children:    slices.Clone(scene.Nodes),
			Matrix:      gltf.DefaultMatrix,
			Rotation:    gltf.DefaultRotation,
			Scale:       [3]float64{scale, scale, scale},
			Translation: translation,
		}
		g.Nodes = append(g.Nodes, wrapper)
		scene.Nodes = []int{len(g.Nodes) - 1}
	}
	return doc
}
