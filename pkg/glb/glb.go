// Package glb reads and writes binary glTF 2.0 containers and provides the
// two operations the placement pipeline needs on them: wrapping scene roots
// in a placement node, and flattening meshes into an index-free triangle
// list.
//
// All functions are synchronous and keep no state between calls.
package glb

import (
	"errors"
	"fmt"
)

// Container constants, little-endian on the wire.
const (
	headerSize      = 12
	chunkHeaderSize = 8

	magicGLTF   uint32 = 0x46546C67 // "glTF"
	version2    uint32 = 2
	chunkJSON   uint32 = 0x4E4F534A // "JSON"
	chunkBIN    uint32 = 0x004E4942 // "BIN\x00"
	jsonPadding byte   = 0x20
	binPadding  byte   = 0x00
)

// ErrFormat is the root of every malformed-container error. Callers should
// test with errors.Is(err, ErrFormat).
var ErrFormat = errors.New("glb: malformed container")

// Format errors.
var (
	ErrInvalidMagic       = fmt.Errorf("%w: invalid magic, expected 'glTF'", ErrFormat)
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrFormat)
	ErrLengthMismatch     = fmt.Errorf("%w: declared length does not match data", ErrFormat)
	ErrTruncatedChunk     = fmt.Errorf("%w: truncated chunk", ErrFormat)
	ErrMissingJSONChunk   = fmt.Errorf("%w: first chunk is not JSON", ErrFormat)
	ErrInvalidJSON        = fmt.Errorf("%w: invalid JSON chunk", ErrFormat)
	ErrBadReference       = fmt.Errorf("%w: dangling reference", ErrFormat)
	ErrOutOfBounds        = fmt.Errorf("%w: data out of bounds", ErrFormat)
)

// ErrUnsupportedFeature reports a layout this package deliberately does not
// model, such as sparse accessors or non-float positions.
var ErrUnsupportedFeature = errors.New("glb: unsupported feature")

// Skip reasons reported by Flatten. They are policy, not failures.
var (
	ErrBufferNotLoaded = errors.New("glb: buffer data not loaded")
	ErrMissingPosition = errors.New("glb: primitive has no POSITION attribute")
)

// Attribute names the flattener reads.
const (
	AttrPosition = "POSITION"
	AttrNormal   = "NORMAL"
)
