package glb

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	gomath "math"
	"os"

	"github.com/qmuntal/gltf"
)

// header is the 12-byte GLB file header.
type header struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

// chunkHeader precedes every chunk payload.
type chunkHeader struct {
	Length uint32
	Type   uint32
}

// Decode parses a GLB container from raw bytes.
//
// The first chunk must be JSON. BIN chunks are attached, in order, to the
// buffers that declare no URI. A container with no BIN chunk decodes to a
// document with an empty buffer list. The input slice is not retained.
func Decode(data []byte) (*Document, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d for header", ErrTruncatedChunk, len(data), headerSize)
	}

	r := bytes.NewReader(data)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedChunk)
	}
	if h.Magic != magicGLTF {
		return nil, ErrInvalidMagic
	}
	if h.Version != version2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if uint64(h.Length) != uint64(len(data)) {
		return nil, fmt.Errorf("%w: header says %d, got %d", ErrLengthMismatch, h.Length, len(data))
	}

	var (
		jsonChunk []byte
		binChunks [][]byte
	)
	for index := 0; r.Len() > 0; index++ {
		payload, typ, err := readChunk(r, data)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", index, err)
		}
		if index == 0 {
			if typ != chunkJSON {
				return nil, fmt.Errorf("%w: got type 0x%08x", ErrMissingJSONChunk, typ)
			}
			jsonChunk = payload
			continue
		}
		// Unknown chunk types are skipped, as glTF requires.
		if typ == chunkBIN {
			binChunks = append(binChunks, payload)
		}
	}
	if jsonChunk == nil {
		return nil, ErrMissingJSONChunk
	}

	g := new(gltf.Document)
	if err := json.Unmarshal(bytes.TrimRight(jsonChunk, " \x00"), g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	doc := NewDocument(g)
	if err := doc.attachBinary(binChunks); err != nil {
		return nil, err
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// readChunk reads one chunk header and returns a slice of data holding its
// payload.
func readChunk(r *bytes.Reader, data []byte) ([]byte, uint32, error) {
	if r.Len() < chunkHeaderSize {
		return nil, 0, fmt.Errorf("%w: %d bytes left for chunk header", ErrTruncatedChunk, r.Len())
	}
	var ch chunkHeader
	if err := binary.Read(r, binary.LittleEndian, &ch); err != nil {
		return nil, 0, fmt.Errorf("%w: reading chunk header", ErrTruncatedChunk)
	}
	if uint64(ch.Length) > uint64(r.Len()) {
		return nil, 0, fmt.Errorf("%w: length %d, %d bytes left", ErrTruncatedChunk, ch.Length, r.Len())
	}

	start := len(data) - r.Len()
	payload := data[start : start+int(ch.Length)]
	if _, err := r.Seek(int64(ch.Length), io.SeekCurrent); err != nil {
		return nil, 0, err
	}
	return payload, ch.Type, nil
}

// attachBinary copies BIN chunk payloads into the URI-less buffers in order.
// BIN chunks with no buffer left to receive them are ignored.
func (d *Document) attachBinary(chunks [][]byte) error {
	next := 0
	for i, b := range d.GLTF.Buffers {
		if b == nil || b.URI != "" {
			continue
		}
		if next >= len(chunks) {
			break
		}
		payload := chunks[next]
		next++

		if b.ByteLength > len(payload) {
			return fmt.Errorf("%w: buffer %d declares %d bytes, BIN chunk has %d",
				ErrTruncatedChunk, i, b.ByteLength, len(payload))
		}
		n := b.ByteLength
		if n == 0 {
			n = len(payload)
		}
		b.Data = bytes.Clone(payload[:n])
		if b.Data == nil {
			b.Data = []byte{}
		}
	}
	return nil
}

// DecodeFile parses a GLB container from disk.
func DecodeFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GLB file: %w", err)
	}
	return Decode(data)
}

// Encode serialises a document as a GLB container.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes a document as a GLB container.
//
// The JSON chunk is compact and space-padded to 4 bytes. Each owned buffer
// becomes one zero-padded BIN chunk, and its byteLength in the written JSON
// is set to the payload size. The document itself is not modified.
func EncodeTo(w io.Writer, doc *Document) error {
	g := *doc.GLTF
	g.Buffers = make([]*gltf.Buffer, len(doc.GLTF.Buffers))

	var bins [][]byte
	for i, b := range doc.GLTF.Buffers {
		if b == nil {
			continue
		}
		nb := *b
		if isOwned(b) {
			nb.ByteLength = len(b.Data)
			bins = append(bins, b.Data)
		}
		g.Buffers[i] = &nb
	}

	jsonData, err := json.Marshal(&g)
	if err != nil {
		return fmt.Errorf("encoding JSON chunk: %w", err)
	}
	jsonData = pad(jsonData, jsonPadding)

	total := uint64(headerSize + chunkHeaderSize + len(jsonData))
	for _, b := range bins {
		total += uint64(chunkHeaderSize + padded(len(b)))
	}
	if total > gomath.MaxUint32 {
		return fmt.Errorf("%w: container would be %d bytes", ErrOutOfBounds, total)
	}

	h := header{Magic: magicGLTF, Version: version2, Length: uint32(total)}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	if err := writeChunk(w, chunkJSON, jsonData); err != nil {
		return err
	}
	for _, b := range bins {
		if err := writeChunk(w, chunkBIN, pad(bytes.Clone(b), binPadding)); err != nil {
			return err
		}
	}
	return nil
}

func writeChunk(w io.Writer, typ uint32, payload []byte) error {
	ch := chunkHeader{Length: uint32(len(payload)), Type: typ}
	if err := binary.Write(w, binary.LittleEndian, ch); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// padded rounds n up to a multiple of 4.
func padded(n int) int {
	return (n + 3) &^ 3
}

func pad(b []byte, with byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, with)
	}
	return b
}
