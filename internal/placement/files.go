package placement

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/glbplace/pkg/glb"
	"github.com/Faultbox/glbplace/pkg/math"
)

// ErrInvalidName is returned for asset names that are not plain file names.
var ErrInvalidName = errors.New("placement: invalid asset name")

// Sidecar is the YAML record written next to every output file.
type Sidecar struct {
	Name      string    `yaml:"name"`
	Asset     string    `yaml:"asset,omitempty"`
	Matrix    []float32 `yaml:"matrix,flow"` // column-major
	Positions string    `yaml:"positions,omitempty"`
	Normals   string    `yaml:"normals,omitempty"`
	Vertices  int       `yaml:"vertices,omitempty"`
}

// ReadSidecar loads a sidecar written by DirUploader or DirRenderer.
func ReadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Sidecar
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing sidecar %s: %w", path, err)
	}
	return &s, nil
}

// SidecarPath returns where the sidecar for name is written in dir.
func SidecarPath(dir, name string) string {
	return filepath.Join(dir, name+".placement.yaml")
}

func writeSidecar(dir string, s *Sidecar) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(SidecarPath(dir, s.Name), data, 0644)
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// DirUploader stores uploads as <name>.glb plus a sidecar in Dir.
type DirUploader struct {
	Dir string
}

// Upload implements Uploader.
func (u DirUploader) Upload(ctx context.Context, name string, data []byte, m math.Mat4) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(u.Dir, 0755); err != nil {
		return err
	}

	asset := name + ".glb"
	if err := os.WriteFile(filepath.Join(u.Dir, asset), data, 0644); err != nil {
		return err
	}
	return writeSidecar(u.Dir, &Sidecar{Name: name, Asset: asset, Matrix: m[:]})
}

// DirRenderer stores flattened geometry as raw little-endian float32 files.
// With Bake set the matrix is applied to the vertices and the sidecar
// records identity.
type DirRenderer struct {
	Dir  string
	Bake bool
}

// Render implements Renderer.
func (r DirRenderer) Render(ctx context.Context, name string, g *glb.GeometryData, m math.Mat4) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return err
	}

	if r.Bake {
		g = g.Transform(m)
		m = math.Identity()
	}

	s := &Sidecar{
		Name:      name,
		Matrix:    m[:],
		Positions: name + ".positions.f32",
		Vertices:  g.VertexCount(),
	}
	if err := writeFloats(filepath.Join(r.Dir, s.Positions), g.Positions); err != nil {
		return err
	}
	if g.HasNormals() {
		s.Normals = name + ".normals.f32"
		if err := writeFloats(filepath.Join(r.Dir, s.Normals), g.Normals); err != nil {
			return err
		}
	}
	return writeSidecar(r.Dir, s)
}

func writeFloats(path string, v []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFloats loads a file written by DirRenderer.
func ReadFloats(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%s: length %d is not a multiple of 4", path, len(data))
	}
	v := make([]float32, len(data)/4)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return v, nil
}
