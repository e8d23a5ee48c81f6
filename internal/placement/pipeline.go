package placement

import (
	"context"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/glbplace/pkg/glb"
	"github.com/Faultbox/glbplace/pkg/math"
)

// Pipeline wires the codec to the host collaborators. It holds no mutable
// state and is safe for concurrent use if its collaborators are.
type Pipeline struct {
	cfg       Config
	elevation ElevationSource
	uploader  Uploader
	renderer  Renderer
	log       *zap.Logger
}

// New creates a pipeline. A nil elevation source means flat ground at zero
// and a nil logger discards output. Uploader or renderer may be nil when
// the matching path is never used.
func New(cfg Config, elevation ElevationSource, uploader Uploader, renderer Renderer, log *zap.Logger) *Pipeline {
	if cfg.Mode == "" {
		cfg.Mode = ModeBake
	}
	if elevation == nil {
		elevation = FixedElevation(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:       cfg,
		elevation: elevation,
		uploader:  uploader,
		renderer:  renderer,
		log:       log,
	}
}

// Place positions the asset at host point (x, y) on the ground and uploads it.
func (p *Pipeline) Place(ctx context.Context, name string, data []byte, x, y, scale float64) (*Result, error) {
	if p.uploader == nil {
		return nil, ErrNoUploader
	}
	doc, res, err := p.prepare(ctx, name, data, x, y, scale)
	if err != nil {
		return nil, err
	}

	switch p.cfg.Mode {
	case ModeBake:
		glb.ApplyPlacement(doc, res.X, res.Y, res.Z, res.Scale)
		res.Matrix = math.Identity()
	case ModeMatrix:
		res.Matrix = math.Placement(float32(res.X), float32(res.Y), float32(res.Z), float32(res.Scale), math.AxisSwapNone)
	default:
		return nil, fmt.Errorf("unknown placement mode %q", p.cfg.Mode)
	}

	out, err := glb.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}
	res.Bytes = len(out)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.uploader.Upload(ctx, name, out, res.Matrix); err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}

	p.log.Info("placed asset",
		zap.String("name", name),
		zap.String("mode", string(p.cfg.Mode)),
		zap.Float64("x", res.X),
		zap.Float64("y", res.Y),
		zap.Float64("z", res.Z),
		zap.Float64("scale", res.Scale),
		zap.Int("bytes", res.Bytes))
	return res, nil
}

// Render flattens the asset and hands the triangle list to the renderer
// with a model matrix that also reconciles the asset's up axis.
func (p *Pipeline) Render(ctx context.Context, name string, data []byte, x, y, scale float64) (*Result, error) {
	if p.renderer == nil {
		return nil, ErrNoRenderer
	}
	doc, res, err := p.prepare(ctx, name, data, x, y, scale)
	if err != nil {
		return nil, err
	}

	geom, err := glb.Flatten(doc)
	if err != nil {
		return nil, fmt.Errorf("flattening %s: %w", name, err)
	}
	for _, s := range geom.Skipped {
		p.log.Warn("skipped primitive",
			zap.String("name", name),
			zap.Int("mesh", s.Mesh),
			zap.Int("primitive", s.Primitive),
			zap.Error(s.Reason))
	}
	if geom.TriangleCount() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoGeometry, name)
	}
	res.Geometry = geom
	res.Matrix = math.Placement(float32(res.X), float32(res.Y), float32(res.Z), float32(res.Scale), p.cfg.AxisSwap)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.renderer.Render(ctx, name, geom, res.Matrix); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}

	p.log.Info("rendered asset",
		zap.String("name", name),
		zap.Stringer("axis_swap", p.cfg.AxisSwap),
		zap.Float64("x", res.X),
		zap.Float64("y", res.Y),
		zap.Float64("z", res.Z),
		zap.Int("triangles", geom.TriangleCount()),
		zap.Bool("normals", geom.HasNormals()),
		zap.Int("skipped", len(geom.Skipped)))
	return res, nil
}

// prepare runs the steps shared by both paths: size ceiling, elevation
// lookup and decode.
func (p *Pipeline) prepare(ctx context.Context, name string, data []byte, x, y, scale float64) (*glb.Document, *Result, error) {
	if limit := p.cfg.maxInput(); int64(len(data)) > limit {
		return nil, nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrInputTooLarge, name, len(data), limit)
	}
	if !(scale > 0) || gomath.IsInf(scale, 0) {
		return nil, nil, fmt.Errorf("%w: got %g", ErrInvalidScale, scale)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	z, err := p.elevation.ElevationAt(ctx, x, y)
	if err != nil {
		return nil, nil, fmt.Errorf("elevation at (%g, %g): %w", x, y, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	p.log.Debug("resolved elevation", zap.String("name", name), zap.Float64("z", z))

	doc, err := glb.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return doc, &Result{Name: name, X: x, Y: y, Z: z, Scale: scale}, nil
}
