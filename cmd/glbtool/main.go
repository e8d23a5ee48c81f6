// glbtool places binary glTF assets into a Z-up host scene.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/glbplace/internal/config"
	"github.com/Faultbox/glbplace/internal/logger"
	"github.com/Faultbox/glbplace/internal/placement"
	"github.com/Faultbox/glbplace/pkg/glb"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "place":
		cmdPlace(args)
	case "flatten", "render":
		cmdFlatten(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`glbtool - place binary glTF assets in a Z-up scene

Usage:
  glbtool <command> [options]

Commands:
  info <file.glb>                  Show document statistics and bounds
  place [options] <file.glb> X Y   Place the asset and write <out>/<name>.glb
  flatten [options] <file.glb> X Y Flatten to raw float32 buffers in <out>
  config [-write path]             Print or save the effective config

Common options:
  -config path      Config file (default ./glbplace.yaml or user config dir)
  -scale s          Uniform scale (default from config)
  -name n           Output name (default input file name)
  -z h              Fixed ground elevation
  -terrain grid     Elevation grid file
  -mode m           Placement mode: bake or matrix
  -axis-swap a      Flatten axis convention: none or y-up-to-z-up
  -out dir          Output directory
  -debug            Debug logging

Examples:
  glbtool info tree.glb
  glbtool place -z 12 tree.glb 100 250
  glbtool place -mode matrix -terrain heights.yaml tree.glb 100 250
  glbtool flatten -bake -scale 2 tree.glb 0 0`)
}

func fail(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	os.Exit(1)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: glbtool info <file.glb>")
		os.Exit(1)
	}

	doc, err := glb.DecodeFile(args[0])
	if err != nil {
		fail("%v", err)
	}

	st := doc.Stats()
	fmt.Printf("File:       %s\n", args[0])
	fmt.Printf("Scenes:     %d\n", st.Scenes)
	fmt.Printf("Nodes:      %d\n", st.Nodes)
	fmt.Printf("Meshes:     %d (%d primitives)\n", st.Meshes, st.Primitives)
	fmt.Printf("Accessors:  %d\n", st.Accessors)
	fmt.Printf("Buffers:    %d (%d embedded)\n", st.Buffers, len(doc.Buffers()))

	geom, err := glb.Flatten(doc)
	if err != nil {
		fail("%v", err)
	}
	fmt.Println()
	fmt.Printf("Triangles:  %d\n", geom.TriangleCount())
	fmt.Printf("Normals:    %v\n", geom.HasNormals())
	if geom.VertexCount() > 0 {
		b := geom.Bounds()
		size := b.Size()
		fmt.Printf("Bounds:     (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
		fmt.Printf("Size:       %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
	}
	if len(geom.Skipped) > 0 {
		fmt.Printf("\nSkipped primitives: %d\n", len(geom.Skipped))
		for _, s := range geom.Skipped {
			fmt.Printf("  mesh %d primitive %d: %v\n", s.Mesh, s.Primitive, s.Reason)
		}
	}
}

// placeArgs are the options shared by place and flatten.
type placeArgs struct {
	fs    *flag.FlagSet
	scale *float64
	name  *string
}

func newPlaceFlags(command string) placeArgs {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	config.RegisterFlags(fs)
	return placeArgs{
		fs:    fs,
		scale: fs.Float64("scale", 0, "Uniform scale (0 = config default)"),
		name:  fs.String("name", "", "Output name (default input file name)"),
	}
}

// target holds the parsed positional arguments.
type target struct {
	path string
	name string
	x, y float64
}

func (p placeArgs) parse(args []string) target {
	p.fs.Parse(args)
	if p.fs.NArg() < 3 {
		fmt.Fprintf(os.Stderr, "Usage: glbtool %s [options] <file.glb> X Y\n", p.fs.Name())
		os.Exit(1)
	}

	x, err := strconv.ParseFloat(p.fs.Arg(1), 64)
	if err != nil {
		fail("invalid X %q", p.fs.Arg(1))
	}
	y, err := strconv.ParseFloat(p.fs.Arg(2), 64)
	if err != nil {
		fail("invalid Y %q", p.fs.Arg(2))
	}

	path := p.fs.Arg(0)
	name := *p.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return target{path: path, name: name, x: x, y: y}
}

func cmdPlace(args []string) {
	pf := newPlaceFlags("place")
	t := pf.parse(args)

	cfg := setup()
	defer logger.Sync()

	p := newPipeline(cfg, placement.DirUploader{Dir: cfg.Placement.OutputDir}, nil)
	data := readInput(t.path, cfg.Limits.MaxInputBytes())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := p.Place(ctx, t.name, data, t.x, t.y, scaleOr(*pf.scale, cfg))
	if err != nil {
		logger.Error("placement failed", zap.String("file", t.path), zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("Placed %s at (%g, %g, %g) scale %g\n", res.Name, res.X, res.Y, res.Z, res.Scale)
	fmt.Printf("Wrote  %s (%d bytes)\n", filepath.Join(cfg.Placement.OutputDir, res.Name+".glb"), res.Bytes)
}

func cmdFlatten(args []string) {
	pf := newPlaceFlags("flatten")
	bake := pf.fs.Bool("bake", false, "Apply the placement matrix to the written vertices")
	t := pf.parse(args)

	cfg := setup()
	defer logger.Sync()

	p := newPipeline(cfg, nil, placement.DirRenderer{Dir: cfg.Placement.OutputDir, Bake: *bake})
	data := readInput(t.path, cfg.Limits.MaxInputBytes())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := p.Render(ctx, t.name, data, t.x, t.y, scaleOr(*pf.scale, cfg))
	if err != nil {
		logger.Error("flatten failed", zap.String("file", t.path), zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("Flattened %s: %d triangles, normals %v, %d skipped\n",
		res.Name, res.Geometry.TriangleCount(), res.Geometry.HasNormals(), len(res.Geometry.Skipped))
	fmt.Printf("Wrote     %s\n", placement.SidecarPath(cfg.Placement.OutputDir, res.Name))
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	config.RegisterFlags(fs)
	write := fs.String("write", "", "Save the effective config to this path")
	save := fs.Bool("save", false, "Save the effective config to the user config directory")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fail("%v", err)
	}

	switch {
	case *write != "":
		err = cfg.SaveTo(*write)
	case *save:
		err = cfg.Save()
	default:
		err = cfg.Write(os.Stdout)
	}
	if err != nil {
		fail("%v", err)
	}
}
