// vdbgen writes a procedural cloud as a sparse grid file the demo can load.
package main

import (
	"flag"
	"log/slog"
	"os"

	mgl "github.com/go-gl/mathgl/mgl32"

	"github.com/xopoww/go-volumetric/vdb"
)

var (
	out       = flag.String("out", "cloud.svol", "output file")
	name      = flag.String("name", "density", "grid name")
	size      = flag.Int("size", 64, "voxels across the cloud's bounding cube")
	voxelSize = flag.Float64("voxel", 0.05, "world-space size of one voxel")
	octaves   = flag.Int("octaves", 4, "fractal noise octaves")
	threshold = flag.Float64("threshold", 0.02, "densities below this stay inactive")
)

func main() {
	flag.Parse()

	if *size <= 0 || *voxelSize <= 0 {
		slog.Error("size and voxel must be positive", "size", *size, "voxel", *voxelSize)
		os.Exit(2)
	}

	half := float32(*size) * float32(*voxelSize) / 2
	xform, err := vdb.UniformTransform(float32(*voxelSize), mgl.Vec3{-half, -half, -half})
	if err != nil {
		slog.Error("Invalid transform", "err", err)
		os.Exit(1)
	}

	g := Cloud(*name, xform, *size, *octaves, float32(*threshold))
	if err := vdb.Save(*out, g); err != nil {
		slog.Error("Failed to write grid", "file", *out, "err", err)
		os.Exit(1)
	}
	lo, hi := g.BoundingBox()
	slog.Info("Wrote grid",
		"file", *out,
		"grid", g.Name(),
		"active_voxels", g.ActiveVoxelCount(),
		"leaves", g.LeafCount(),
		"bbox_min", lo,
		"bbox_max", hi,
	)
}
