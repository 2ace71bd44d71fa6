// Package volume bakes sparse grids into dense lattices for 3D textures.
package volume

import (
	"errors"
	"fmt"
	"math"

	mgl "github.com/go-gl/mathgl/mgl32"

	"github.com/xopoww/go-volumetric/vdb"
)

var (
	ErrInvalidGrid           = errors.New("invalid grid")
	ErrUnsupportedResolution = errors.New("unsupported resolution")
	ErrInvalidRadius         = errors.New("invalid splat radius")
)

const (
	DefaultResolution = 128
	DefaultRadius     = 2

	// 512³ float32 cells take 512 MiB, plus 128 MiB for the R8 copy
	MaxResolution = 512
)

// Grid is the view of a sparse grid needed for densification.
// *vdb.Grid satisfies it.
type Grid interface {
	BoundingBox() (lo, hi mgl.Vec3)
	Transform() vdb.Transform
	IndexValue(index mgl.Vec3) float32
}

type Options struct {
	// Resolution is the number of lattice cells per axis.
	Resolution int
	// Radius of the splat kernel in lattice cells; 0 disables splatting.
	Radius int
}

func DefaultOptions() Options {
	return Options{
		Resolution: DefaultResolution,
		Radius:     DefaultRadius,
	}
}

func (o Options) validate() error {
	if o.Resolution <= 0 || o.Resolution > MaxResolution {
		return fmt.Errorf("%w: %d cells per axis", ErrUnsupportedResolution, o.Resolution)
	}
	if o.Radius < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRadius, o.Radius)
	}
	return nil
}

// Densify samples g on an evenly spaced lattice over its world bounding box
// and splats every sample into a new Dense volume.
//
// The lattice spacing is constant in world space; the walk itself happens in
// the grid's index space so that rotated or non-uniform grids are sampled
// correctly. g is only read.
func Densify(g Grid, opts Options) (*Dense, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	lo, hi := g.BoundingBox()
	size := hi.Sub(lo)
	for axis := 0; axis < 3; axis++ {
		s := float64(size[axis])
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: bounding box %v - %v is degenerate", ErrInvalidGrid, lo, hi)
		}
	}
	xform := g.Transform()
	if !xform.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGrid, vdb.ErrSingularTransform)
	}

	n := opts.Resolution
	center := lo.Add(size.Mul(0.5))
	step := size.Mul(1 / float32(n))

	var axisSteps [3]mgl.Vec3
	for axis := 0; axis < 3; axis++ {
		var v mgl.Vec3
		v[axis] = step[axis]
		axisSteps[axis] = xform.WorldToIndexDir(v)
	}
	start := xform.WorldToIndex(center.Sub(size.Mul(0.5)).Add(step.Mul(0.5)))

	dense := NewDense(n)
	offsets := Kernel{Radius: opts.Radius}.offsets()

	cur := NewCursor(n, start, axisSteps)
	for visited := 0; visited < n*n*n && !cur.Done(); visited++ {
		// NaN would wipe cells its neighbours already filled
		if value := g.IndexValue(cur.Target); value != 0 && value == value {
			splat(dense, cur.X, cur.Y, cur.Z, value*MaxIntensity, offsets)
		}
		cur.Next()
	}
	return dense, nil
}

// splat adds intensity, scaled by each offset's weight, around (x, y, z).
// Offsets that leave the lattice are dropped.
func splat(d *Dense, x, y, z int, intensity float32, offsets []splatOffset) {
	for _, o := range offsets {
		tx, ty, tz := x+o.dx, y+o.dy, z+o.dz
		if !d.Contains(tx, ty, tz) {
			continue
		}
		d.accumulate(d.Index(tx, ty, tz), o.weight*intensity)
	}
}
