package main

import (
	"math"

	mgl "github.com/go-gl/mathgl/mgl32"

	"github.com/xopoww/go-volumetric/vdb"
)

func hash(n float64) float64 {
	x := math.Sin(n) * 43758.5453
	return x - math.Floor(x)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// valueNoise is smooth lattice noise in [0,1].
func valueNoise(p mgl.Vec3) float64 {
	x, y, z := float64(p.X()), float64(p.Y()), float64(p.Z())
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	tx, ty, tz := x-fx, y-fy, z-fz
	tx, ty, tz = tx*tx*(3-2*tx), ty*ty*(3-2*ty), tz*tz*(3-2*tz)

	n := fx + fy*57 + fz*113
	return lerp(
		lerp(lerp(hash(n), hash(n+1), tx), lerp(hash(n+57), hash(n+58), tx), ty),
		lerp(lerp(hash(n+113), hash(n+114), tx), lerp(hash(n+170), hash(n+171), tx), ty),
		tz,
	)
}

func fbm(p mgl.Vec3, octaves int) float64 {
	sum, amplitude, norm := 0.0, 0.5, 0.0
	for i := 0; i < octaves; i++ {
		sum += amplitude * valueNoise(p)
		norm += amplitude
		p = p.Mul(2.03)
		amplitude *= 0.5
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// Cloud fills a size³ block of voxels with a noisy sphere whose density falls
// off towards its surface. Voxels below threshold are left inactive.
func Cloud(name string, xform vdb.Transform, size, octaves int, threshold float32) *vdb.Grid {
	g := vdb.NewGrid(name, xform)
	center := float32(size-1) / 2
	radius := float32(size) / 2

	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				p := mgl.Vec3{float32(x), float32(y), float32(z)}
				r := p.Sub(mgl.Vec3{center, center, center}).Len() / radius

				noise := fbm(p.Mul(4/float32(size)), octaves)
				d := float32(1-float64(r)*1.25+(noise-0.5)*0.8) * 0.8
				if d < threshold {
					continue
				}
				g.SetValue(vdb.Coord{X: int32(x), Y: int32(y), Z: int32(z)}, min(d, 1))
			}
		}
	}
	return g
}
