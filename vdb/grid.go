// Package vdb implements a small sparse volumetric grid and its on-disk format.
//
// Grids are stored the way VDB stores its bottom level: voxels are grouped into
// 8³ leaf nodes keyed by their origin, and only leaves holding at least one
// active voxel exist. Everything above the leaf level is flattened into a map.
//
// Index space places voxel (i,j,k) at integer coordinates; a voxel covers the
// half-open cube [i-0.5, i+0.5). The grid's Transform maps index space to world
// space.
package vdb

import (
	"math"
	"math/bits"

	mgl "github.com/go-gl/mathgl/mgl32"
)

const (
	LeafLog2Dim = 3
	LeafDim     = 1 << LeafLog2Dim
	LeafVoxels  = LeafDim * LeafDim * LeafDim

	leafMaskWords = LeafVoxels / 64
)

// Coord is an integer voxel position in index space.
type Coord struct {
	X, Y, Z int32
}

// CoordBBox is an inclusive box of voxel coordinates.
type CoordBBox struct {
	Min, Max Coord
}

func (b CoordBBox) Dim() Coord {
	return Coord{b.Max.X - b.Min.X + 1, b.Max.Y - b.Min.Y + 1, b.Max.Z - b.Min.Z + 1}
}

func (b *CoordBBox) expand(c Coord) {
	b.Min = Coord{min(b.Min.X, c.X), min(b.Min.Y, c.Y), min(b.Min.Z, c.Z)}
	b.Max = Coord{max(b.Max.X, c.X), max(b.Max.Y, c.Y), max(b.Max.Z, c.Z)}
}

type leaf struct {
	mask   [leafMaskWords]uint64
	values [LeafVoxels]float32
}

func (l *leaf) isOn(i int) bool {
	return l.mask[i>>6]&(1<<(i&63)) != 0
}

func (l *leaf) setOn(i int) {
	l.mask[i>>6] |= 1 << (i & 63)
}

func (l *leaf) activeCount() int {
	n := 0
	for _, w := range l.mask {
		n += bits.OnesCount64(w)
	}
	return n
}

func leafOrigin(c Coord) Coord {
	const m = ^int32(LeafDim - 1)
	return Coord{c.X & m, c.Y & m, c.Z & m}
}

// voxelOffset is the linear position of c within its leaf, x major as in NanoVDB.
func voxelOffset(c Coord) int {
	const m = LeafDim - 1
	return int(c.X&m)<<(2*LeafLog2Dim) | int(c.Y&m)<<LeafLog2Dim | int(c.Z&m)
}

func offsetCoord(origin Coord, i int) Coord {
	const m = LeafDim - 1
	return Coord{
		origin.X + int32(i>>(2*LeafLog2Dim)&m),
		origin.Y + int32(i>>LeafLog2Dim&m),
		origin.Z + int32(i&m),
	}
}

// Grid is a named sparse scalar field.
type Grid struct {
	name       string
	background float32
	xform      Transform
	leaves     map[Coord]*leaf
}

func NewGrid(name string, xform Transform) *Grid {
	return &Grid{
		name:   name,
		xform:  xform,
		leaves: make(map[Coord]*leaf),
	}
}

func (g *Grid) Name() string {
	return g.name
}

func (g *Grid) Transform() Transform {
	return g.xform
}

// Background is the value returned for every inactive voxel.
func (g *Grid) Background() float32 {
	return g.background
}

func (g *Grid) SetBackground(v float32) {
	g.background = v
}

// SetValue stores v at c and marks the voxel active.
func (g *Grid) SetValue(c Coord, v float32) {
	origin := leafOrigin(c)
	l, found := g.leaves[origin]
	if !found {
		l = &leaf{}
		for i := range l.values {
			l.values[i] = g.background
		}
		g.leaves[origin] = l
	}
	i := voxelOffset(c)
	l.values[i] = v
	l.setOn(i)
}

// Value returns the value at c and whether the voxel is active.
func (g *Grid) Value(c Coord) (float32, bool) {
	l, found := g.leaves[leafOrigin(c)]
	if !found {
		return g.background, false
	}
	i := voxelOffset(c)
	if !l.isOn(i) {
		return g.background, false
	}
	return l.values[i], true
}

// IndexValue samples the voxel nearest to an index-space position.
func (g *Grid) IndexValue(p mgl.Vec3) float32 {
	x, okX := nearest(p.X())
	y, okY := nearest(p.Y())
	z, okZ := nearest(p.Z())
	if !okX || !okY || !okZ {
		return g.background
	}
	v, _ := g.Value(Coord{x, y, z})
	return v
}

func nearest(f float32) (int32, bool) {
	r := math.Floor(float64(f) + 0.5)
	if math.IsNaN(r) || r < math.MinInt32 || r > math.MaxInt32 {
		return 0, false
	}
	return int32(r), true
}

// ValueAt samples the grid at a world-space position.
func (g *Grid) ValueAt(world mgl.Vec3) float32 {
	return g.IndexValue(g.xform.WorldToIndex(world))
}

func (g *Grid) ActiveVoxelCount() int {
	n := 0
	for _, l := range g.leaves {
		n += l.activeCount()
	}
	return n
}

func (g *Grid) LeafCount() int {
	return len(g.leaves)
}

// IndexBoundingBox returns the tight box around all active voxels.
// ok is false if the grid has no active voxels.
func (g *Grid) IndexBoundingBox() (bbox CoordBBox, ok bool) {
	g.forEachActive(func(c Coord, _ float32) {
		if !ok {
			bbox = CoordBBox{Min: c, Max: c}
			ok = true
			return
		}
		bbox.expand(c)
	})
	return bbox, ok
}

// BoundingBox returns the world-space axis aligned box enclosing every active
// voxel. An empty grid yields a zero-size box at the origin.
func (g *Grid) BoundingBox() (lo, hi mgl.Vec3) {
	ibox, ok := g.IndexBoundingBox()
	if !ok {
		return mgl.Vec3{}, mgl.Vec3{}
	}
	a := mgl.Vec3{float32(ibox.Min.X) - 0.5, float32(ibox.Min.Y) - 0.5, float32(ibox.Min.Z) - 0.5}
	b := mgl.Vec3{float32(ibox.Max.X) + 0.5, float32(ibox.Max.Y) + 0.5, float32(ibox.Max.Z) + 0.5}

	for corner := 0; corner < 8; corner++ {
		p := a
		if corner&1 != 0 {
			p[0] = b[0]
		}
		if corner&2 != 0 {
			p[1] = b[1]
		}
		if corner&4 != 0 {
			p[2] = b[2]
		}
		w := g.xform.IndexToWorld(p)
		if corner == 0 {
			lo, hi = w, w
			continue
		}
		for axis := 0; axis < 3; axis++ {
			lo[axis] = min(lo[axis], w[axis])
			hi[axis] = max(hi[axis], w[axis])
		}
	}
	return lo, hi
}

func (g *Grid) forEachActive(fn func(c Coord, v float32)) {
	for origin, l := range g.leaves {
		for i := 0; i < LeafVoxels; i++ {
			if l.isOn(i) {
				fn(offsetCoord(origin, i), l.values[i])
			}
		}
	}
}
