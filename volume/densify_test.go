package volume

import (
	"math"
	"math/rand"
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xopoww/go-volumetric/vdb"
)

// fieldGrid is a Grid backed by an arbitrary function of index-space position.
type fieldGrid struct {
	lo, hi  mgl.Vec3
	xform   vdb.Transform
	field   func(p mgl.Vec3) float32
	samples []mgl.Vec3
}

func (g *fieldGrid) BoundingBox() (mgl.Vec3, mgl.Vec3) { return g.lo, g.hi }
func (g *fieldGrid) Transform() vdb.Transform          { return g.xform }
func (g *fieldGrid) IndexValue(p mgl.Vec3) float32 {
	g.samples = append(g.samples, p)
	return g.field(p)
}

func boxGrid(size float32, field func(p mgl.Vec3) float32) *fieldGrid {
	return &fieldGrid{
		hi:    mgl.Vec3{size, size, size},
		xform: vdb.MustTransform(mgl.Ident4()),
		field: field,
	}
}

func constant(v float32) func(mgl.Vec3) float32 {
	return func(mgl.Vec3) float32 { return v }
}

// pointAt is non-zero only at the lattice cell centred on c.
func pointAt(c mgl.Vec3, v float32) func(mgl.Vec3) float32 {
	return func(p mgl.Vec3) float32 {
		if p.Sub(c).Len() < 0.1 {
			return v
		}
		return 0
	}
}

func TestDensifyConstantNoSplat(t *testing.T) {
	tests := []struct {
		value float32
		want  float32
	}{
		{1, 255},
		{0.5, 127.5},
		{2, 255},
		{-1, 0},
	}
	for _, tt := range tests {
		d, err := Densify(boxGrid(4, constant(tt.value)), Options{Resolution: 4, Radius: 0})
		require.NoError(t, err)
		require.Len(t, d.Cells, 64)
		for i, c := range d.Cells {
			assert.Equal(t, tt.want, c, "value %v cell %d", tt.value, i)
		}
	}
}

func TestDensifyNarrowFalloff(t *testing.T) {
	g := boxGrid(4, pointAt(mgl.Vec3{2.5, 2.5, 2.5}, 1))
	d, err := Densify(g, Options{Resolution: 4, Radius: 1})
	require.NoError(t, err)

	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				want := float32(0)
				if x == 2 && y == 2 && z == 2 {
					want = 255
				}
				assert.Equal(t, want, d.At(x, y, z), "cell (%d,%d,%d)", x, y, z)
			}
		}
	}
}

func TestDensifyWideFalloff(t *testing.T) {
	g := boxGrid(8, pointAt(mgl.Vec3{4.5, 4.5, 4.5}, 1))
	d, err := Densify(g, Options{Resolution: 8, Radius: 4})
	require.NoError(t, err)

	assert.Equal(t, float32(255), d.At(4, 4, 4))
	assert.InDelta(t, 127.5, d.At(5, 4, 4), 1e-4)
	assert.InDelta(t, 127.5, d.At(4, 3, 4), 1e-4)
	assert.InDelta(t, 255*(1-math.Sqrt2/2), d.At(5, 5, 4), 1e-3)
	assert.InDelta(t, 255*(1-math.Sqrt(3)/2), d.At(3, 3, 3), 1e-3)
	assert.Zero(t, d.At(6, 4, 4))
	assert.Zero(t, d.At(0, 0, 0))
}

func TestDensifyBoundaryClipping(t *testing.T) {
	g := boxGrid(4, pointAt(mgl.Vec3{0.5, 0.5, 0.5}, 1))
	d, err := Densify(g, Options{Resolution: 4, Radius: 4})
	require.NoError(t, err)

	assert.Equal(t, float32(255), d.At(0, 0, 0))
	assert.InDelta(t, 127.5, d.At(1, 0, 0), 1e-4)
	// offsets of -1 must not wrap around to the far side
	assert.Zero(t, d.At(3, 0, 0))
	assert.Zero(t, d.At(0, 3, 0))
	assert.Zero(t, d.At(0, 0, 3))
	assert.Zero(t, d.At(3, 3, 3))

	var want float64
	for _, o := range (Kernel{Radius: 4}).offsets() {
		if o.dx >= 0 && o.dy >= 0 && o.dz >= 0 {
			want += float64(o.weight) * 255
		}
	}
	var got float64
	for _, c := range d.Cells {
		got += float64(c)
	}
	assert.InDelta(t, want, got, 1e-2)
}

func TestDensifyClampsOverlap(t *testing.T) {
	d, err := Densify(boxGrid(1, constant(1)), Options{Resolution: 6, Radius: 4})
	require.NoError(t, err)
	for _, c := range d.Cells {
		assert.Equal(t, float32(MaxIntensity), c)
	}
}

func TestDensifyRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	field := func(mgl.Vec3) float32 { return rng.Float32()*4 - 1.5 }

	for _, n := range []int{1, 2, 5, 8} {
		for _, r := range []int{0, 1, 2, 3, 5} {
			d, err := Densify(boxGrid(3, field), Options{Resolution: n, Radius: r})
			require.NoError(t, err)
			for i, c := range d.Cells {
				if c < 0 || c > MaxIntensity {
					t.Fatalf("N=%d R=%d: cell %d = %v out of range", n, r, i, c)
				}
			}
		}
	}
}

func TestDensifySkipsNaN(t *testing.T) {
	nan := float32(math.NaN())
	g := boxGrid(4, func(p mgl.Vec3) float32 {
		if p.X() > 2 {
			return nan
		}
		return 1
	})
	d, err := Densify(g, Options{Resolution: 4, Radius: 4})
	require.NoError(t, err)
	assert.Equal(t, float32(255), d.At(1, 1, 1))
	for _, c := range d.Cells {
		assert.False(t, math.IsNaN(float64(c)))
	}
}

func TestDensifyTraversalOrder(t *testing.T) {
	const n = 3
	g := boxGrid(3, constant(0))
	_, err := Densify(g, Options{Resolution: n, Radius: 2})
	require.NoError(t, err)

	require.Len(t, g.samples, n*n*n)
	i := 0
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				want := mgl.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}
				assert.InDeltaSlice(t, want[:], g.samples[i][:], 1e-5, "sample %d", i)
				i++
			}
		}
	}
}

func TestDensifyTransformedGrid(t *testing.T) {
	// index space rotated 90 degrees about z and scaled by 2, then shifted
	xform := vdb.MustTransform(mgl.Translate3D(10, 0, 0).
		Mul4(mgl.HomogRotate3DZ(mgl.DegToRad(90))).
		Mul4(mgl.Scale3D(2, 2, 2)))
	g := &fieldGrid{
		lo:    mgl.Vec3{0, 0, 0},
		hi:    mgl.Vec3{2, 4, 6},
		xform: xform,
		field: constant(0),
	}
	_, err := Densify(g, Options{Resolution: 2})
	require.NoError(t, err)
	require.Len(t, g.samples, 8)

	i := 0
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				want := mgl.Vec3{0.5 + float32(x), 1 + 2*float32(y), 1.5 + 3*float32(z)}
				got := xform.IndexToWorld(g.samples[i])
				assert.InDeltaSlice(t, want[:], got[:], 1e-4, "sample %d", i)
				i++
			}
		}
	}
}

func TestDensifySparseGrid(t *testing.T) {
	g := vdb.NewGrid("density", vdb.MustTransform(mgl.Ident4()))
	for z := int32(0); z < 4; z++ {
		for y := int32(0); y < 4; y++ {
			for x := int32(0); x < 4; x++ {
				g.SetValue(vdb.Coord{X: x, Y: y, Z: z}, 1)
			}
		}
	}
	before := g.ActiveVoxelCount()

	d, err := Densify(g, Options{Resolution: 4, Radius: 0})
	require.NoError(t, err)
	for _, c := range d.Cells {
		assert.Equal(t, float32(255), c)
	}
	assert.Equal(t, before, g.ActiveVoxelCount())
	lo, hi := g.BoundingBox()
	assert.Equal(t, mgl.Vec3{-0.5, -0.5, -0.5}, lo)
	assert.Equal(t, mgl.Vec3{3.5, 3.5, 3.5}, hi)
}

func TestDensifyErrors(t *testing.T) {
	flat := &fieldGrid{hi: mgl.Vec3{1, 0, 1}, xform: vdb.MustTransform(mgl.Ident4()), field: constant(1)}
	inf := &fieldGrid{hi: mgl.Vec3{1, float32(math.Inf(1)), 1}, xform: vdb.MustTransform(mgl.Ident4()), field: constant(1)}
	nan := &fieldGrid{hi: mgl.Vec3{1, 1, float32(math.NaN())}, xform: vdb.MustTransform(mgl.Ident4()), field: constant(1)}
	inverted := &fieldGrid{lo: mgl.Vec3{1, 1, 1}, xform: vdb.MustTransform(mgl.Ident4()), field: constant(1)}
	singular := &fieldGrid{hi: mgl.Vec3{1, 1, 1}, field: constant(1)}
	empty := vdb.NewGrid("empty", vdb.MustTransform(mgl.Ident4()))
	ok := boxGrid(1, constant(1))

	tests := []struct {
		name string
		grid Grid
		opts Options
		want error
	}{
		{"zero height", flat, DefaultOptions(), ErrInvalidGrid},
		{"infinite", inf, DefaultOptions(), ErrInvalidGrid},
		{"nan", nan, DefaultOptions(), ErrInvalidGrid},
		{"inverted", inverted, DefaultOptions(), ErrInvalidGrid},
		{"singular transform", singular, DefaultOptions(), ErrInvalidGrid},
		{"empty sparse grid", empty, DefaultOptions(), ErrInvalidGrid},
		{"zero resolution", ok, Options{Resolution: 0}, ErrUnsupportedResolution},
		{"negative resolution", ok, Options{Resolution: -3}, ErrUnsupportedResolution},
		{"huge resolution", ok, Options{Resolution: MaxResolution + 1}, ErrUnsupportedResolution},
		{"4 GiB lattice", ok, Options{Resolution: 1024}, ErrUnsupportedResolution},
		{"negative radius", ok, Options{Resolution: 4, Radius: -1}, ErrInvalidRadius},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Densify(tt.grid, tt.opts)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, d)
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	assert.Equal(t, Options{Resolution: 128, Radius: 2}, DefaultOptions())
}
