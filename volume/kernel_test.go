package volume

import (
	"math"
	"sort"
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKernelWeight(t *testing.T) {
	k := Kernel{Radius: 4}
	assert.Equal(t, float32(1), k.Weight(0, 0, 0))
	assert.Equal(t, float32(0.5), k.Weight(-1, 0, 0))
	assert.Equal(t, float32(0), k.Weight(0, 2, 0))
	assert.Equal(t, float32(0), k.Weight(3, 3, 3))

	none := Kernel{}
	assert.Equal(t, float32(1), none.Weight(0, 0, 0))
	assert.Equal(t, float32(0), none.Weight(1, 0, 0))
}

func TestKernelWeightMonotonic(t *testing.T) {
	for r := 1; r <= 6; r++ {
		k := Kernel{Radius: r}
		type sample struct {
			dist   float64
			weight float32
		}
		var samples []sample
		for sz := -r; sz < r; sz++ {
			for sy := -r; sy < r; sy++ {
				for sx := -r; sx < r; sx++ {
					w := k.Weight(sx, sy, sz)
					require.True(t, w >= 0 && w <= 1, "R=%d weight %v", r, w)
					samples = append(samples, sample{math.Sqrt(float64(sx*sx + sy*sy + sz*sz)), w})
				}
			}
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i].dist < samples[j].dist })
		for i := 1; i < len(samples); i++ {
			if samples[i].dist > samples[i-1].dist {
				assert.LessOrEqual(t, samples[i].weight, samples[i-1].weight, "R=%d at distance %v", r, samples[i].dist)
			}
		}
	}
}

func TestKernelOffsets(t *testing.T) {
	assert.Equal(t, []splatOffset{{weight: 1}}, Kernel{}.offsets())
	assert.Equal(t, []splatOffset{{weight: 1}}, Kernel{Radius: 1}.offsets())
	assert.Equal(t, []splatOffset{{weight: 1}}, Kernel{Radius: 2}.offsets())

	// radius 4 falls to zero at distance 2: the centre plus the 26 cells around it
	offs := Kernel{Radius: 4}.offsets()
	assert.Len(t, offs, 1+6+12+8)
	for _, o := range offs {
		assert.True(t, o.dx >= -4 && o.dx < 4)
		assert.Greater(t, o.weight, float32(0))
	}
}

func TestCursorOdometer(t *testing.T) {
	const n = 4
	step := [3]mgl.Vec3{{1, 0, 0}, {0, 2, 0}, {0, 0, 3}}
	cur := NewCursor(n, mgl.Vec3{0.5, 1, 1.5}, step)

	seen := make(map[[3]int]bool)
	visited := 0
	for !cur.Done() {
		x, y, z := visited%n, visited/n%n, visited/(n*n)
		require.Equal(t, [3]int{x, y, z}, [3]int{cur.X, cur.Y, cur.Z})
		want := mgl.Vec3{0.5 + float32(x), 1 + 2*float32(y), 1.5 + 3*float32(z)}
		assert.InDeltaSlice(t, want[:], cur.Target[:], 1e-5)

		key := [3]int{cur.X, cur.Y, cur.Z}
		assert.False(t, seen[key], "cell %v visited twice", key)
		seen[key] = true
		visited++
		cur.Next()
	}
	assert.Equal(t, n*n*n, visited)
	assert.Len(t, seen, n*n*n)
	assert.Equal(t, n, cur.Z)
}

func TestDenseIndex(t *testing.T) {
	d := NewDense(3)
	assert.Equal(t, 0, d.Index(0, 0, 0))
	assert.Equal(t, 1, d.Index(1, 0, 0))
	assert.Equal(t, 3, d.Index(0, 1, 0))
	assert.Equal(t, 9, d.Index(0, 0, 1))
	assert.Equal(t, 26, d.Index(2, 2, 2))

	assert.True(t, d.Contains(2, 0, 1))
	assert.False(t, d.Contains(3, 0, 0))
	assert.False(t, d.Contains(0, -1, 0))
}

func TestDenseAccumulateClamps(t *testing.T) {
	d := NewDense(1)
	d.accumulate(0, 200)
	d.accumulate(0, 200)
	assert.Equal(t, float32(MaxIntensity), d.Cells[0])
	d.accumulate(0, -1000)
	assert.Zero(t, d.Cells[0])
}

func TestDenseR8(t *testing.T) {
	d := &Dense{N: 2, Cells: []float32{0, 0.4, 127.5, 254.6, 255, 300, -2, 1}}
	assert.Equal(t, []uint8{0, 0, 128, 255, 255, 255, 0, 1}, d.R8())
}

func TestSummarize(t *testing.T) {
	d := &Dense{N: 2, Cells: []float32{0, 0, 0, 0, 255, 255, 0, 0}}
	s := Summarize(d)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 255.0, s.Max)
	assert.InDelta(t, 63.75, s.Mean, 1e-9)
	assert.InDelta(t, 0.25, s.Occupancy, 1e-9)
	assert.Greater(t, s.Std, 0.0)

	assert.Equal(t, Stats{}, Summarize(&Dense{}))
}
