package volume

import (
	"math"
)

// MaxIntensity is the largest value a Dense cell can hold; cells map to 8-bit texels.
const MaxIntensity = 255

// Dense is a cubic lattice of N³ intensities in [0, MaxIntensity],
// stored x fastest, then y, then z.
type Dense struct {
	N     int
	Cells []float32
}

func NewDense(n int) *Dense {
	return &Dense{N: n, Cells: make([]float32, n*n*n)}
}

// Index maps lattice coordinates to the position in Cells.
func (d *Dense) Index(x, y, z int) int {
	return x + d.N*(y+d.N*z)
}

// Contains reports whether (x, y, z) addresses a cell of the lattice.
func (d *Dense) Contains(x, y, z int) bool {
	return x >= 0 && x < d.N && y >= 0 && y < d.N && z >= 0 && z < d.N
}

func (d *Dense) At(x, y, z int) float32 {
	return d.Cells[d.Index(x, y, z)]
}

// accumulate adds v to cell i and clamps the result to [0, MaxIntensity].
func (d *Dense) accumulate(i int, v float32) {
	d.Cells[i] = clamp(d.Cells[i]+v, 0, MaxIntensity)
}

// R8 quantizes the cells to one byte each, ready for a single channel texture.
func (d *Dense) R8() []uint8 {
	out := make([]uint8, len(d.Cells))
	for i, c := range d.Cells {
		out[i] = uint8(math.Round(float64(clamp(c, 0, MaxIntensity))))
	}
	return out
}

func clamp(v, lo, hi float32) float32 {
	if v < lo || v != v {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
