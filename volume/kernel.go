package volume

import (
	"math"
)

// Kernel spreads a lattice sample over its neighbours ("cell bleed").
// Offsets range over [-Radius, Radius) on each axis and are weighted by
// linear falloff over Euclidean distance, reaching zero at Radius/2.
type Kernel struct {
	Radius int
}

// Weight returns the contribution factor for a sample displaced by (sx, sy, sz) cells.
func (k Kernel) Weight(sx, sy, sz int) float32 {
	if k.Radius <= 0 {
		if sx == 0 && sy == 0 && sz == 0 {
			return 1
		}
		return 0
	}
	d := math.Sqrt(float64(sx*sx + sy*sy + sz*sz))
	return clamp(float32(1-d/(float64(k.Radius)/2)), 0, 1)
}

type splatOffset struct {
	dx, dy, dz int
	weight     float32
}

// offsets lists every displacement with a non-zero weight.
func (k Kernel) offsets() []splatOffset {
	if k.Radius <= 0 {
		return []splatOffset{{weight: 1}}
	}
	r := k.Radius
	var out []splatOffset
	for sz := -r; sz < r; sz++ {
		for sy := -r; sy < r; sy++ {
			for sx := -r; sx < r; sx++ {
				if w := k.Weight(sx, sy, sz); w > 0 {
					out = append(out, splatOffset{sx, sy, sz, w})
				}
			}
		}
	}
	return out
}
