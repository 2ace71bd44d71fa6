package volume

import (
	mgl "github.com/go-gl/mathgl/mgl32"
)

// Cursor walks an N³ lattice in row-major order like an odometer:
// x turns fastest, wraps into y, and y wraps into z.
// Target tracks the sample position that corresponds to (X, Y, Z).
type Cursor struct {
	X, Y, Z int
	Target  mgl.Vec3

	n     int
	start mgl.Vec3
	step  [3]mgl.Vec3
}

// NewCursor places a cursor at cell (0,0,0), whose position is start.
// step[i] is the displacement of one cell along lattice axis i.
func NewCursor(n int, start mgl.Vec3, step [3]mgl.Vec3) *Cursor {
	return &Cursor{
		Target: start,
		n:      n,
		start:  start,
		step:   step,
	}
}

func (c *Cursor) Done() bool {
	return c.Z >= c.n
}

// Next advances to the following cell.
func (c *Cursor) Next() {
	c.X++
	if c.X < c.n {
		c.Target = c.Target.Add(c.step[0])
		return
	}
	c.X = 0
	c.Y++
	if c.Y == c.n {
		c.Y = 0
		c.Z++
	}
	// each row restarts from start instead of accumulating x steps
	c.Target = c.start.
		Add(c.step[1].Mul(float32(c.Y))).
		Add(c.step[2].Mul(float32(c.Z)))
}
