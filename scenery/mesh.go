package scenery

import (
	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/xopoww/go-volumetric/glutils"
)

// Mesh is a vertex array of positions drawn with a single primitive mode.
type Mesh struct {
	vao   uint32
	count int32
	mode  uint32
}

func NewMesh(points []float32, mode uint32) *Mesh {
	return &Mesh{
		vao:   glutils.MakeVao(points),
		count: int32(len(points) / 3),
		mode:  mode,
	}
}

func (m *Mesh) Render() {
	gl.BindVertexArray(m.vao)
	gl.DrawArrays(m.mode, 0, m.count)
	gl.BindVertexArray(0)
}

// CubePoints are the triangles of the [-1,1]³ cube, counter-clockwise from outside.
func CubePoints() []float32 {
	corners := [8][3]float32{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	faces := [6][4]int{
		{4, 5, 6, 7}, // +z
		{1, 0, 3, 2}, // -z
		{5, 1, 2, 6}, // +x
		{0, 4, 7, 3}, // -x
		{7, 6, 2, 3}, // +y
		{0, 1, 5, 4}, // -y
	}
	points := make([]float32, 0, 6*6*3)
	for _, f := range faces {
		for _, i := range [6]int{f[0], f[1], f[2], f[0], f[2], f[3]} {
			points = append(points, corners[i][:]...)
		}
	}
	return points
}

// PlanePoints are two triangles of a square on the y = 0 plane facing +y.
func PlanePoints(halfSize float32) []float32 {
	h := halfSize
	return []float32{
		-h, 0, -h, -h, 0, h, h, 0, h,
		-h, 0, -h, h, 0, h, h, 0, -h,
	}
}

// GridPoints are line segments of a square floor grid on the y = 0 plane.
func GridPoints(halfSize int, spacing float32) []float32 {
	extent := float32(halfSize) * spacing
	points := make([]float32, 0, (2*halfSize+1)*4*3)
	for i := -halfSize; i <= halfSize; i++ {
		p := float32(i) * spacing
		points = append(points,
			p, 0, -extent, p, 0, extent,
			-extent, 0, p, extent, 0, p,
		)
	}
	return points
}
