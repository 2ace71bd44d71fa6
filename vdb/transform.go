package vdb

import (
	"errors"
	"math"

	mgl "github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrSingularTransform   = errors.New("transform is not invertible")
	ErrProjectiveTransform = errors.New("transform is not affine")
)

// Transform maps between a grid's index space and world space.
// The zero value is not valid; build one with NewTransform or UniformTransform.
type Transform struct {
	indexToWorld mgl.Mat4
	worldToIndex mgl.Mat4
}

// NewTransform creates a Transform from an affine index-to-world matrix.
// The bottom row must be (0, 0, 0, 1).
func NewTransform(indexToWorld mgl.Mat4) (Transform, error) {
	for _, v := range indexToWorld {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Transform{}, ErrSingularTransform
		}
	}
	if indexToWorld.Row(3) != (mgl.Vec4{0, 0, 0, 1}) {
		return Transform{}, ErrProjectiveTransform
	}
	worldToIndex, err := invertAffine(indexToWorld)
	if err != nil {
		return Transform{}, err
	}
	return Transform{
		indexToWorld: indexToWorld,
		worldToIndex: worldToIndex,
	}, nil
}

// invertAffine inverts the 3x3 linear part in float64, where the determinant
// of sub-micron voxel scales does not underflow, and solves for the translation.
func invertAffine(m mgl.Mat4) (mgl.Mat4, error) {
	linear := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			linear.Set(r, c, float64(m.At(r, c)))
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(linear); err != nil {
		return mgl.Mat4{}, ErrSingularTransform
	}

	var out mgl.Mat4
	for r := 0; r < 3; r++ {
		var shift float64
		for c := 0; c < 3; c++ {
			v := inv.At(r, c)
			shift -= v * float64(m.At(c, 3))
			out.Set(r, c, float32(v))
		}
		out.Set(r, 3, float32(shift))
	}
	out.Set(3, 3, 1)
	for _, v := range out {
		if math.IsInf(float64(v), 0) {
			return mgl.Mat4{}, ErrSingularTransform
		}
	}
	return out, nil
}

// Same as NewTransform, but panics if the matrix is rejected
func MustTransform(indexToWorld mgl.Mat4) Transform {
	t, err := NewTransform(indexToWorld)
	if err != nil {
		panic(err)
	}
	return t
}

// UniformTransform scales index space by voxelSize and places voxel (0,0,0) at origin.
func UniformTransform(voxelSize float32, origin mgl.Vec3) (Transform, error) {
	return NewTransform(
		mgl.Translate3D(origin.X(), origin.Y(), origin.Z()).
			Mul4(mgl.Scale3D(voxelSize, voxelSize, voxelSize)),
	)
}

func (t Transform) Valid() bool {
	return t.worldToIndex[15] == 1
}

func (t Transform) Matrix() mgl.Mat4 {
	return t.indexToWorld
}

func (t Transform) InverseMatrix() mgl.Mat4 {
	return t.worldToIndex
}

func (t Transform) IndexToWorld(p mgl.Vec3) mgl.Vec3 {
	return mgl.TransformCoordinate(p, t.indexToWorld)
}

func (t Transform) WorldToIndex(p mgl.Vec3) mgl.Vec3 {
	return mgl.TransformCoordinate(p, t.worldToIndex)
}

// WorldToIndexDir maps a world-space displacement into index space,
// ignoring translation.
func (t Transform) WorldToIndexDir(v mgl.Vec3) mgl.Vec3 {
	return mgl.TransformNormal(v, t.worldToIndex)
}

// VoxelSize returns the world-space length of the index-space unit vectors.
func (t Transform) VoxelSize() mgl.Vec3 {
	return mgl.Vec3{
		t.indexToWorld.Col(0).Vec3().Len(),
		t.indexToWorld.Col(1).Vec3().Len(),
		t.indexToWorld.Col(2).Vec3().Len(),
	}
}
