package scenery

import (
	"math"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// Camera orbits around Center and projects with a perspective frustum.
type Camera struct {
	Eye    mgl.Vec3
	Center mgl.Vec3
	Up     mgl.Vec3

	// degrees
	FOV    float32
	MinFOV float32
	MaxFOV float32
	// width / height
	Aspect float32
	Near   float32
	Far    float32

	view           mgl.Mat4
	projection     mgl.Mat4
	viewProjection mgl.Mat4
}

const (
	zoomStep = 4.0

	// keeps the eye off the poles, where the view direction would be parallel to Up
	maxPitchCos = 0.995
)

func NewCamera(width, height int) *Camera {
	cam := &Camera{
		MinFOV: 10,
		MaxFOV: 110,
	}
	cam.LookAt(mgl.Vec3{1, 1.5, 4}, mgl.Vec3{0, 0, 0}, mgl.Vec3{0, 1, 0})
	cam.SetPerspective(60, float32(width)/float32(height), 0.1, 500)
	return cam
}

func (cam *Camera) LookAt(eye, center, up mgl.Vec3) {
	cam.Eye = eye
	cam.Center = center
	cam.Up = up
	cam.updateViewMatrix()
}

func (cam *Camera) SetPerspective(fov, aspect, near, far float32) {
	cam.FOV = fov
	cam.Aspect = aspect
	cam.Near = near
	cam.Far = far
	cam.updateProjectionMatrix()
}

// SetAspect follows framebuffer resizes.
func (cam *Camera) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	cam.Aspect = float32(width) / float32(height)
	cam.updateProjectionMatrix()
}

func (cam *Camera) forward() mgl.Vec3 {
	return cam.Center.Sub(cam.Eye).Normalize()
}

func (cam *Camera) right() mgl.Vec3 {
	return cam.forward().Cross(cam.Up).Normalize()
}

// Orbit rotates the eye around Center: yaw about Up, pitch about the camera's
// right axis. Angles are in radians.
func (cam *Camera) Orbit(yaw, pitch float32) {
	offset := cam.Eye.Sub(cam.Center)
	up := cam.Up.Normalize()

	offset = mgl.HomogRotate3D(yaw, up).Mul4x1(offset.Vec4(0)).Vec3()

	right := up.Cross(offset).Normalize()
	pitched := mgl.HomogRotate3D(pitch, right).Mul4x1(offset.Vec4(0)).Vec3()
	if cos := pitched.Normalize().Dot(up); float32(math.Abs(float64(cos))) < maxPitchCos {
		offset = pitched
	}

	cam.Eye = cam.Center.Add(offset)
	cam.updateViewMatrix()
}

// Zoom narrows the field of view for positive scroll offsets and widens it for
// negative ones, within [MinFOV, MaxFOV].
func (cam *Camera) Zoom(yOffset float64) {
	switch {
	case yOffset < 0:
		cam.FOV = min(cam.FOV+zoomStep, cam.MaxFOV)
	case yOffset > 0:
		cam.FOV = max(cam.FOV-zoomStep, cam.MinFOV)
	default:
		return
	}
	cam.updateProjectionMatrix()
}

func (cam *Camera) updateViewMatrix() {
	cam.view = mgl.LookAtV(cam.Eye, cam.Center, cam.Up)
	cam.viewProjection = cam.projection.Mul4(cam.view)
}

func (cam *Camera) updateProjectionMatrix() {
	cam.projection = mgl.Perspective(mgl.DegToRad(cam.FOV), cam.Aspect, cam.Near, cam.Far)
	cam.viewProjection = cam.projection.Mul4(cam.view)
}

func (cam *Camera) View() mgl.Mat4 {
	return cam.view
}

func (cam *Camera) Projection() mgl.Mat4 {
	return cam.projection
}

func (cam *Camera) ViewProjection() mgl.Mat4 {
	return cam.viewProjection
}
