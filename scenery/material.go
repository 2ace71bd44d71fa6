package scenery

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/gl/v4.6-core/gl"
	mgl "github.com/go-gl/mathgl/mgl32"

	"github.com/xopoww/go-volumetric/glutils"
	"github.com/xopoww/go-volumetric/shaders"
)

// Frame carries the per-frame state materials need to draw.
type Frame struct {
	Camera     *Camera
	Background mgl.Vec4
	Ambient    mgl.Vec4
}

// Material knows how to draw a mesh. LogValue dumps its tunable parameters.
type Material interface {
	SetUniforms(f *Frame, model mgl.Mat4)
	Render(mesh *Mesh, model mgl.Mat4, f *Frame)
	slog.LogValuer
}

func colorValue(c mgl.Vec4) slog.Attr {
	return slog.String("color", fmt.Sprintf("(%.2f, %.2f, %.2f)", c.X(), c.Y(), c.Z()))
}

// FlatMaterial fills the mesh with a single color.
type FlatMaterial struct {
	Color   mgl.Vec4
	program *glutils.Program
}

func NewFlatMaterial(lib *glutils.Library, color mgl.Vec4) (*FlatMaterial, error) {
	program, err := lib.Get("basic.vert", "flat.frag", nil)
	if err != nil {
		return nil, err
	}
	return &FlatMaterial{Color: color, program: program}, nil
}

func (m *FlatMaterial) SetUniforms(f *Frame, model mgl.Mat4) {
	m.program.SetMat4("u_viewprojection", f.Camera.ViewProjection())
	m.program.SetVec3("u_camera_position", f.Camera.Eye)
	m.program.SetMat4("u_model", model)
	m.program.SetVec4("u_color", m.Color)
}

func (m *FlatMaterial) Render(mesh *Mesh, model mgl.Mat4, f *Frame) {
	if mesh == nil {
		return
	}
	m.program.Use()
	m.SetUniforms(f, model)
	mesh.Render()
	m.program.Disable()
}

func (m *FlatMaterial) LogValue() slog.Value {
	return slog.GroupValue(slog.String("kind", "flat"), colorValue(m.Color))
}

// WireframeMaterial draws the edges of the mesh's triangles.
type WireframeMaterial struct {
	FlatMaterial
}

func NewWireframeMaterial(lib *glutils.Library) (*WireframeMaterial, error) {
	flat, err := NewFlatMaterial(lib, mgl.Vec4{1, 1, 1, 1})
	if err != nil {
		return nil, err
	}
	return &WireframeMaterial{FlatMaterial: *flat}, nil
}

func (m *WireframeMaterial) Render(mesh *Mesh, model mgl.Mat4, f *Frame) {
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	gl.Disable(gl.CULL_FACE)
	m.FlatMaterial.Render(mesh, model, f)
	gl.Enable(gl.CULL_FACE)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
}

func (m *WireframeMaterial) LogValue() slog.Value {
	return slog.GroupValue(slog.String("kind", "wireframe"), colorValue(m.Color))
}

// StandardMaterial shades solid meshes with the scene's ambient light plus a
// light at the camera. ShowNormals switches to a debug view of the normals.
type StandardMaterial struct {
	Color       mgl.Vec4
	ShowNormals bool

	shaded  *glutils.Program
	normals *glutils.Program
}

func NewStandardMaterial(lib *glutils.Library, color mgl.Vec4) (*StandardMaterial, error) {
	shaded, err := lib.Get("basic.vert", "standard.frag", shaders.StandardOptions{})
	if err != nil {
		return nil, err
	}
	normals, err := lib.Get("basic.vert", "standard.frag", shaders.StandardOptions{Normals: true})
	if err != nil {
		return nil, err
	}
	return &StandardMaterial{Color: color, shaded: shaded, normals: normals}, nil
}

func (m *StandardMaterial) ToggleNormals() {
	m.ShowNormals = !m.ShowNormals
}

func (m *StandardMaterial) program() *glutils.Program {
	if m.ShowNormals {
		return m.normals
	}
	return m.shaded
}

func (m *StandardMaterial) SetUniforms(f *Frame, model mgl.Mat4) {
	p := m.program()
	p.SetMat4("u_viewprojection", f.Camera.ViewProjection())
	p.SetVec3("u_camera_position", f.Camera.Eye)
	p.SetMat4("u_model", model)
	p.SetVec4("u_color", m.Color)
	p.SetVec4("u_ambient_light", f.Ambient)
}

func (m *StandardMaterial) Render(mesh *Mesh, model mgl.Mat4, f *Frame) {
	if mesh == nil {
		return
	}
	p := m.program()
	p.Use()
	m.SetUniforms(f, model)
	mesh.Render()
	p.Disable()
}

func (m *StandardMaterial) LogValue() slog.Value {
	if m.ShowNormals {
		return slog.GroupValue(slog.String("kind", "standard"), slog.Bool("normals", true))
	}
	return slog.GroupValue(slog.String("kind", "standard"), slog.Bool("normals", false), colorValue(m.Color))
}

// VolumeType selects where the ray marcher takes density from.
type VolumeType int32

const (
	Homogeneous VolumeType = iota
	Heterogeneous
	Textured
)

func (vt VolumeType) String() string {
	switch vt {
	case Homogeneous:
		return "Homogeneous"
	case Heterogeneous:
		return "Heterogeneous"
	case Textured:
		return "Textured"
	}
	return fmt.Sprintf("VolumeType(%d)", int32(vt))
}

// maxRaySteps bounds the fragment shader loop.
const maxRaySteps = 1024

// VolumeMaterial ray-marches the inside of a unit cube mesh.
type VolumeMaterial struct {
	Color       mgl.Vec4
	Absorption  float32
	StepSize    float32
	NoiseScale  float32
	NoiseDetail int32
	Type        VolumeType
	Emission    bool

	// Texture is a 3D density texture, 0 if none was attached.
	Texture uint32

	absorptionOnly     *glutils.Program
	emissionAbsorption *glutils.Program
}

func NewVolumeMaterial(lib *glutils.Library) (*VolumeMaterial, error) {
	m := &VolumeMaterial{
		Color:       mgl.Vec4{1, 1, 1, 1},
		Absorption:  0.01,
		StepSize:    0.1,
		NoiseScale:  0.5,
		NoiseDetail: 2,
		Type:        Heterogeneous,
	}
	var err error
	m.absorptionOnly, err = lib.Get("basic.vert", "volume.frag", shaders.VolumeOptions{MaxSteps: maxRaySteps})
	if err != nil {
		return nil, err
	}
	m.emissionAbsorption, err = lib.Get("basic.vert", "volume.frag", shaders.VolumeOptions{Emission: true, MaxSteps: maxRaySteps})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// AttachTexture makes the material sample density from texture.
func (m *VolumeMaterial) AttachTexture(texture uint32) {
	m.Texture = texture
	m.Type = Textured
}

// NextType cycles through the volume types, skipping Textured when no texture is attached.
func (m *VolumeMaterial) NextType() {
	m.Type = (m.Type + 1) % (Textured + 1)
	if m.Type == Textured && m.Texture == 0 {
		m.Type = Homogeneous
	}
}

func (m *VolumeMaterial) program() *glutils.Program {
	if m.Emission {
		return m.emissionAbsorption
	}
	return m.absorptionOnly
}

func (m *VolumeMaterial) SetUniforms(f *Frame, model mgl.Mat4) {
	p := m.program()
	p.SetVec4("u_background_color", f.Background)
	p.SetMat4("u_viewprojection", f.Camera.ViewProjection())
	p.SetVec3("u_camera_position", f.Camera.Eye)
	p.SetMat4("u_model", model)
	p.SetVec4("u_color", m.Color)
	p.SetFloat("u_absorption", m.Absorption)
	p.SetInt("u_volume_type", int32(m.Type))
	p.SetFloat("u_step_size", m.StepSize)
	p.SetFloat("u_noise_scale", m.NoiseScale)
	p.SetInt("u_noise_detail", m.NoiseDetail)
	if m.Texture != 0 {
		p.SetTexture3D("u_texture", m.Texture, 0)
	}
}

// Render draws the back faces so the volume stays visible with the camera inside it.
func (m *VolumeMaterial) Render(mesh *Mesh, model mgl.Mat4, f *Frame) {
	if mesh == nil {
		return
	}
	p := m.program()
	p.Use()
	m.SetUniforms(f, model)

	gl.CullFace(gl.FRONT)
	mesh.Render()
	gl.CullFace(gl.BACK)

	gl.BindTexture(gl.TEXTURE_3D, 0)
	p.Disable()
}

func (m *VolumeMaterial) LogValue() slog.Value {
	shading := "absorption"
	if m.Emission {
		shading = "emission-absorption"
	}
	return slog.GroupValue(
		slog.String("kind", "volume"),
		slog.String("shading", shading),
		slog.String("type", m.Type.String()),
		slog.Float64("absorption", float64(m.Absorption)),
		slog.Float64("step_size", float64(m.StepSize)),
		slog.Float64("noise_scale", float64(m.NoiseScale)),
		slog.Int("noise_detail", int(m.NoiseDetail)),
		colorValue(m.Color),
	)
}
