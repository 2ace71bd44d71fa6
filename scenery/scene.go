package scenery

import (
	mgl "github.com/go-gl/mathgl/mgl32"

	"github.com/xopoww/go-volumetric/app"
)

// Node places a mesh with a material in the world.
type Node struct {
	Name     string
	Mesh     *Mesh
	Material Material
	Model    mgl.Mat4
}

func NewNode(name string, mesh *Mesh, material Material) *Node {
	return &Node{
		Name:     name,
		Mesh:     mesh,
		Material: material,
		Model:    mgl.Ident4(),
	}
}

func (n *Node) Render(f *Frame) {
	if n.Material == nil {
		return
	}
	n.Material.Render(n.Mesh, n.Model, f)
}

// FitModel scales the unit cube to the proportions of a box of the given size,
// with its largest side spanning 2*scale, centered at position.
func FitModel(size mgl.Vec3, scale float32, position mgl.Vec3) mgl.Mat4 {
	longest := max(size.X(), size.Y(), size.Z())
	if longest <= 0 {
		return mgl.Translate3D(position.X(), position.Y(), position.Z())
	}
	s := size.Mul(scale / longest)
	return mgl.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(mgl.Scale3D(s.X(), s.Y(), s.Z()))
}

// Scene holds the nodes to draw and the global render state.
type Scene struct {
	Camera     *Camera
	Nodes      []*Node
	Background mgl.Vec4
	Ambient    mgl.Vec4

	ShowGrid      bool
	ShowWireframe bool

	grid      *Node
	wireframe Material
}

func NewScene(camera *Camera) *Scene {
	return &Scene{
		Camera:     camera,
		Background: mgl.Vec4{0.1, 0.1, 0.1, 1},
		Ambient:    mgl.Vec4{0.75, 0.75, 0.75, 1},
		ShowGrid:   true,
	}
}

func (s *Scene) AddNode(n *Node) {
	s.Nodes = append(s.Nodes, n)
}

// SetOverlays installs the floor grid node and the material used for wireframes.
func (s *Scene) SetOverlays(grid *Node, wireframe Material) {
	s.grid = grid
	s.wireframe = wireframe
}

func (s *Scene) Frame() *Frame {
	return &Frame{
		Camera:     s.Camera,
		Background: s.Background,
		Ambient:    s.Ambient,
	}
}

func (s *Scene) Render() {
	f := s.Frame()
	for _, n := range s.Nodes {
		n.Render(f)
		if s.ShowWireframe && s.wireframe != nil {
			s.wireframe.Render(n.Mesh, n.Model, f)
		}
	}
	if s.ShowGrid && s.grid != nil {
		s.grid.Render(f)
	}
}

const orbitSpeed = 0.005

// AttachToEventHandler orbits the camera on mouse drag and zooms on scroll.
func (cam *Camera) AttachToEventHandler(eh *app.EventHandler) {
	eh.OnDrag(func(dx, dy float64) {
		cam.Orbit(float32(dx)*orbitSpeed, float32(-dy)*orbitSpeed)
	})
	eh.OnScroll(cam.Zoom)
	eh.OnResize(cam.SetAspect)
}
