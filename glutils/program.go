package glutils

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	mgl "github.com/go-gl/mathgl/mgl32"
)

// Program is a linked shader program with cached uniform locations.
// Setters silently skip uniforms the driver optimized away.
type Program struct {
	ID       uint32
	name     string
	uniforms map[string]int32
}

func (p *Program) Name() string {
	return p.name
}

func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

func (p *Program) Disable() {
	gl.UseProgram(0)
}

// Uniform returns the location of a uniform, -1 if it is not active.
func (p *Program) Uniform(name string) int32 {
	loc, found := p.uniforms[name]
	if !found {
		loc = GetUniformLocation(p.ID, name)
		p.uniforms[name] = loc
	}
	return loc
}

func (p *Program) SetInt(name string, v int32) {
	if loc := p.Uniform(name); loc != -1 {
		gl.Uniform1i(loc, v)
	}
}

func (p *Program) SetFloat(name string, v float32) {
	if loc := p.Uniform(name); loc != -1 {
		gl.Uniform1f(loc, v)
	}
}

func (p *Program) SetVec3(name string, v mgl.Vec3) {
	if loc := p.Uniform(name); loc != -1 {
		gl.Uniform3f(loc, v.X(), v.Y(), v.Z())
	}
}

func (p *Program) SetVec4(name string, v mgl.Vec4) {
	if loc := p.Uniform(name); loc != -1 {
		gl.Uniform4f(loc, v.X(), v.Y(), v.Z(), v.W())
	}
}

func (p *Program) SetMat4(name string, m mgl.Mat4) {
	if loc := p.Uniform(name); loc != -1 {
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	}
}

// SetTexture3D binds texture to the given unit and points the sampler uniform at it.
func (p *Program) SetTexture3D(name string, texture uint32, unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_3D, texture)
	p.SetInt(name, int32(unit))
}

// Convenience wrapper for gl.GetUniformLocation
func GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// SourceFunc returns the GLSL source stored under name.
type SourceFunc func(name string) (string, error)

// Library compiles programs on first use and can rebuild all of them,
// which is how edited shaders are picked up without restarting.
type Library struct {
	source   SourceFunc
	programs map[string]*programEntry
}

type programEntry struct {
	program  *Program
	vertex   string
	fragment string
	data     interface{}
}

func NewLibrary(source SourceFunc) *Library {
	return &Library{
		source:   source,
		programs: make(map[string]*programEntry),
	}
}

// Get returns the program built from the vertex and fragment sources, compiling
// it on the first call. The fragment source is executed as a text/template
// with data. Programs are keyed by vertex, fragment and data.
func (lib *Library) Get(vertex, fragment string, data interface{}) (*Program, error) {
	key := fmt.Sprintf("%s|%s|%v", vertex, fragment, data)
	if entry, found := lib.programs[key]; found {
		return entry.program, nil
	}
	entry := &programEntry{
		program:  &Program{name: vertex + "+" + fragment, uniforms: make(map[string]int32)},
		vertex:   vertex,
		fragment: fragment,
		data:     data,
	}
	if err := lib.build(entry); err != nil {
		return nil, err
	}
	lib.programs[key] = entry
	return entry.program, nil
}

// ReloadAll recompiles every program. Programs that fail to build keep their
// previous version and the errors are returned together.
func (lib *Library) ReloadAll() error {
	keys := make([]string, 0, len(lib.programs))
	for key := range lib.programs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var failed []string
	for _, key := range keys {
		if err := lib.build(lib.programs[key]); err != nil {
			failed = append(failed, err.Error())
			continue
		}
		slog.Debug("Reloaded shader program", "program", lib.programs[key].program.name)
	}
	if len(failed) > 0 {
		return fmt.Errorf("reload shaders: %s", strings.Join(failed, "; "))
	}
	return nil
}

func (lib *Library) build(entry *programEntry) error {
	vsrc, err := lib.source(entry.vertex)
	if err != nil {
		return fmt.Errorf("load %s: %w", entry.vertex, err)
	}
	fsrc, err := lib.source(entry.fragment)
	if err != nil {
		return fmt.Errorf("load %s: %w", entry.fragment, err)
	}
	vs := NewShaderSource(entry.vertex, vsrc, gl.VERTEX_SHADER)
	fs, err := NewShaderSourceFromTemplate(entry.fragment, fsrc, gl.FRAGMENT_SHADER, entry.data)
	if err != nil {
		return err
	}
	id, err := CreateProgram(vs, fs)
	if err != nil {
		return fmt.Errorf("program %s: %w", entry.program.name, err)
	}
	if entry.program.ID != 0 {
		gl.DeleteProgram(entry.program.ID)
	}
	entry.program.ID = id
	entry.program.uniforms = make(map[string]int32)
	return nil
}
