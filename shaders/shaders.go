package shaders

//
// Embedded GLSL shader sources
//

import (
	"embed"
	"os"
	"path/filepath"
)

//go:embed *.vert *.frag
var files embed.FS

// Embedded returns the source compiled into the binary.
func Embedded(name string) (string, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FromDir returns a loader that reads sources from dir, so that edits show up
// on reload.
func FromDir(dir string) func(name string) (string, error) {
	return func(name string) (string, error) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// VolumeOptions selects the variant of volume.frag.
type VolumeOptions struct {
	// Emission switches from pure absorption to the emission-absorption model.
	Emission bool
	MaxSteps int
}

// StandardOptions selects the variant of standard.frag.
type StandardOptions struct {
	// Normals draws surface normals as colors instead of shading.
	Normals bool
}
