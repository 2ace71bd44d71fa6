package glutils

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xopoww/go-volumetric/shaders"
)

func TestVolumeTemplate(t *testing.T) {
	src, err := shaders.Embedded("volume.frag")
	require.NoError(t, err)

	for _, emission := range []bool{false, true} {
		ss, err := NewShaderSourceFromTemplate("volume.frag", src, gl.FRAGMENT_SHADER,
			shaders.VolumeOptions{Emission: emission, MaxSteps: 256})
		require.NoError(t, err)

		assert.True(t, strings.HasSuffix(ss.source, "\x00"))
		assert.Contains(t, ss.source, "#define MAX_STEPS 256")
		assert.Equal(t, emission, strings.Contains(ss.source, "#define EMISSION"), "emission=%v", emission)
		assert.NotContains(t, ss.source, "{{")
	}
}

func TestStandardTemplate(t *testing.T) {
	src, err := shaders.Embedded("standard.frag")
	require.NoError(t, err)

	for _, normals := range []bool{false, true} {
		ss, err := NewShaderSourceFromTemplate("standard.frag", src, gl.FRAGMENT_SHADER,
			shaders.StandardOptions{Normals: normals})
		require.NoError(t, err)
		assert.Equal(t, normals, strings.Contains(ss.source, "#define SHOW_NORMALS"), "normals=%v", normals)
		assert.Contains(t, ss.source, "u_ambient_light.rgb")
	}
}

func TestTemplateErrors(t *testing.T) {
	_, err := NewShaderSourceFromTemplate("bad.frag", "{{if}", gl.FRAGMENT_SHADER, nil)
	assert.ErrorContains(t, err, "parse template \"bad.frag\"")

	_, err = NewShaderSourceFromTemplate("missing.frag", "{{.Nope}}", gl.FRAGMENT_SHADER, shaders.VolumeOptions{})
	assert.ErrorContains(t, err, "execute template \"missing.frag\"")
}

func TestShaderSources(t *testing.T) {
	for _, name := range []string{"basic.vert", "flat.frag", "standard.frag", "volume.frag"} {
		src, err := shaders.Embedded(name)
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(src, "#version 460 core"), name)
	}
	_, err := shaders.Embedded("missing.frag")
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flat.frag"), []byte("edited"), 0o644))
	var source SourceFunc = shaders.FromDir(dir)
	src, err := source("flat.frag")
	require.NoError(t, err)
	assert.Equal(t, "edited", src)
	_, err = source("basic.vert")
	assert.Error(t, err)
}

func TestFlipImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 3))
	red := color.RGBA{R: 255, A: 255}
	src.Set(1, 0, red)

	dst := FlipImage(src)
	assert.Equal(t, src.Bounds(), dst.Bounds())
	assert.Equal(t, red, dst.At(1, 2))
	assert.Equal(t, color.RGBA{}, dst.At(1, 0))
}
