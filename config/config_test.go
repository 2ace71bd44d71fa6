package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xopoww/go-volumetric/volume"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, volume.DefaultOptions(), cfg.Volume.Options())
	assert.Equal(t, float32(0.01), cfg.Material.Absorption)
	assert.Equal(t, int32(2), cfg.Material.NoiseDetail)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[volume]
path = "res/bunny_cloud.svol"
resolution = 64

[material]
color = [0.8, 0.9, 1.0, 1.0]
emission = true

[camera]
eye = [0.0, 2.0, 6.0]

[log]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "res/bunny_cloud.svol", cfg.Volume.Path)
	assert.Equal(t, 64, cfg.Volume.Resolution)
	assert.Equal(t, volume.DefaultRadius, cfg.Volume.Radius)
	assert.Equal(t, mgl.Vec4{0.8, 0.9, 1, 1}, cfg.Material.Color)
	assert.True(t, cfg.Material.Emission)
	assert.Equal(t, float32(0.1), cfg.Material.StepSize)
	assert.Equal(t, mgl.Vec3{0, 2, 6}, cfg.Camera.Eye)
	assert.Equal(t, float32(60), cfg.Camera.FOV)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "[volume]\nresoluton = 3\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[volume\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[volume]\nresolution = 0\nradius = -1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volume.resolution")
	assert.Contains(t, err.Error(), "volume.radius")
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, Log{Level: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelError, Log{Level: "ERROR"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Log{Level: "chatty"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Log{}.SlogLevel())
}
