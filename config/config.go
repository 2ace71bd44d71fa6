// Package config holds the demo's settings and loads them from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"github.com/xopoww/go-volumetric/volume"
)

type Config struct {
	Window   Window   `toml:"window"`
	Volume   Volume   `toml:"volume"`
	Material Material `toml:"material"`
	Camera   Camera   `toml:"camera"`
	Scene    Scene    `toml:"scene"`
	Log      Log      `toml:"log"`
}

type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

type Volume struct {
	// Path of the sparse grid file; empty means only the procedural volume is shown.
	Path       string `toml:"path"`
	Resolution int    `toml:"resolution"`
	Radius     int    `toml:"radius"`
}

func (v Volume) Options() volume.Options {
	return volume.Options{Resolution: v.Resolution, Radius: v.Radius}
}

type Material struct {
	Color       mgl.Vec4 `toml:"color"`
	Absorption  float32  `toml:"absorption"`
	StepSize    float32  `toml:"step_size"`
	NoiseScale  float32  `toml:"noise_scale"`
	NoiseDetail int32    `toml:"noise_detail"`
	Emission    bool     `toml:"emission"`
}

type Camera struct {
	Eye    mgl.Vec3 `toml:"eye"`
	Center mgl.Vec3 `toml:"center"`
	FOV    float32  `toml:"fov"`
	Near   float32  `toml:"near"`
	Far    float32  `toml:"far"`
}

type Scene struct {
	Background mgl.Vec4 `toml:"background"`
	Ambient    mgl.Vec4 `toml:"ambient"`
	Grid       bool     `toml:"grid"`
	// ShaderDir, when set, loads GLSL sources from disk so they can be reloaded at runtime.
	ShaderDir string `toml:"shader_dir"`
}

type Log struct {
	Level string `toml:"level"`
}

// SlogLevel parses Level, falling back to info.
func (l Log) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func Default() Config {
	return Config{
		Window: Window{Width: 1280, Height: 720, Title: "Volumetric Clouds"},
		Volume: Volume{
			Resolution: volume.DefaultResolution,
			Radius:     volume.DefaultRadius,
		},
		Material: Material{
			Color:       mgl.Vec4{1, 1, 1, 1},
			Absorption:  0.01,
			StepSize:    0.1,
			NoiseScale:  0.5,
			NoiseDetail: 2,
		},
		Camera: Camera{
			Eye:    mgl.Vec3{1, 1.5, 4},
			Center: mgl.Vec3{0, 0, 0},
			FOV:    60,
			Near:   0.1,
			Far:    500,
		},
		Scene: Scene{
			Background: mgl.Vec4{0.1, 0.1, 0.1, 1},
			Ambient:    mgl.Vec4{0.75, 0.75, 0.75, 1},
			Grid:       true,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads the TOML file at path over the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports settings the demo cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Volume.Resolution <= 0 || c.Volume.Resolution > volume.MaxResolution {
		errs = append(errs, fmt.Errorf("volume.resolution %d out of range (1..%d)", c.Volume.Resolution, volume.MaxResolution))
	}
	if c.Volume.Radius < 0 {
		errs = append(errs, fmt.Errorf("volume.radius %d must not be negative", c.Volume.Radius))
	}
	if c.Material.StepSize <= 0 {
		errs = append(errs, fmt.Errorf("material.step_size %v must be positive", c.Material.StepSize))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("camera.fov %v out of range (0..180)", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera near/far planes %v/%v are invalid", c.Camera.Near, c.Camera.Far))
	}
	return errors.Join(errs...)
}
