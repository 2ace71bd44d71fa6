package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	mgl "github.com/go-gl/mathgl/mgl32"

	"github.com/xopoww/go-volumetric/app"
	"github.com/xopoww/go-volumetric/config"
	"github.com/xopoww/go-volumetric/glutils"
	"github.com/xopoww/go-volumetric/scenery"
	"github.com/xopoww/go-volumetric/shaders"
	"github.com/xopoww/go-volumetric/vdb"
	"github.com/xopoww/go-volumetric/volume"
)

func init() {
	// This is needed to arrange that main() runs on main thread.
	// See documentation for functions that are only allowed to be called from the main thread.
	runtime.LockOSThread()
}

var (
	configPath = flag.String("config", "", "path to a TOML config file")
	vdbPath    = flag.String("vdb", "", "sparse grid file to load (overrides volume.path)")
	resolution = flag.Int("resolution", 0, "lattice cells per axis (overrides volume.resolution)")
	radius     = flag.Int("radius", -1, "splat radius in cells (overrides volume.radius)")
	shaderDir  = flag.String("shaders", "", "load GLSL from this directory instead of the embedded copies")
)

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	}
	if *vdbPath != "" {
		cfg.Volume.Path = *vdbPath
	}
	if *resolution != 0 {
		cfg.Volume.Resolution = *resolution
	}
	if *radius >= 0 {
		cfg.Volume.Radius = *radius
	}
	if *shaderDir != "" {
		cfg.Scene.ShaderDir = *shaderDir
	}
	return cfg, cfg.Validate()
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fatal("Invalid configuration", "err", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	// Initialize GLFW and GL, create window
	if err := glfw.Init(); err != nil {
		fatal("Failed to initialize GLFW", "err", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		fatal("Failed to create window", "err", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	// Initialize Glow
	if err := gl.Init(); err != nil {
		fatal("Failed to initialize OpenGL", "err", err)
	}
	slog.Info("OpenGL ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.Enable(gl.CULL_FACE)
	gl.Enable(gl.DEPTH_TEST)

	source := glutils.SourceFunc(shaders.Embedded)
	if cfg.Scene.ShaderDir != "" {
		source = shaders.FromDir(cfg.Scene.ShaderDir)
	}
	library := glutils.NewLibrary(source)

	width, height := window.GetFramebufferSize()
	camera := scenery.NewCamera(width, height)
	camera.LookAt(cfg.Camera.Eye, cfg.Camera.Center, mgl.Vec3{0, 1, 0})
	camera.SetPerspective(cfg.Camera.FOV, camera.Aspect, cfg.Camera.Near, cfg.Camera.Far)

	scene, err := buildScene(cfg, library, camera)
	if err != nil {
		fatal("Failed to build scene", "err", err)
	}

	eventHandler := app.NewEventHandler()
	eventHandler.Attach(window)
	camera.AttachToEventHandler(eventHandler)
	eventHandler.OnResize(func(w, h int) {
		gl.Viewport(0, 0, int32(w), int32(h))
		width, height = w, h
	})

	screenshotRequested := false
	bindKeys(eventHandler, window, scene, library, &screenshotRequested)

	logMenu(scene)

	// Main loop
	for !window.ShouldClose() {
		eventHandler.Update()

		bg := scene.Background
		gl.ClearColor(bg.X(), bg.Y(), bg.Z(), bg.W())
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		scene.Render()

		// Check for errors
		if err := glutils.CheckError(); err != nil {
			fatal("Fatal error occurred", "err", err)
		}

		if screenshotRequested {
			screenshotRequested = false
			takeScreenshot(width, height)
		}

		window.SwapBuffers()
		glfw.PollEvents()
	}
}

// buildScene creates a procedural cloud at the origin, one node per grid of the
// configured sparse grid file and a floor.
func buildScene(cfg config.Config, library *glutils.Library, camera *scenery.Camera) (*scenery.Scene, error) {
	scene := scenery.NewScene(camera)
	scene.Background = cfg.Scene.Background
	scene.Ambient = cfg.Scene.Ambient
	scene.ShowGrid = cfg.Scene.Grid

	cube := scenery.NewMesh(scenery.CubePoints(), gl.TRIANGLES)

	gridMaterial, err := scenery.NewFlatMaterial(library, mgl.Vec4{0.5, 0.5, 0.5, 1})
	if err != nil {
		return nil, err
	}
	wireframe, err := scenery.NewWireframeMaterial(library)
	if err != nil {
		return nil, err
	}
	grid := scenery.NewNode("grid", scenery.NewMesh(scenery.GridPoints(10, 1), gl.LINES), gridMaterial)
	grid.Model = mgl.Translate3D(0, -1, 0)
	scene.SetOverlays(grid, wireframe)

	newMaterial := func() (*scenery.VolumeMaterial, error) {
		m, err := scenery.NewVolumeMaterial(library)
		if err != nil {
			return nil, err
		}
		m.Color = cfg.Material.Color
		m.Absorption = cfg.Material.Absorption
		m.StepSize = cfg.Material.StepSize
		m.NoiseScale = cfg.Material.NoiseScale
		m.NoiseDetail = cfg.Material.NoiseDetail
		m.Emission = cfg.Material.Emission
		return m, nil
	}

	procedural, err := newMaterial()
	if err != nil {
		return nil, err
	}
	scene.AddNode(scenery.NewNode("procedural", cube, procedural))

	if cfg.Volume.Path != "" {
		if err := addGrids(scene, cfg, cube, newMaterial); err != nil {
			return nil, err
		}
	}

	floorMaterial, err := scenery.NewStandardMaterial(library, mgl.Vec4{0.35, 0.35, 0.38, 1})
	if err != nil {
		return nil, err
	}
	floor := scenery.NewNode("floor", scenery.NewMesh(scenery.PlanePoints(10), gl.TRIANGLES), floorMaterial)
	floor.Model = mgl.Translate3D(0, -1.002, 0)
	scene.AddNode(floor)
	return scene, nil
}

// addGrids adds one textured volume node per grid of the configured file.
func addGrids(scene *scenery.Scene, cfg config.Config, cube *scenery.Mesh, newMaterial func() (*scenery.VolumeMaterial, error)) error {
	grids, err := vdb.Load(cfg.Volume.Path)
	if err != nil {
		return fmt.Errorf("load volume: %w", err)
	}
	slog.Info("Loaded sparse grids", "path", cfg.Volume.Path, "grids", len(grids))

	offset := float32(2.5)
	for _, g := range grids {
		texture, size, err := bakeGrid(g, cfg.Volume.Options())
		if err != nil {
			if errors.Is(err, volume.ErrInvalidGrid) {
				slog.Warn("Skipping grid", "grid", g.Name(), "err", err)
				continue
			}
			return err
		}
		m, err := newMaterial()
		if err != nil {
			return err
		}
		m.AttachTexture(texture)

		node := scenery.NewNode(g.Name(), cube, m)
		node.Model = scenery.FitModel(size, 1, mgl.Vec3{offset, 0, 0})
		scene.AddNode(node)
		offset += 2.5
	}
	return nil
}

// bakeGrid densifies g and uploads the result, returning the texture and the
// world-space size of the grid.
func bakeGrid(g *vdb.Grid, opts volume.Options) (uint32, mgl.Vec3, error) {
	start := time.Now()
	dense, err := volume.Densify(g, opts)
	if err != nil {
		return 0, mgl.Vec3{}, fmt.Errorf("densify %q: %w", g.Name(), err)
	}
	slog.Info("Densified grid",
		"grid", g.Name(),
		"active_voxels", g.ActiveVoxelCount(),
		"resolution", opts.Resolution,
		"radius", opts.Radius,
		"elapsed", time.Since(start),
		"stats", volume.Summarize(dense),
	)

	texture, err := glutils.MakeVolumeTexture(dense)
	if err != nil {
		return 0, mgl.Vec3{}, fmt.Errorf("upload %q: %w", g.Name(), err)
	}
	lo, hi := g.BoundingBox()
	return texture, hi.Sub(lo), nil
}

func bindKeys(eh *app.EventHandler, window *glfw.Window, scene *scenery.Scene, library *glutils.Library, screenshot *bool) {
	selected := 0
	volumeAt := func(i int) *scenery.VolumeMaterial {
		m, _ := scene.Nodes[i].Material.(*scenery.VolumeMaterial)
		return m
	}

	eh.AddAction(glfw.KeyEscape, func() { window.SetShouldClose(true) })
	eh.AddAction(glfw.KeyR, func() {
		if err := library.ReloadAll(); err != nil {
			slog.Error("Shader reload failed", "err", err)
			return
		}
		slog.Info("Shaders reloaded")
	})
	eh.AddOption(glfw.KeyF3, screenshot, app.Switch)
	eh.AddOption(glfw.KeyG, &scene.ShowGrid, app.Switch)
	eh.AddOption(glfw.KeyF, &scene.ShowWireframe, app.Switch)
	eh.AddAction(glfw.KeyM, func() { logMenu(scene) })

	for i := 0; i < len(scene.Nodes) && i < 9; i++ {
		i := i
		eh.AddAction(glfw.Key1+glfw.Key(i), func() {
			selected = i
			slog.Info("Selected node", "node", scene.Nodes[i].Name)
		})
	}
	eh.AddAction(glfw.KeyT, func() {
		if m := volumeAt(selected); m != nil {
			m.NextType()
			slog.Info("Volume type", "node", scene.Nodes[selected].Name, "type", m.Type)
		}
	})
	eh.AddAction(glfw.KeyH, func() {
		if m, ok := scene.Nodes[selected].Material.(*scenery.StandardMaterial); ok {
			m.ToggleNormals()
			slog.Info("Shading", "node", scene.Nodes[selected].Name, "material", m)
		}
	})
	eh.AddAction(glfw.KeyE, func() {
		if m := volumeAt(selected); m != nil {
			m.Emission = !m.Emission
			slog.Info("Shading", "node", scene.Nodes[selected].Name, "material", m)
		}
	})

	// Held keys tune every volume material at once.
	for i := range scene.Nodes {
		m := volumeAt(i)
		if m == nil {
			continue
		}
		eh.AddStep(glfw.KeyUp, glfw.KeyDown, &m.Absorption, 0.01, 0, 2)
		eh.AddStep(glfw.KeyPageUp, glfw.KeyPageDown, &m.StepSize, 0.005, 0.001, 1)
		eh.AddStep(glfw.KeyRight, glfw.KeyLeft, &m.NoiseScale, 0.02, 0, 3)
	}
	eh.AddAction(glfw.KeyN, func() {
		if m := volumeAt(selected); m != nil {
			m.NoiseDetail = (m.NoiseDetail + 1) % 6
			slog.Info("Noise detail", "node", scene.Nodes[selected].Name, "detail", m.NoiseDetail)
		}
	})
}

// logMenu dumps the tunable state of the scene.
func logMenu(scene *scenery.Scene) {
	cam := scene.Camera
	slog.Info("Scene",
		"background", scene.Background,
		"grid", scene.ShowGrid,
		"wireframe", scene.ShowWireframe,
		slog.Group("camera", "eye", cam.Eye, "center", cam.Center, "fov", cam.FOV),
	)
	for i, n := range scene.Nodes {
		slog.Info("Node", "key", i+1, "name", n.Name, "material", n.Material)
	}
}

func takeScreenshot(width, height int) {
	img, err := glutils.ReadFramebuffer(width, height)
	if err != nil {
		slog.Error("Failed to take a screenshot", "err", err)
		return
	}
	go func() {
		flippedImg := glutils.FlipImage(img)

		filename := fmt.Sprintf(
			"screenshot_%s.png",
			time.Now().Format("02-01-2006_15:04:05"),
		)

		file, err := os.Create(filename)
		if err != nil {
			slog.Error("Failed to save a screenshot", "err", err)
			return
		}
		defer file.Close()

		if err := png.Encode(file, flippedImg); err != nil {
			slog.Error("Failed to save a screenshot", "err", err)
			return
		}

		slog.Info("Saved a screenshot", "file", filename)
	}()
}
