// Package viewer runs the model viewer: one window split into regions,
// each drawing the loaded model under its own orbit camera.
package viewer

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/assets"
	"github.com/Faultbox/lightshow/internal/config"
	"github.com/Faultbox/lightshow/internal/engine/camera"
	"github.com/Faultbox/lightshow/internal/engine/gpu"
	"github.com/Faultbox/lightshow/internal/engine/gpu/glgpu"
	"github.com/Faultbox/lightshow/internal/engine/input"
	"github.com/Faultbox/lightshow/internal/engine/layout"
	"github.com/Faultbox/lightshow/internal/engine/platform"
	"github.com/Faultbox/lightshow/internal/engine/platform/glfwplatform"
	"github.com/Faultbox/lightshow/internal/engine/platform/sdlplatform"
	"github.com/Faultbox/lightshow/internal/engine/renderer"
	"github.com/Faultbox/lightshow/internal/engine/screenshot"
	"github.com/Faultbox/lightshow/internal/engine/window"
	"github.com/Faultbox/lightshow/internal/logger"
)

// ErrUnknownBackend is returned for a backend name other than glfw or sdl.
var ErrUnknownBackend = errors.New("unknown backend")

// Region clear colors by leaf name.
var clearColors = map[string]mgl32.Vec4{
	"toolbar": {0.18, 0.18, 0.2, 1},
	"sidebar": {0.13, 0.13, 0.16, 1},
	"main":    {0.1, 0.1, 0.15, 1},
}

// DeviceFactory creates the GPU device once the window's context is current.
type DeviceFactory func() (gpu.Device, error)

// App is the running viewer.
type App struct {
	cfg *config.Config

	manager *window.Manager
	window  *window.Window
	store   *assets.Store
	cache   *gpu.Cache

	model   assets.ID
	shader  assets.ID
	cameras []*camera.Orbit

	shots   *screenshot.Capture
	capture bool

	frames int
}

// NewBackend returns the event backend named in the config.
func NewBackend(name string) (platform.Backend, error) {
	switch name {
	case "glfw", "":
		return glfwplatform.New(), nil
	case "sdl":
		return sdlplatform.New(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// New opens the viewer on the configured backend with an OpenGL device.
func New(cfg *config.Config) (*App, error) {
	backend, err := NewBackend(cfg.Window.Backend)
	if err != nil {
		return nil, err
	}
	return NewWithBackend(cfg, backend, func() (gpu.Device, error) { return glgpu.New() })
}

// NewWithBackend opens the viewer on backend, creating the device with
// newDevice after the window exists.
func NewWithBackend(cfg *config.Config, backend platform.Backend, newDevice DeviceFactory) (*App, error) {
	logger.Info("initializing viewer",
		zap.String("backend", backend.Name()),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height))

	a := &App{
		cfg:     cfg,
		manager: window.NewManager(backend),
		store:   assets.NewStore(),
		shots:   screenshot.New(cfg.Assets.ScreenshotDir, "lightshow"),
	}

	var err error
	a.window, err = a.manager.NewWindow(platform.WindowConfig{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		VSync:  cfg.Window.VSync,
	}, Layout(cfg.Layout))
	if err != nil {
		backend.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	a.window.MakeCurrent()

	device, err := newDevice()
	if err != nil {
		a.manager.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	a.cache = gpu.NewCache(device)
	a.window.AttachCache(a.cache)

	a.loadAssets()
	a.setupRegions()

	a.window.AddListener(window.ListenerFuncs{
		Key: func(w *window.Window, key input.Key, action input.Action, _ input.Mod) {
			if action != input.Press {
				return
			}
			switch key {
			case input.KeyEscape:
				w.Close()
			case input.KeyF12:
				a.capture = true
			}
		},
	})

	logger.Info("viewer initialized", zap.Int("regions", a.window.Tree().Len()))
	return a, nil
}

// Layout builds the toolbar over sidebar-and-main split. A zero toolbar
// height or sidebar width leaves that region out.
func Layout(cfg config.LayoutConfig) *layout.Node {
	root := layout.Leaf("main")
	if cfg.SidebarWidth > 0 {
		root = layout.Split(layout.Horizontal, layout.FixedFirst, cfg.SidebarWidth, layout.Leaf("sidebar"), root)
	}
	if cfg.ToolbarHeight > 0 {
		root = layout.Split(layout.Vertical, layout.FixedFirst, cfg.ToolbarHeight, layout.Leaf("toolbar"), root)
	}
	return root
}

// loadAssets loads and uploads the mesh and shader. Failures are logged
// and leave the viewer running with nothing to draw.
func (a *App) loadAssets() {
	dir := a.cfg.Assets.MeshDir
	id, err := a.store.LoadMesh(dir, a.cfg.Assets.MeshFile)
	if err != nil {
		logger.Error("mesh not loaded", zap.String("path", filepath.Join(dir, a.cfg.Assets.MeshFile)), zap.Error(err))
	} else {
		a.model = id
		m, _ := a.store.Model(id)
		a.cache.UploadModel(m)
	}

	id, err = a.store.LoadShader(a.cfg.Assets.VertexShader, a.cfg.Assets.FragmentShader)
	if err != nil {
		logger.Error("shader not loaded", zap.Error(err))
		return
	}
	a.shader = id
	s, _ := a.store.Shader(id)
	// Compile failures are logged by the cache; the viewports stay idle.
	_, _ = a.cache.UploadShader(s)
}

func (a *App) setupRegions() {
	tree := a.window.Tree()
	a.cameras = make([]*camera.Orbit, tree.Len())

	var bounds *assets.Bounds
	if m, err := a.store.Model(a.model); err == nil {
		bounds = &m.Bounds
	}

	for region := range a.cameras {
		vp := a.window.Viewport(region)
		if c, ok := clearColors[tree.Name(region)]; ok {
			vp.ClearColor = c
		}
		if a.shader.Valid() {
			if err := vp.UseShader(a.shader); err != nil {
				logger.Warn("viewport has no shader", zap.Int("region", region), zap.Error(err))
			}
		}

		cam := camera.NewOrbit(a.cfg.Camera.FOVDegrees, vp.Aspect(), a.cfg.Camera.Near, a.cfg.Camera.Far)
		if bounds != nil {
			cam.Frame(bounds.Min, bounds.Max)
		}
		a.cameras[region] = cam
	}
}

// Window returns the viewer window.
func (a *App) Window() *window.Window { return a.window }

// Camera returns a region's camera.
func (a *App) Camera(region int) *camera.Orbit { return a.cameras[region] }

// Model returns the loaded model ID, invalid if the mesh failed to load.
func (a *App) Model() assets.ID { return a.model }

// Cache returns the GPU cache.
func (a *App) Cache() *gpu.Cache { return a.cache }

// Running reports whether the window is still open.
func (a *App) Running() bool { return !a.window.ShouldClose() }

// Frame runs one poll-update-draw-present cycle. A pending F12 capture is
// taken after drawing.
func (a *App) Frame() error {
	a.manager.Poll()

	for region, cam := range a.cameras {
		control(cam, a.window.Input(region))
	}

	if a.window.Global().Iconified() {
		return nil
	}

	for region, cam := range a.cameras {
		if err := a.draw(a.window.Viewport(region), cam); err != nil {
			return fmt.Errorf("region %q: %w", a.window.Tree().Name(region), err)
		}
	}

	if a.capture {
		a.capture = false
		a.saveScreenshot()
	}

	a.window.SwapBuffers()
	a.frames++
	return nil
}

// saveScreenshot reads back the whole framebuffer before it is presented.
// Failures are logged.
func (a *App) saveScreenshot() {
	width, height := a.window.Size()
	pixels := a.cache.Device().ReadPixels(0, 0, width, height)
	name, err := a.shots.SavePixels(pixels, width, height)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", name))
}

// control drives a camera from its region's input: right drag rotates,
// middle drag pans, scrolling zooms.
func control(cam *camera.Orbit, in *input.State) {
	dx, dy := in.CursorDelta()
	if in.ButtonDown(input.MouseButtonRight) {
		cam.Rotate(dx, dy)
	}
	if in.ButtonDown(input.MouseButtonMiddle) {
		cam.Translate(dx, dy)
	}
	if _, sy := in.Scroll(); sy != 0 {
		cam.AddZoom(float32(sy))
	}
}

func (a *App) draw(vp *renderer.Viewport, cam *camera.Orbit) error {
	vp.Clear()
	if !a.model.Valid() {
		return nil
	}

	cam.SetAspect(vp.Aspect())
	vp.SetView(cam.View())
	vp.SetPerspective(cam.Projection())
	vp.SetCameraPosition(cam.Position())
	return vp.RenderModel(a.model, mgl32.Ident4())
}

// Run loops until the window closes.
func (a *App) Run() error {
	logger.Info("starting render loop")

	start := time.Now()
	for a.Running() {
		if err := a.Frame(); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	logger.Info("render loop stopped",
		zap.Int("frames", a.frames),
		zap.Duration("elapsed", elapsed))
	return nil
}

// Close releases GPU resources and closes the window.
func (a *App) Close() {
	logger.Info("closing viewer")
	if a.cache != nil {
		a.cache.Close()
	}
	a.store.Close()
	a.manager.Close()
}
