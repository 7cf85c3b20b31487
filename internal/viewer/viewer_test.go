package viewer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/lightshow/internal/config"
	"github.com/Faultbox/lightshow/internal/engine/gpu"
	"github.com/Faultbox/lightshow/internal/engine/gpu/gputest"
	"github.com/Faultbox/lightshow/internal/engine/input"
	"github.com/Faultbox/lightshow/internal/engine/layout"
	"github.com/Faultbox/lightshow/internal/engine/platform/platformtest"
	"github.com/Faultbox/lightshow/internal/engine/renderer"
	"github.com/Faultbox/lightshow/internal/logger"
)

const cubeOBJ = `mtllib cube.mtl
v -1 -1 -1
v 1 -1 -1
v 1 1 -1
v -1 1 -1
vn 0 0 -1
usemtl red
f 1//1 2//1 3//1 4//1
`

const cubeMTL = `newmtl red
Kd 1 0 0
`

const (
	shaderVert = "void main() {\n}\n"
	shaderFrag = "void main() {\n}\n"
)

func testConfig(t *testing.T, frag string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"cube.obj":  cubeOBJ,
		"cube.mtl":  cubeMTL,
		"test.vert": shaderVert,
		"test.frag": frag,
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0644))
	}

	cfg := config.Default()
	cfg.Assets.MeshDir = dir
	cfg.Assets.MeshFile = "cube.obj"
	cfg.Assets.VertexShader = filepath.Join(dir, "test.vert")
	cfg.Assets.FragmentShader = filepath.Join(dir, "test.frag")
	cfg.Assets.ScreenshotDir = filepath.Join(dir, "shots")
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *platformtest.Backend, *gputest.Device) {
	t.Helper()
	backend := platformtest.New()
	dev := gputest.New()
	app, err := NewWithBackend(cfg, backend, func() (gpu.Device, error) { return dev, nil })
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app, backend, dev
}

func TestLayout(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LayoutConfig
		regions []string
	}{
		{"full", config.LayoutConfig{ToolbarHeight: 40, SidebarWidth: 200}, []string{"toolbar", "sidebar", "main"}},
		{"no toolbar", config.LayoutConfig{SidebarWidth: 200}, []string{"sidebar", "main"}},
		{"no sidebar", config.LayoutConfig{ToolbarHeight: 40}, []string{"toolbar", "main"}},
		{"main only", config.LayoutConfig{}, []string{"main"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := layout.NewTree(Layout(tt.cfg))
			require.NoError(t, err)
			var names []string
			for i := 0; i < tree.Len(); i++ {
				names = append(names, tree.Name(i))
			}
			assert.Equal(t, tt.regions, names)
		})
	}
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend("glfw")
	require.NoError(t, err)
	assert.Equal(t, "glfw", b.Name())

	b, err = NewBackend("sdl")
	require.NoError(t, err)
	assert.Equal(t, "sdl", b.Name())

	_, err = NewBackend("vulkan")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestApp_Frame(t *testing.T) {
	app, backend, dev := newTestApp(t, testConfig(t, shaderFrag))
	w := app.Window()

	require.True(t, app.Model().Valid())
	for region := 0; region < w.Tree().Len(); region++ {
		assert.Equal(t, renderer.ShaderBound, w.Viewport(region).State())
	}

	require.NoError(t, app.Frame())

	// One clear and one quad draw per region.
	assert.Len(t, dev.Clears, 3)
	assert.Len(t, dev.Draws, 3)
	for region := 0; region < w.Tree().Len(); region++ {
		assert.Equal(t, renderer.Ready, w.Viewport(region).State())
	}
	assert.Equal(t, 1, backend.Windows[w.Handle()].Swaps)
	assert.True(t, app.Running())
}

func TestApp_CameraControl(t *testing.T) {
	app, backend, _ := newTestApp(t, testConfig(t, shaderFrag))
	h := app.Window().Handle()
	const mainRegion = 2

	// Activate the main region, then right-drag and scroll in it.
	backend.Click(h, 500, 300)
	backend.Button(h, input.MouseButtonLeft, input.Release)
	require.NoError(t, app.Frame())
	require.Equal(t, mainRegion, app.Window().Active())

	cam := app.Camera(mainRegion)
	yaw, zoom := cam.Yaw, cam.Zoom()
	backend.Button(h, input.MouseButtonRight, input.Press)
	// The region's first cursor event only establishes the position.
	backend.Move(h, 505, 300)
	backend.Move(h, 515, 300)
	backend.ScrollBy(h, 0, 1)
	require.NoError(t, app.Frame())

	assert.InDelta(t, yaw-0.3, cam.Yaw, 1e-5)
	assert.InDelta(t, zoom-1, cam.Zoom(), 1e-5)
	assert.Equal(t, yaw, app.Camera(0).Yaw, "other regions keep their camera")
}

func TestApp_EscapeCloses(t *testing.T) {
	app, backend, _ := newTestApp(t, testConfig(t, shaderFrag))

	backend.Key(app.Window().Handle(), input.KeyEscape, input.Press)
	require.NoError(t, app.Run())
	assert.False(t, app.Running())
}

func TestApp_Screenshot(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	defer logger.Replace(zap.New(core))()
	cfg := testConfig(t, shaderFrag)
	app, backend, dev := newTestApp(t, cfg)

	backend.Key(app.Window().Handle(), input.KeyF12, input.Press)
	require.NoError(t, app.Frame())

	require.Len(t, dev.Reads, 1)
	assert.Equal(t, gputest.Rect{X: 0, Y: 0, W: cfg.Window.Width, H: cfg.Window.Height}, dev.Reads[0])
	entries := logs.FilterMessage("screenshot saved").All()
	require.Len(t, entries, 1)
	path, _ := entries[0].ContextMap()["path"].(string)
	assert.FileExists(t, path)
	assert.Equal(t, cfg.Assets.ScreenshotDir, filepath.Dir(path))

	require.NoError(t, app.Frame())
	assert.Len(t, dev.Reads, 1, "one capture per key press")
}

func TestApp_BrokenShaderKeepsRunning(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	defer logger.Replace(zap.New(core))()
	app, _, dev := newTestApp(t, testConfig(t, "void main() {\n"))

	require.NoError(t, app.Frame())
	require.NoError(t, app.Frame())

	assert.Empty(t, dev.Draws)
	assert.Len(t, dev.Clears, 6)
	assert.Equal(t, 1, logs.FilterMessage("shader compile failed").Len())
}

func TestApp_MissingMesh(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	defer logger.Replace(zap.New(core))()
	cfg := testConfig(t, shaderFrag)
	cfg.Assets.MeshFile = "missing.obj"

	app, _, dev := newTestApp(t, cfg)
	require.NoError(t, app.Frame())

	assert.False(t, app.Model().Valid())
	assert.Empty(t, dev.Draws)
	assert.Equal(t, 1, logs.FilterMessage("mesh not loaded").Len())
}

func TestApp_Iconified(t *testing.T) {
	app, backend, dev := newTestApp(t, testConfig(t, shaderFrag))

	backend.Iconify(app.Window().Handle(), true)
	require.NoError(t, app.Frame())
	assert.Empty(t, dev.Clears)
	assert.Zero(t, backend.Windows[app.Window().Handle()].Swaps)
}

func TestNewWithBackend_DeviceError(t *testing.T) {
	backend := platformtest.New()
	_, err := NewWithBackend(config.Default(), backend, func() (gpu.Device, error) {
		return nil, errors.New("no GL")
	})
	assert.ErrorContains(t, err, "no GL")
	assert.True(t, backend.Terminated)
}
