package window

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/lightshow/internal/engine/gpu"
	"github.com/Faultbox/lightshow/internal/engine/gpu/gputest"
	"github.com/Faultbox/lightshow/internal/engine/input"
	"github.com/Faultbox/lightshow/internal/engine/layout"
	"github.com/Faultbox/lightshow/internal/engine/platform"
	"github.com/Faultbox/lightshow/internal/engine/platform/platformtest"
	"github.com/Faultbox/lightshow/internal/logger"
)

const (
	regionToolbar = iota
	regionSidebar
	regionMain
)

func editorLayout() *layout.Node {
	return layout.Split(layout.Vertical, layout.FixedFirst, 40,
		layout.Leaf("toolbar"),
		layout.Split(layout.Horizontal, layout.FixedFirst, 200,
			layout.Leaf("sidebar"),
			layout.Leaf("main")))
}

func newEditor(t *testing.T) (*platformtest.Backend, *Manager, *Window) {
	t.Helper()
	b := platformtest.New()
	m := NewManager(b)
	w, err := m.NewWindow(platform.WindowConfig{Title: "editor", Width: 800, Height: 600}, editorLayout())
	require.NoError(t, err)
	return b, m, w
}

func TestNewWindow_InitialRegions(t *testing.T) {
	_, _, w := newEditor(t)

	assert.Equal(t, regionToolbar, w.Active())
	width, height := w.Size()
	assert.Equal(t, 800, width)
	assert.Equal(t, 600, height)

	sw, sh := w.Input(regionSidebar).Size()
	assert.Equal(t, 200, sw)
	assert.Equal(t, 560, sh)
	assert.Nil(t, w.Viewport(regionMain), "no viewports before a cache is attached")
	assert.Nil(t, w.Input(3))
	assert.Nil(t, w.Input(-1))
}

func TestNewWindow_Errors(t *testing.T) {
	b := platformtest.New()
	m := NewManager(b)

	_, err := m.NewWindow(platform.WindowConfig{Title: "bad"}, layout.Split(layout.Vertical, layout.FixedFirst, 10, nil, layout.Leaf("a")))
	assert.ErrorIs(t, err, layout.ErrNilNode)
	assert.Empty(t, b.Windows, "layout is validated before the window opens")

	b.CreateErr = errors.New("no display")
	_, err = m.NewWindow(platform.WindowConfig{Title: "headless"}, layout.Leaf("only"))
	assert.ErrorContains(t, err, "no display")
	assert.Empty(t, m.Windows())
}

func TestPoll_RoutesToGlobalAndActive(t *testing.T) {
	b, m, w := newEditor(t)

	b.Key(w.Handle(), input.KeyW, input.Press)
	b.ScrollBy(w.Handle(), 0, 2)
	m.Poll()

	assert.True(t, w.Global().KeyPressed(input.KeyW))
	assert.True(t, w.Input(regionToolbar).KeyPressed(input.KeyW))
	assert.False(t, w.Input(regionSidebar).KeyDown(input.KeyW))
	assert.False(t, w.Input(regionMain).KeyDown(input.KeyW))

	_, dy := w.Input(regionToolbar).Scroll()
	assert.Equal(t, 2.0, dy)
	_, dy = w.Input(regionMain).Scroll()
	assert.Zero(t, dy)

	// Next cycle: edges clear, level persists.
	m.Poll()
	assert.False(t, w.Global().KeyPressed(input.KeyW))
	assert.True(t, w.Global().KeyDown(input.KeyW))
	assert.True(t, w.Input(regionToolbar).KeyDown(input.KeyW))
	_, dy = w.Input(regionToolbar).Scroll()
	assert.Zero(t, dy)
}

func TestPoll_ClickChangesActiveRegion(t *testing.T) {
	b, m, w := newEditor(t)
	h := w.Handle()

	b.Click(h, 500, 300)
	m.Poll()

	assert.Equal(t, regionMain, w.Active())
	// The click that switched regions is recorded against the previous one.
	assert.True(t, w.Input(regionToolbar).ButtonPressed(input.MouseButtonLeft))
	assert.False(t, w.Input(regionMain).ButtonPressed(input.MouseButtonLeft))
	assert.True(t, w.Input(regionToolbar).ButtonDown(input.MouseButtonLeft), "switching regions synthesizes no release")
	assert.False(t, w.Input(regionToolbar).ButtonReleased(input.MouseButtonLeft))

	b.Button(h, input.MouseButtonLeft, input.Release)
	b.Button(h, input.MouseButtonRight, input.Press)
	b.Move(h, 510, 305)
	b.Move(h, 520, 310)
	m.Poll()

	assert.Equal(t, regionMain, w.Active())
	assert.True(t, w.Input(regionMain).ButtonPressed(input.MouseButtonRight))
	assert.True(t, w.Input(regionMain).ButtonReleased(input.MouseButtonLeft))
	dx, dy := w.Input(regionMain).CursorDelta()
	// The region's first cursor event carries no delta.
	assert.Equal(t, 10.0, dx)
	assert.Equal(t, 5.0, dy)

	b.Click(h, 100, 300)
	m.Poll()
	assert.Equal(t, regionSidebar, w.Active())
	assert.True(t, w.Input(regionMain).ButtonDown(input.MouseButtonRight))
	assert.False(t, w.Input(regionMain).ButtonReleased(input.MouseButtonRight))

	// Clicking inside the active region keeps it.
	b.Button(h, input.MouseButtonLeft, input.Release)
	b.Click(h, 150, 500)
	m.Poll()
	assert.Equal(t, regionSidebar, w.Active())
	assert.True(t, w.Input(regionSidebar).ButtonPressed(input.MouseButtonLeft))
}

func TestPoll_HeldKeyAcrossRegionSwitch(t *testing.T) {
	b, m, w := newEditor(t)
	h := w.Handle()

	b.Key(h, input.KeyW, input.Press)
	m.Poll()
	require.True(t, w.Input(regionToolbar).KeyDown(input.KeyW))

	b.Click(h, 500, 300)
	m.Poll()
	require.Equal(t, regionMain, w.Active())

	toolbar := w.Input(regionToolbar)
	assert.True(t, toolbar.KeyDown(input.KeyW), "down persists in the region left behind")
	assert.False(t, toolbar.KeyReleased(input.KeyW))
	assert.False(t, w.Input(regionMain).KeyDown(input.KeyW))

	// The physical release is seen by the global state and the active
	// region only.
	b.Key(h, input.KeyW, input.Release)
	m.Poll()
	assert.True(t, w.Global().KeyReleased(input.KeyW))
	assert.True(t, w.Input(regionMain).KeyReleased(input.KeyW))
	assert.False(t, toolbar.KeyReleased(input.KeyW))
	assert.False(t, w.Input(regionSidebar).KeyReleased(input.KeyW))
}

func TestPoll_Resize(t *testing.T) {
	b, m, w := newEditor(t)
	dev := gputest.New()
	w.AttachCache(gpu.NewCache(dev))

	b.Resize(w.Handle(), 1024, 768)
	m.Poll()

	assert.True(t, w.Global().Resized())
	width, height := w.Size()
	assert.Equal(t, 1024, width)
	assert.Equal(t, 768, height)

	assert.Equal(t, layout.Rect{X: 0, Y: 0, W: 1024, H: 40}, w.Viewport(regionToolbar).Region())
	assert.Equal(t, layout.Rect{X: 0, Y: 40, W: 200, H: 728}, w.Viewport(regionSidebar).Region())
	assert.Equal(t, layout.Rect{X: 200, Y: 40, W: 824, H: 728}, w.Viewport(regionMain).Region())

	for region, want := range [][2]int{{1024, 40}, {200, 728}, {824, 728}} {
		s := w.Input(region)
		assert.True(t, s.Resized(), "region %d", region)
		sw, sh := s.Size()
		assert.Equal(t, want, [2]int{sw, sh}, "region %d", region)
	}

	w.Viewport(regionToolbar).Clear()
	assert.Equal(t, gputest.Rect{X: 0, Y: 728, W: 1024, H: 40}, dev.Clears[0])

	m.Poll()
	assert.False(t, w.Input(regionMain).Resized())
}

func TestPoll_Iconify(t *testing.T) {
	b, m, w := newEditor(t)
	b.Iconify(w.Handle(), true)
	m.Poll()
	assert.True(t, w.Global().Iconified())
	assert.True(t, w.Input(regionToolbar).Iconified())
}

func TestPoll_UnknownHandle(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	defer logger.Replace(zap.New(core))()
	b, m, w := newEditor(t)

	b.Key(99, input.KeyA, input.Press)
	m.Poll()

	assert.False(t, w.Global().KeyDown(input.KeyA))
	entries := logs.FilterMessage("event for unknown window dropped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "key", entries[0].ContextMap()["event"])
}

func TestManager_MultipleWindows(t *testing.T) {
	b, m, first := newEditor(t)
	second, err := m.NewWindow(platform.WindowConfig{Title: "preview", Width: 320, Height: 240}, layout.Leaf("preview"))
	require.NoError(t, err)

	b.Key(second.Handle(), input.KeySpace, input.Press)
	m.Poll()

	assert.True(t, second.Global().KeyPressed(input.KeySpace))
	assert.False(t, first.Global().KeyPressed(input.KeySpace))
	assert.Equal(t, []*Window{first, second}, m.Windows())

	got, err := m.Window(second.Handle())
	require.NoError(t, err)
	assert.Same(t, second, got)

	second.MakeCurrent()
	assert.Equal(t, second.Handle(), b.Current)
	second.SwapBuffers()
	assert.Equal(t, 1, b.Windows[second.Handle()].Swaps)

	m.Destroy(second)
	assert.True(t, b.Windows[second.Handle()].Destroyed)
	assert.Equal(t, []*Window{first}, m.Windows())
	_, err = m.Window(second.Handle())
	assert.ErrorIs(t, err, platform.ErrUnknownWindow)
	m.Destroy(second)

	m.Close()
	assert.True(t, b.Terminated)
	assert.Empty(t, m.Windows())
}

func TestWindow_Close(t *testing.T) {
	b, m, w := newEditor(t)
	assert.False(t, w.ShouldClose())

	b.RequestClose(w.Handle())
	m.Poll()
	assert.True(t, w.ShouldClose())

	b.Windows[w.Handle()].ShouldClose = false
	w.Close()
	assert.True(t, w.ShouldClose())
}

func TestListeners_Order(t *testing.T) {
	b, m, w := newEditor(t)
	var calls []string

	w.AddListener(ListenerFuncs{
		Key: func(_ *Window, key input.Key, _ input.Action, _ input.Mod) {
			calls = append(calls, "first:"+key.String())
		},
	})
	w.AddListener(ListenerFuncs{
		Key: func(win *Window, key input.Key, _ input.Action, _ input.Mod) {
			// Listeners run after the states are updated.
			assert.True(t, win.Global().KeyDown(key))
			calls = append(calls, "second:"+key.String())
		},
		Cursor: func(_ *Window, x, y float64) {
			calls = append(calls, "cursor")
		},
	})

	b.Key(w.Handle(), input.KeyA, input.Press)
	b.Move(w.Handle(), 1, 1)
	b.ScrollBy(w.Handle(), 0, 1)
	m.Poll()

	assert.Equal(t, []string{"first:A", "second:A", "cursor"}, calls)
}

func TestListeners_RemoveDuringDispatch(t *testing.T) {
	b, m, w := newEditor(t)
	var calls []string

	var removeSecond func()
	w.AddListener(ListenerFuncs{
		Scroll: func(*Window, float64, float64) {
			calls = append(calls, "first")
			removeSecond()
		},
	})
	removeSecond = w.AddListener(ListenerFuncs{
		Scroll: func(*Window, float64, float64) { calls = append(calls, "second") },
	})
	w.AddListener(ListenerFuncs{
		Scroll: func(*Window, float64, float64) { calls = append(calls, "third") },
	})

	b.ScrollBy(w.Handle(), 0, 1)
	m.Poll()
	assert.Equal(t, []string{"first", "second", "third"}, calls, "removal is deferred past the event in flight")
	assert.Equal(t, 2, w.listeners.len())

	calls = nil
	b.ScrollBy(w.Handle(), 0, 1)
	m.Poll()
	assert.Equal(t, []string{"first", "third"}, calls)

	removeSecond()
	assert.Equal(t, 2, w.listeners.len())
}

func TestListeners_RemoveSelf(t *testing.T) {
	b, m, w := newEditor(t)
	count := 0
	var remove func()
	remove = w.AddListener(ListenerFuncs{
		MouseButton: func(*Window, input.MouseButton, input.Action, input.Mod) {
			count++
			remove()
		},
	})

	b.Button(w.Handle(), input.MouseButtonRight, input.Press)
	b.Button(w.Handle(), input.MouseButtonRight, input.Release)
	m.Poll()

	assert.Equal(t, 1, count)
	assert.Zero(t, w.listeners.len())
}
