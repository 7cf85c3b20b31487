// Package window ties backend windows to a layout tree, routing input to
// the region last clicked and keeping region viewports sized.
package window

import (
	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/engine/gpu"
	"github.com/Faultbox/lightshow/internal/engine/input"
	"github.com/Faultbox/lightshow/internal/engine/layout"
	"github.com/Faultbox/lightshow/internal/engine/platform"
	"github.com/Faultbox/lightshow/internal/engine/renderer"
	"github.com/Faultbox/lightshow/internal/logger"
)

// Window is one backend window split into layout regions. Each region has
// its own input state and, once a GPU cache is attached, its own viewport.
type Window struct {
	manager *Manager
	handle  platform.Handle
	title   string

	tree   *layout.Tree
	global *input.State
	leaves []*input.State
	views  []*renderer.Viewport
	active int

	width, height int

	listeners listeners
}

func newWindow(m *Manager, h platform.Handle, title string, tree *layout.Tree) *Window {
	w := &Window{
		manager: m,
		handle:  h,
		title:   title,
		tree:    tree,
		global:  input.New(),
		leaves:  make([]*input.State, tree.Len()),
	}
	for i := range w.leaves {
		w.leaves[i] = input.New()
	}
	w.width, w.height = m.backend.FramebufferSize(h)
	w.global.ResizeEvent(w.width, w.height)
	w.resize()
	return w
}

// Handle returns the backend handle.
func (w *Window) Handle() platform.Handle { return w.handle }

// Title returns the title the window was created with.
func (w *Window) Title() string { return w.title }

// Tree returns the window's layout.
func (w *Window) Tree() *layout.Tree { return w.tree }

// Global returns the state that sees every event of the window.
func (w *Window) Global() *input.State { return w.global }

// Active returns the region that currently receives input.
func (w *Window) Active() int { return w.active }

// Input returns a region's input state, or nil for an unknown region.
func (w *Window) Input(region int) *input.State {
	if region < 0 || region >= len(w.leaves) {
		return nil
	}
	return w.leaves[region]
}

// Viewport returns a region's viewport, or nil before AttachCache or for
// an unknown region.
func (w *Window) Viewport(region int) *renderer.Viewport {
	if region < 0 || region >= len(w.views) {
		return nil
	}
	return w.views[region]
}

// Size returns the framebuffer size.
func (w *Window) Size() (width, height int) { return w.width, w.height }

// Bounds returns the root rectangle of the layout.
func (w *Window) Bounds() layout.Rect {
	return layout.Rect{W: w.width, H: w.height}
}

// AttachCache creates one viewport per region drawing from cache.
func (w *Window) AttachCache(cache *gpu.Cache) {
	w.views = make([]*renderer.Viewport, w.tree.Len())
	for i := range w.views {
		w.views[i] = renderer.NewViewport(cache)
	}
	w.resize()
}

// AddListener registers l and returns a function that unregisters it.
func (w *Window) AddListener(l Listener) (remove func()) {
	return w.listeners.add(l)
}

// MakeCurrent makes the window's GL context current.
func (w *Window) MakeCurrent() { w.manager.backend.MakeCurrent(w.handle) }

// SwapBuffers presents the frame.
func (w *Window) SwapBuffers() { w.manager.backend.SwapBuffers(w.handle) }

// ShouldClose reports whether the window was asked to close.
func (w *Window) ShouldClose() bool { return w.manager.backend.ShouldClose(w.handle) }

// Close asks the window to close; Manager.Destroy frees it.
func (w *Window) Close() { w.manager.backend.SetShouldClose(w.handle, true) }

func (w *Window) reset() {
	w.global.Reset()
	for _, s := range w.leaves {
		s.Reset()
	}
}

// update runs after the backend delivered this cycle's events.
func (w *Window) update() {
	if w.global.ButtonPressed(input.MouseButtonLeft) {
		x, y := w.global.Cursor()
		if region := w.tree.Locate(w.Bounds(), x, y); region != w.active {
			logger.Debug("active region changed",
				zap.String("window", w.title),
				zap.String("from", w.tree.Name(w.active)),
				zap.String("to", w.tree.Name(region)))
			w.active = region
		}
	}
	if w.global.Resized() {
		w.width, w.height = w.global.Size()
		w.resize()
	}
}

func (w *Window) resize() {
	w.tree.Walk(w.Bounds(), func(region int, r layout.Rect) {
		w.leaves[region].ResizeEvent(r.W, r.H)
		if region < len(w.views) {
			w.views[region].SetRegion(r, w.height)
		}
	})
}

func (w *Window) activeState() *input.State {
	return w.leaves[w.active]
}

func (w *Window) key(key input.Key, action input.Action, mods input.Mod) {
	w.global.KeyEvent(key, action, mods)
	w.activeState().KeyEvent(key, action, mods)
	w.listeners.dispatch(func(l Listener) { l.OnKey(w, key, action, mods) })
}

func (w *Window) mouseButton(button input.MouseButton, action input.Action, mods input.Mod) {
	w.global.MouseButtonEvent(button, action, mods)
	w.activeState().MouseButtonEvent(button, action, mods)
	w.listeners.dispatch(func(l Listener) { l.OnMouseButton(w, button, action, mods) })
}

func (w *Window) cursor(x, y float64) {
	w.global.CursorEvent(x, y)
	w.activeState().CursorEvent(x, y)
	w.listeners.dispatch(func(l Listener) { l.OnCursor(w, x, y) })
}

func (w *Window) scroll(dx, dy float64) {
	w.global.ScrollEvent(dx, dy)
	w.activeState().ScrollEvent(dx, dy)
	w.listeners.dispatch(func(l Listener) { l.OnScroll(w, dx, dy) })
}

func (w *Window) framebufferSize(width, height int) {
	w.global.ResizeEvent(width, height)
}

func (w *Window) iconify(iconified bool) {
	w.global.IconifyEvent(iconified)
	w.activeState().IconifyEvent(iconified)
}
