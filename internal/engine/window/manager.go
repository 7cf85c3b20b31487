package window

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/engine/input"
	"github.com/Faultbox/lightshow/internal/engine/layout"
	"github.com/Faultbox/lightshow/internal/engine/platform"
	"github.com/Faultbox/lightshow/internal/logger"
)

// Manager owns the windows of one backend and routes its events by handle.
type Manager struct {
	backend platform.Backend
	windows map[platform.Handle]*Window
	order   []*Window
}

var _ platform.EventSink = (*Manager)(nil)

// NewManager creates a manager for backend.
func NewManager(backend platform.Backend) *Manager {
	return &Manager{
		backend: backend,
		windows: make(map[platform.Handle]*Window),
	}
}

// Backend returns the backend the manager polls.
func (m *Manager) Backend() platform.Backend { return m.backend }

// NewWindow opens a window whose framebuffer is split by the layout rooted
// at root. Region 0 starts active.
func (m *Manager) NewWindow(cfg platform.WindowConfig, root *layout.Node) (*Window, error) {
	tree, err := layout.NewTree(root)
	if err != nil {
		return nil, fmt.Errorf("window %q: %w", cfg.Title, err)
	}
	h, err := m.backend.CreateWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("window %q: %w", cfg.Title, err)
	}

	w := newWindow(m, h, cfg.Title, tree)
	m.windows[h] = w
	m.order = append(m.order, w)

	logger.Debug("window registered",
		zap.String("title", cfg.Title),
		zap.Uint32("handle", uint32(h)),
		zap.Int("regions", tree.Len()))

	return w, nil
}

// Destroy closes w and stops routing its events.
func (m *Manager) Destroy(w *Window) {
	if _, ok := m.windows[w.handle]; !ok {
		return
	}
	delete(m.windows, w.handle)
	for i, o := range m.order {
		if o == w {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.backend.DestroyWindow(w.handle)
}

// Windows returns open windows in creation order.
func (m *Manager) Windows() []*Window {
	return append([]*Window(nil), m.order...)
}

// Window returns the window for a handle.
func (m *Manager) Window(h platform.Handle) (*Window, error) {
	w, ok := m.windows[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", platform.ErrUnknownWindow, h)
	}
	return w, nil
}

// Poll runs one input cycle: reset every state, deliver pending events,
// then update active regions and propagate resizes.
func (m *Manager) Poll() {
	for _, w := range m.order {
		w.reset()
	}
	m.backend.PollEvents(m)
	for _, w := range m.order {
		w.update()
	}
}

// Close destroys every window and terminates the backend.
func (m *Manager) Close() {
	for _, w := range m.Windows() {
		m.Destroy(w)
	}
	m.backend.Terminate()
}

func (m *Manager) lookup(h platform.Handle, event string) *Window {
	w, ok := m.windows[h]
	if !ok {
		logger.Warn("event for unknown window dropped",
			zap.String("event", event),
			zap.Uint32("handle", uint32(h)))
	}
	return w
}

// Key implements platform.EventSink.
func (m *Manager) Key(h platform.Handle, key input.Key, action input.Action, mods input.Mod) {
	if w := m.lookup(h, "key"); w != nil {
		w.key(key, action, mods)
	}
}

// MouseButton implements platform.EventSink.
func (m *Manager) MouseButton(h platform.Handle, button input.MouseButton, action input.Action, mods input.Mod) {
	if w := m.lookup(h, "mouse button"); w != nil {
		w.mouseButton(button, action, mods)
	}
}

// CursorPos implements platform.EventSink.
func (m *Manager) CursorPos(h platform.Handle, x, y float64) {
	if w := m.lookup(h, "cursor"); w != nil {
		w.cursor(x, y)
	}
}

// Scroll implements platform.EventSink.
func (m *Manager) Scroll(h platform.Handle, dx, dy float64) {
	if w := m.lookup(h, "scroll"); w != nil {
		w.scroll(dx, dy)
	}
}

// FramebufferSize implements platform.EventSink.
func (m *Manager) FramebufferSize(h platform.Handle, width, height int) {
	if w := m.lookup(h, "resize"); w != nil {
		w.framebufferSize(width, height)
	}
}

// Iconify implements platform.EventSink.
func (m *Manager) Iconify(h platform.Handle, iconified bool) {
	if w := m.lookup(h, "iconify"); w != nil {
		w.iconify(iconified)
	}
}

// CloseRequest implements platform.EventSink.
func (m *Manager) CloseRequest(h platform.Handle) {
	if w := m.lookup(h, "close"); w != nil {
		logger.Info("window close requested", zap.String("title", w.title))
	}
}
