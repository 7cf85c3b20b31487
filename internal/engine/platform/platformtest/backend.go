// Package platformtest provides a scripted platform.Backend for tests.
package platformtest

import (
	"fmt"

	"github.com/Faultbox/lightshow/internal/engine/input"
	"github.com/Faultbox/lightshow/internal/engine/platform"
)

// Window is the fake backend's record of one window.
type Window struct {
	Config      platform.WindowConfig
	Width       int
	Height      int
	ShouldClose bool
	Swaps       int
	Destroyed   bool
}

// Backend queues events and replays them on PollEvents.
type Backend struct {
	// CreateErr, when set, makes CreateWindow fail.
	CreateErr error

	Windows    map[platform.Handle]*Window
	Polls      int
	Current    platform.Handle
	Terminated bool

	next  platform.Handle
	queue []func(platform.EventSink)
}

var _ platform.Backend = (*Backend)(nil)

// New returns an empty fake backend.
func New() *Backend {
	return &Backend{Windows: make(map[platform.Handle]*Window)}
}

// Name returns "fake".
func (b *Backend) Name() string { return "fake" }

// CreateWindow records a window sized as configured.
func (b *Backend) CreateWindow(cfg platform.WindowConfig) (platform.Handle, error) {
	if b.CreateErr != nil {
		return 0, b.CreateErr
	}
	b.next++
	b.Windows[b.next] = &Window{Config: cfg, Width: cfg.Width, Height: cfg.Height}
	return b.next, nil
}

// DestroyWindow marks the window destroyed.
func (b *Backend) DestroyWindow(h platform.Handle) {
	if w, ok := b.Windows[h]; ok {
		w.Destroyed = true
	}
}

// PollEvents replays and clears the queue.
func (b *Backend) PollEvents(sink platform.EventSink) {
	b.Polls++
	queue := b.queue
	b.queue = nil
	for _, fn := range queue {
		fn(sink)
	}
}

// MakeCurrent records the current window.
func (b *Backend) MakeCurrent(h platform.Handle) { b.Current = h }

// SwapBuffers counts presents.
func (b *Backend) SwapBuffers(h platform.Handle) {
	if w, ok := b.Windows[h]; ok {
		w.Swaps++
	}
}

// ShouldClose reports the close flag. Unknown handles report true.
func (b *Backend) ShouldClose(h platform.Handle) bool {
	w, ok := b.Windows[h]
	return !ok || w.ShouldClose
}

// SetShouldClose sets the close flag.
func (b *Backend) SetShouldClose(h platform.Handle, value bool) {
	if w, ok := b.Windows[h]; ok {
		w.ShouldClose = value
	}
}

// FramebufferSize returns the window's current size.
func (b *Backend) FramebufferSize(h platform.Handle) (int, int) {
	if w, ok := b.Windows[h]; ok {
		return w.Width, w.Height
	}
	return 0, 0
}

// Terminate records shutdown.
func (b *Backend) Terminate() { b.Terminated = true }

// Push queues an arbitrary delivery.
func (b *Backend) Push(fn func(sink platform.EventSink)) {
	b.queue = append(b.queue, fn)
}

// Key queues a key event.
func (b *Backend) Key(h platform.Handle, key input.Key, action input.Action) {
	b.Push(func(s platform.EventSink) { s.Key(h, key, action, 0) })
}

// Button queues a mouse button event.
func (b *Backend) Button(h platform.Handle, button input.MouseButton, action input.Action) {
	b.Push(func(s platform.EventSink) { s.MouseButton(h, button, action, 0) })
}

// Move queues a cursor position.
func (b *Backend) Move(h platform.Handle, x, y float64) {
	b.Push(func(s platform.EventSink) { s.CursorPos(h, x, y) })
}

// Click queues a cursor move followed by a left button press.
func (b *Backend) Click(h platform.Handle, x, y float64) {
	b.Move(h, x, y)
	b.Button(h, input.MouseButtonLeft, input.Press)
}

// ScrollBy queues a scroll event.
func (b *Backend) ScrollBy(h platform.Handle, dx, dy float64) {
	b.Push(func(s platform.EventSink) { s.Scroll(h, dx, dy) })
}

// Resize queues a framebuffer resize and updates the stored size when
// the event is delivered.
func (b *Backend) Resize(h platform.Handle, width, height int) {
	b.Push(func(s platform.EventSink) {
		if w, ok := b.Windows[h]; ok {
			w.Width, w.Height = width, height
		}
		s.FramebufferSize(h, width, height)
	})
}

// Iconify queues a minimize or restore.
func (b *Backend) Iconify(h platform.Handle, iconified bool) {
	b.Push(func(s platform.EventSink) { s.Iconify(h, iconified) })
}

// RequestClose queues a close request and sets the close flag on delivery.
func (b *Backend) RequestClose(h platform.Handle) {
	b.Push(func(s platform.EventSink) {
		if w, ok := b.Windows[h]; ok {
			w.ShouldClose = true
		}
		s.CloseRequest(h)
	})
}

// String summarizes the backend for test failure messages.
func (b *Backend) String() string {
	return fmt.Sprintf("fake backend: %d windows, %d queued, %d polls", len(b.Windows), len(b.queue), b.Polls)
}
