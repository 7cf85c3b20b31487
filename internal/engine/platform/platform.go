// Package platform defines the boundary to the OS windowing and event layer.
package platform

import (
	"errors"

	"github.com/Faultbox/lightshow/internal/engine/input"
)

// ErrUnknownWindow is returned for handles a backend did not create.
var ErrUnknownWindow = errors.New("platform: unknown window handle")

// Handle identifies a backend window. The zero value is never a valid handle.
type Handle uint32

// WindowConfig holds window creation settings.
type WindowConfig struct {
	Title  string
	Width  int
	Height int
	VSync  bool
}

// EventSink receives translated events during Backend.PollEvents.
// Cursor positions are in framebuffer pixels with a top-left origin.
type EventSink interface {
	Key(h Handle, key input.Key, action input.Action, mods input.Mod)
	MouseButton(h Handle, button input.MouseButton, action input.Action, mods input.Mod)
	CursorPos(h Handle, x, y float64)
	Scroll(h Handle, dx, dy float64)
	FramebufferSize(h Handle, width, height int)
	Iconify(h Handle, iconified bool)
	CloseRequest(h Handle)
}

// Backend creates windows with a current OpenGL 4.1 core context and
// delivers their events. All methods must be called from the main thread.
type Backend interface {
	Name() string
	CreateWindow(cfg WindowConfig) (Handle, error)
	DestroyWindow(h Handle)
	// PollEvents delivers all queued events to sink without blocking.
	PollEvents(sink EventSink)
	// MakeCurrent makes the window's GL context current on this thread.
	MakeCurrent(h Handle)
	SwapBuffers(h Handle)
	ShouldClose(h Handle) bool
	SetShouldClose(h Handle, value bool)
	FramebufferSize(h Handle) (width, height int)
	Terminate()
}
