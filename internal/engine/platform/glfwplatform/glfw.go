// Package glfwplatform implements platform.Backend on GLFW 3.3.
package glfwplatform

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/engine/input"
	"github.com/Faultbox/lightshow/internal/engine/platform"
	"github.com/Faultbox/lightshow/internal/logger"
)

// Backend owns GLFW and the windows created through it.
type Backend struct {
	initialized bool
	next        platform.Handle
	windows     map[platform.Handle]*glfw.Window

	// sink is only set while PollEvents runs; GLFW fires callbacks from
	// inside glfw.PollEvents.
	sink platform.EventSink
}

// New creates a backend. GLFW is initialized on the first CreateWindow.
func New() *Backend {
	return &Backend{windows: make(map[platform.Handle]*glfw.Window)}
}

// Name returns "glfw".
func (b *Backend) Name() string { return "glfw" }

// CreateWindow opens a window with a current OpenGL 4.1 core context.
func (b *Backend) CreateWindow(cfg platform.WindowConfig) (platform.Handle, error) {
	if !b.initialized {
		if err := glfw.Init(); err != nil {
			return 0, fmt.Errorf("glfw init: %w", err)
		}
		b.initialized = true
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("glfw create window: %w", err)
	}
	win.MakeContextCurrent()
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	b.next++
	h := b.next
	b.windows[h] = win
	b.installCallbacks(h, win)

	logger.Info("window created",
		zap.String("backend", b.Name()),
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("vsync", cfg.VSync))

	return h, nil
}

func (b *Backend) installCallbacks(h platform.Handle, win *glfw.Window) {
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		if b.sink != nil {
			b.sink.Key(h, input.Key(key), input.Action(action), input.Mod(mods))
		}
	})
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if b.sink != nil {
			b.sink.MouseButton(h, input.MouseButton(button), input.Action(action), input.Mod(mods))
		}
	})
	win.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		if b.sink != nil {
			sx, sy := contentScale(w)
			b.sink.CursorPos(h, x*sx, y*sy)
		}
	})
	win.SetScrollCallback(func(_ *glfw.Window, dx, dy float64) {
		if b.sink != nil {
			b.sink.Scroll(h, dx, dy)
		}
	})
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if b.sink != nil {
			b.sink.FramebufferSize(h, width, height)
		}
	})
	win.SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
		if b.sink != nil {
			b.sink.Iconify(h, iconified)
		}
	})
	win.SetCloseCallback(func(_ *glfw.Window) {
		if b.sink != nil {
			b.sink.CloseRequest(h)
		}
	})
}

// contentScale returns the framebuffer-to-window ratio, which differs from
// 1 on high-DPI displays.
func contentScale(w *glfw.Window) (float64, float64) {
	ww, wh := w.GetSize()
	fw, fh := w.GetFramebufferSize()
	if ww == 0 || wh == 0 {
		return 1, 1
	}
	return float64(fw) / float64(ww), float64(fh) / float64(wh)
}

// DestroyWindow closes a window.
func (b *Backend) DestroyWindow(h platform.Handle) {
	win, ok := b.windows[h]
	if !ok {
		return
	}
	win.Destroy()
	delete(b.windows, h)
}

// PollEvents processes pending events, forwarding them to sink.
func (b *Backend) PollEvents(sink platform.EventSink) {
	if !b.initialized {
		return
	}
	b.sink = sink
	glfw.PollEvents()
	b.sink = nil
}

// MakeCurrent makes the window's context current.
func (b *Backend) MakeCurrent(h platform.Handle) {
	if win, ok := b.windows[h]; ok {
		win.MakeContextCurrent()
	}
}

// SwapBuffers presents the window's back buffer.
func (b *Backend) SwapBuffers(h platform.Handle) {
	if win, ok := b.windows[h]; ok {
		win.SwapBuffers()
	}
}

// ShouldClose reports whether the window was asked to close.
// Unknown handles report true.
func (b *Backend) ShouldClose(h platform.Handle) bool {
	win, ok := b.windows[h]
	return !ok || win.ShouldClose()
}

// SetShouldClose sets the close flag.
func (b *Backend) SetShouldClose(h platform.Handle, value bool) {
	if win, ok := b.windows[h]; ok {
		win.SetShouldClose(value)
	}
}

// FramebufferSize returns the drawable size in pixels.
func (b *Backend) FramebufferSize(h platform.Handle) (int, int) {
	if win, ok := b.windows[h]; ok {
		return win.GetFramebufferSize()
	}
	return 0, 0
}

// Terminate destroys remaining windows and shuts GLFW down.
func (b *Backend) Terminate() {
	for h := range b.windows {
		b.DestroyWindow(h)
	}
	if b.initialized {
		glfw.Terminate()
		b.initialized = false
	}
}
