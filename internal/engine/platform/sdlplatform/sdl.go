// Package sdlplatform implements platform.Backend on SDL2.
package sdlplatform

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/engine/input"
	"github.com/Faultbox/lightshow/internal/engine/platform"
	"github.com/Faultbox/lightshow/internal/logger"
)

type sdlWindow struct {
	win         *sdl.Window
	ctx         sdl.GLContext
	id          uint32
	shouldClose bool
}

// Backend owns SDL and the windows created through it.
type Backend struct {
	initialized bool
	next        platform.Handle
	windows     map[platform.Handle]*sdlWindow
	byID        map[uint32]platform.Handle
}

// New creates a backend. SDL is initialized on the first CreateWindow.
func New() *Backend {
	return &Backend{
		windows: make(map[platform.Handle]*sdlWindow),
		byID:    make(map[uint32]platform.Handle),
	}
}

// Name returns "sdl".
func (b *Backend) Name() string { return "sdl" }

// CreateWindow opens a window with a current OpenGL 4.1 core context.
func (b *Backend) CreateWindow(cfg platform.WindowConfig) (platform.Handle, error) {
	if !b.initialized {
		if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
			return 0, fmt.Errorf("SDL_Init failed: %w", err)
		}
		b.initialized = true
	}

	// OpenGL 4.1 core is the newest macOS supports.
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	win, err := sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		return 0, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	ctx, err := win.GLCreateContext()
	if err != nil {
		win.Destroy()
		return 0, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		logger.Warn("failed to set swap interval", zap.Error(err))
	}

	id, err := win.GetID()
	if err != nil {
		sdl.GLDeleteContext(ctx)
		win.Destroy()
		return 0, fmt.Errorf("SDL_GetWindowID failed: %w", err)
	}

	b.next++
	h := b.next
	b.windows[h] = &sdlWindow{win: win, ctx: ctx, id: id}
	b.byID[id] = h

	logger.Info("window created",
		zap.String("backend", b.Name()),
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("vsync", cfg.VSync))

	return h, nil
}

// DestroyWindow closes a window and its GL context.
func (b *Backend) DestroyWindow(h platform.Handle) {
	w, ok := b.windows[h]
	if !ok {
		return
	}
	sdl.GLDeleteContext(w.ctx)
	w.win.Destroy()
	delete(b.byID, w.id)
	delete(b.windows, h)
}

// PollEvents drains the SDL event queue into sink.
func (b *Backend) PollEvents(sink platform.EventSink) {
	if !b.initialized {
		return
	}
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		b.dispatch(event, sink)
	}
}

func (b *Backend) dispatch(event sdl.Event, sink platform.EventSink) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		for h, w := range b.windows {
			w.shouldClose = true
			sink.CloseRequest(h)
		}

	case *sdl.WindowEvent:
		h, w, ok := b.lookup(e.WindowID)
		if !ok {
			return
		}
		switch e.Event {
		case sdl.WINDOWEVENT_SIZE_CHANGED:
			fw, fh := w.win.GLGetDrawableSize()
			sink.FramebufferSize(h, int(fw), int(fh))
		case sdl.WINDOWEVENT_MINIMIZED:
			sink.Iconify(h, true)
		case sdl.WINDOWEVENT_RESTORED:
			sink.Iconify(h, false)
		case sdl.WINDOWEVENT_CLOSE:
			w.shouldClose = true
			sink.CloseRequest(h)
		}

	case *sdl.KeyboardEvent:
		h, _, ok := b.lookup(e.WindowID)
		if !ok {
			return
		}
		key := translateKey(e.Keysym.Sym)
		if key == input.KeyUnknown {
			return
		}
		action := input.Release
		if e.Type == sdl.KEYDOWN {
			action = input.Press
			if e.Repeat != 0 {
				action = input.Repeat
			}
		}
		sink.Key(h, key, action, translateMods(uint32(e.Keysym.Mod)))

	case *sdl.MouseButtonEvent:
		h, _, ok := b.lookup(e.WindowID)
		if !ok {
			return
		}
		button, ok := translateButton(e.Button)
		if !ok {
			return
		}
		action := input.Release
		if e.State == sdl.PRESSED {
			action = input.Press
		}
		sink.MouseButton(h, button, action, translateMods(uint32(sdl.GetModState())))

	case *sdl.MouseMotionEvent:
		h, w, ok := b.lookup(e.WindowID)
		if !ok {
			return
		}
		sx, sy := w.drawableScale()
		sink.CursorPos(h, float64(e.X)*sx, float64(e.Y)*sy)

	case *sdl.MouseWheelEvent:
		h, _, ok := b.lookup(e.WindowID)
		if !ok {
			return
		}
		dx, dy := float64(e.X), float64(e.Y)
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			dx, dy = -dx, -dy
		}
		sink.Scroll(h, dx, dy)
	}
}

func (b *Backend) lookup(id uint32) (platform.Handle, *sdlWindow, bool) {
	h, ok := b.byID[id]
	if !ok {
		return 0, nil, false
	}
	return h, b.windows[h], true
}

// drawableScale returns the drawable-to-window ratio, which differs from 1
// on high-DPI displays.
func (w *sdlWindow) drawableScale() (float64, float64) {
	ww, wh := w.win.GetSize()
	fw, fh := w.win.GLGetDrawableSize()
	if ww == 0 || wh == 0 {
		return 1, 1
	}
	return float64(fw) / float64(ww), float64(fh) / float64(wh)
}

// MakeCurrent makes the window's context current.
func (b *Backend) MakeCurrent(h platform.Handle) {
	w, ok := b.windows[h]
	if !ok {
		return
	}
	if err := w.win.GLMakeCurrent(w.ctx); err != nil {
		logger.Warn("failed to make context current", zap.Error(err))
	}
}

// SwapBuffers presents the window's back buffer.
func (b *Backend) SwapBuffers(h platform.Handle) {
	if w, ok := b.windows[h]; ok {
		w.win.GLSwap()
	}
}

// ShouldClose reports whether the window was asked to close.
// Unknown handles report true.
func (b *Backend) ShouldClose(h platform.Handle) bool {
	w, ok := b.windows[h]
	return !ok || w.shouldClose
}

// SetShouldClose sets the close flag.
func (b *Backend) SetShouldClose(h platform.Handle, value bool) {
	if w, ok := b.windows[h]; ok {
		w.shouldClose = value
	}
}

// FramebufferSize returns the drawable size in pixels.
func (b *Backend) FramebufferSize(h platform.Handle) (int, int) {
	w, ok := b.windows[h]
	if !ok {
		return 0, 0
	}
	fw, fh := w.win.GLGetDrawableSize()
	return int(fw), int(fh)
}

// Terminate destroys remaining windows and shuts SDL down.
func (b *Backend) Terminate() {
	for h := range b.windows {
		b.DestroyWindow(h)
	}
	if b.initialized {
		sdl.Quit()
		b.initialized = false
	}
}
