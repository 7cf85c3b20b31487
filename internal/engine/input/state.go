// Package input tracks keyboard, mouse and window state across poll cycles.
//
// Pressed and released are edge bits: they hold for the single poll cycle
// following the event and are cleared by Reset. Down is a level bit that
// persists until the matching release.
package input

import (
	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/logger"
)

// State is the input seen by one window or one layout region.
type State struct {
	pressed  bitset
	down     bitset
	released bitset

	mods Mod

	cursorX, cursorY float64
	deltaX, deltaY   float64
	hasCursor        bool

	scrollX, scrollY float64

	width, height int
	resized       bool
	iconified     bool
}

// New returns an empty state.
func New() *State {
	return &State{}
}

// Reset starts a new poll cycle. Edge bits and per-cycle deltas are
// cleared; down bits, cursor position, size and iconified persist.
func (s *State) Reset() {
	s.pressed.reset()
	s.released.reset()
	s.deltaX, s.deltaY = 0, 0
	s.scrollX, s.scrollY = 0, 0
	s.resized = false
}

// KeyEvent records a key transition. Keys outside the tracked range are
// logged and ignored.
func (s *State) KeyEvent(key Key, action Action, mods Mod) {
	if !key.Valid() {
		logger.Warn("key out of range", zap.Int("key", int(key)))
		return
	}
	s.mods = mods
	s.apply(keySlot(key), action)
}

// MouseButtonEvent records a button transition.
func (s *State) MouseButtonEvent(button MouseButton, action Action, mods Mod) {
	if !button.Valid() {
		logger.Warn("mouse button out of range", zap.Int("button", int(button)))
		return
	}
	s.mods = mods
	s.apply(buttonSlot(button), action)
}

func (s *State) apply(slot int, action Action) {
	switch action {
	case Press:
		s.pressed.set(slot)
		s.down.set(slot)
	case Release:
		s.released.set(slot)
		s.down.clear(slot)
	case Repeat:
		s.down.set(slot)
	}
}

// CursorEvent records a cursor position. Delta accumulates over the cycle;
// the first position ever seen produces no delta.
func (s *State) CursorEvent(x, y float64) {
	if s.hasCursor {
		s.deltaX += x - s.cursorX
		s.deltaY += y - s.cursorY
	}
	s.cursorX, s.cursorY = x, y
	s.hasCursor = true
}

// ScrollEvent accumulates scroll offsets over the cycle.
func (s *State) ScrollEvent(dx, dy float64) {
	s.scrollX += dx
	s.scrollY += dy
}

// ResizeEvent records a new framebuffer size.
func (s *State) ResizeEvent(width, height int) {
	s.width, s.height = width, height
	s.resized = true
}

// IconifyEvent records the window being minimized or restored.
func (s *State) IconifyEvent(iconified bool) {
	s.iconified = iconified
}

// KeyPressed reports whether the key went down this cycle.
func (s *State) KeyPressed(key Key) bool {
	return key.Valid() && s.pressed.test(keySlot(key))
}

// KeyDown reports whether the key is held.
func (s *State) KeyDown(key Key) bool {
	return key.Valid() && s.down.test(keySlot(key))
}

// KeyReleased reports whether the key went up this cycle.
func (s *State) KeyReleased(key Key) bool {
	return key.Valid() && s.released.test(keySlot(key))
}

// ButtonPressed reports whether the button went down this cycle.
func (s *State) ButtonPressed(button MouseButton) bool {
	return button.Valid() && s.pressed.test(buttonSlot(button))
}

// ButtonDown reports whether the button is held.
func (s *State) ButtonDown(button MouseButton) bool {
	return button.Valid() && s.down.test(buttonSlot(button))
}

// ButtonReleased reports whether the button went up this cycle.
func (s *State) ButtonReleased(button MouseButton) bool {
	return button.Valid() && s.released.test(buttonSlot(button))
}

// Mods returns the modifiers of the latest key or button event.
func (s *State) Mods() Mod { return s.mods }

// Cursor returns the latest cursor position in window pixels.
func (s *State) Cursor() (x, y float64) { return s.cursorX, s.cursorY }

// CursorDelta returns the cursor movement accumulated this cycle.
func (s *State) CursorDelta() (dx, dy float64) { return s.deltaX, s.deltaY }

// Scroll returns the scroll offset accumulated this cycle.
func (s *State) Scroll() (dx, dy float64) { return s.scrollX, s.scrollY }

// Size returns the latest size.
func (s *State) Size() (width, height int) { return s.width, s.height }

// Resized reports whether a resize happened this cycle.
func (s *State) Resized() bool { return s.resized }

// Iconified reports whether the window is minimized.
func (s *State) Iconified() bool { return s.iconified }
