package window

import "github.com/Faultbox/lightshow/internal/engine/input"

// Listener receives a window's raw input after it has been applied to the
// window's input states.
type Listener interface {
	OnKey(w *Window, key input.Key, action input.Action, mods input.Mod)
	OnMouseButton(w *Window, button input.MouseButton, action input.Action, mods input.Mod)
	OnCursor(w *Window, x, y float64)
	OnScroll(w *Window, dx, dy float64)
}

// ListenerFuncs adapts optional functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Key         func(w *Window, key input.Key, action input.Action, mods input.Mod)
	MouseButton func(w *Window, button input.MouseButton, action input.Action, mods input.Mod)
	Cursor      func(w *Window, x, y float64)
	Scroll      func(w *Window, dx, dy float64)
}

var _ Listener = ListenerFuncs{}

func (f ListenerFuncs) OnKey(w *Window, key input.Key, action input.Action, mods input.Mod) {
	if f.Key != nil {
		f.Key(w, key, action, mods)
	}
}

func (f ListenerFuncs) OnMouseButton(w *Window, button input.MouseButton, action input.Action, mods input.Mod) {
	if f.MouseButton != nil {
		f.MouseButton(w, button, action, mods)
	}
}

func (f ListenerFuncs) OnCursor(w *Window, x, y float64) {
	if f.Cursor != nil {
		f.Cursor(w, x, y)
	}
}

func (f ListenerFuncs) OnScroll(w *Window, dx, dy float64) {
	if f.Scroll != nil {
		f.Scroll(w, dx, dy)
	}
}

type listenerEntry struct {
	l       Listener
	removed bool
}

// listeners dispatches in registration order. Removal while a dispatch is
// running takes effect once the outermost dispatch returns; the removed
// listener still sees the event in flight.
type listeners struct {
	entries []*listenerEntry
	depth   int
}

func (ls *listeners) add(l Listener) func() {
	e := &listenerEntry{l: l}
	ls.entries = append(ls.entries, e)
	return func() {
		if e.removed {
			return
		}
		e.removed = true
		if ls.depth == 0 {
			ls.compact()
		}
	}
}

func (ls *listeners) dispatch(fn func(Listener)) {
	snapshot := ls.entries
	ls.depth++
	for _, e := range snapshot {
		fn(e.l)
	}
	ls.depth--
	if ls.depth == 0 {
		ls.compact()
	}
}

func (ls *listeners) compact() {
	kept := ls.entries[:0:0]
	for _, e := range ls.entries {
		if !e.removed {
			kept = append(kept, e)
		}
	}
	ls.entries = kept
}

func (ls *listeners) len() int {
	n := 0
	for _, e := range ls.entries {
		if !e.removed {
			n++
		}
	}
	return n
}
