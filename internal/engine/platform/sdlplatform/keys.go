package sdlplatform

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/lightshow/internal/engine/input"
)

var specialKeys = map[sdl.Keycode]input.Key{
	sdl.K_ESCAPE:       input.KeyEscape,
	sdl.K_RETURN:       input.KeyEnter,
	sdl.K_TAB:          input.KeyTab,
	sdl.K_BACKSPACE:    input.KeyBackspace,
	sdl.K_INSERT:       input.KeyInsert,
	sdl.K_DELETE:       input.KeyDelete,
	sdl.K_RIGHT:        input.KeyRight,
	sdl.K_LEFT:         input.KeyLeft,
	sdl.K_DOWN:         input.KeyDown,
	sdl.K_UP:           input.KeyUp,
	sdl.K_PAGEUP:       input.KeyPageUp,
	sdl.K_PAGEDOWN:     input.KeyPageDown,
	sdl.K_HOME:         input.KeyHome,
	sdl.K_END:          input.KeyEnd,
	sdl.K_CAPSLOCK:     input.KeyCapsLock,
	sdl.K_SCROLLLOCK:   input.KeyScrollLock,
	sdl.K_NUMLOCKCLEAR: input.KeyNumLock,
	sdl.K_PRINTSCREEN:  input.KeyPrintScreen,
	sdl.K_PAUSE:        input.KeyPause,
	sdl.K_KP_0:         input.KeyKP0,
	sdl.K_KP_1:         input.KeyKP0 + 1,
	sdl.K_KP_2:         input.KeyKP0 + 2,
	sdl.K_KP_3:         input.KeyKP0 + 3,
	sdl.K_KP_4:         input.KeyKP0 + 4,
	sdl.K_KP_5:         input.KeyKP0 + 5,
	sdl.K_KP_6:         input.KeyKP0 + 6,
	sdl.K_KP_7:         input.KeyKP0 + 7,
	sdl.K_KP_8:         input.KeyKP0 + 8,
	sdl.K_KP_9:         input.KeyKP9,
	sdl.K_KP_PERIOD:    input.KeyKPDecimal,
	sdl.K_KP_DIVIDE:    input.KeyKPDivide,
	sdl.K_KP_MULTIPLY:  input.KeyKPMultiply,
	sdl.K_KP_MINUS:     input.KeyKPSubtract,
	sdl.K_KP_PLUS:      input.KeyKPAdd,
	sdl.K_KP_ENTER:     input.KeyKPEnter,
	sdl.K_KP_EQUALS:    input.KeyKPEqual,
	sdl.K_LSHIFT:       input.KeyLeftShift,
	sdl.K_LCTRL:        input.KeyLeftControl,
	sdl.K_LALT:         input.KeyLeftAlt,
	sdl.K_LGUI:         input.KeyLeftSuper,
	sdl.K_RSHIFT:       input.KeyRightShift,
	sdl.K_RCTRL:        input.KeyRightControl,
	sdl.K_RALT:         input.KeyRightAlt,
	sdl.K_RGUI:         input.KeyRightSuper,
	sdl.K_MENU:         input.KeyMenu,
}

// translateKey maps an SDL keycode onto the GLFW numbering.
func translateKey(sym sdl.Keycode) input.Key {
	switch {
	case sym >= sdl.K_a && sym <= sdl.K_z:
		return input.KeyA + input.Key(sym-sdl.K_a)
	case sym >= sdl.K_F1 && sym <= sdl.K_F12:
		return input.KeyF1 + input.Key(sym-sdl.K_F1)
	case sym == sdl.K_SPACE, sym == sdl.K_QUOTE, sym == sdl.K_BACKQUOTE,
		sym >= sdl.K_COMMA && sym <= sdl.K_9,
		sym == sdl.K_SEMICOLON, sym == sdl.K_EQUALS,
		sym >= sdl.K_LEFTBRACKET && sym <= sdl.K_RIGHTBRACKET:
		// Printable keys share their ASCII value in both numberings.
		return input.Key(sym)
	}
	if k, ok := specialKeys[sym]; ok {
		return k
	}
	return input.KeyUnknown
}

// translateButton maps SDL's 1-based left/middle/right/x1/x2 order onto
// GLFW's left/right/middle order.
func translateButton(b uint8) (input.MouseButton, bool) {
	switch b {
	case sdl.BUTTON_LEFT:
		return input.MouseButtonLeft, true
	case sdl.BUTTON_RIGHT:
		return input.MouseButtonRight, true
	case sdl.BUTTON_MIDDLE:
		return input.MouseButtonMiddle, true
	case sdl.BUTTON_X1:
		return input.MouseButton4, true
	case sdl.BUTTON_X2:
		return input.MouseButton5, true
	}
	return 0, false
}

func translateMods(mod uint32) input.Mod {
	var out input.Mod
	if mod&uint32(sdl.KMOD_SHIFT) != 0 {
		out |= input.ModShift
	}
	if mod&uint32(sdl.KMOD_CTRL) != 0 {
		out |= input.ModControl
	}
	if mod&uint32(sdl.KMOD_ALT) != 0 {
		out |= input.ModAlt
	}
	if mod&uint32(sdl.KMOD_GUI) != 0 {
		out |= input.ModSuper
	}
	if mod&uint32(sdl.KMOD_CAPS) != 0 {
		out |= input.ModCapsLock
	}
	if mod&uint32(sdl.KMOD_NUM) != 0 {
		out |= input.ModNumLock
	}
	return out
}
