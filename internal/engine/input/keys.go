package input

import "fmt"

// Key is a keyboard key. Values follow the GLFW key numbering, which the
// SDL backend maps onto.
type Key int

// Keys.
const (
	KeyUnknown Key = -1

	KeySpace        Key = 32
	KeyApostrophe   Key = 39
	KeyComma        Key = 44
	KeyMinus        Key = 45
	KeyPeriod       Key = 46
	KeySlash        Key = 47
	Key0            Key = 48
	Key1            Key = 49
	Key2            Key = 50
	Key3            Key = 51
	Key4            Key = 52
	Key5            Key = 53
	Key6            Key = 54
	Key7            Key = 55
	Key8            Key = 56
	Key9            Key = 57
	KeySemicolon    Key = 59
	KeyEqual        Key = 61
	KeyA            Key = 65
	KeyB            Key = 66
	KeyC            Key = 67
	KeyD            Key = 68
	KeyE            Key = 69
	KeyF            Key = 70
	KeyG            Key = 71
	KeyH            Key = 72
	KeyI            Key = 73
	KeyJ            Key = 74
	KeyK            Key = 75
	KeyL            Key = 76
	KeyM            Key = 77
	KeyN            Key = 78
	KeyO            Key = 79
	KeyP            Key = 80
	KeyQ            Key = 81
	KeyR            Key = 82
	KeyS            Key = 83
	KeyT            Key = 84
	KeyU            Key = 85
	KeyV            Key = 86
	KeyW            Key = 87
	KeyX            Key = 88
	KeyY            Key = 89
	KeyZ            Key = 90
	KeyLeftBracket  Key = 91
	KeyBackslash    Key = 92
	KeyRightBracket Key = 93
	KeyGraveAccent  Key = 96

	KeyEscape       Key = 256
	KeyEnter        Key = 257
	KeyTab          Key = 258
	KeyBackspace    Key = 259
	KeyInsert       Key = 260
	KeyDelete       Key = 261
	KeyRight        Key = 262
	KeyLeft         Key = 263
	KeyDown         Key = 264
	KeyUp           Key = 265
	KeyPageUp       Key = 266
	KeyPageDown     Key = 267
	KeyHome         Key = 268
	KeyEnd          Key = 269
	KeyCapsLock     Key = 280
	KeyScrollLock   Key = 281
	KeyNumLock      Key = 282
	KeyPrintScreen  Key = 283
	KeyPause        Key = 284
	KeyF1           Key = 290
	KeyF12          Key = 301
	KeyF25          Key = 314
	KeyKP0          Key = 320
	KeyKP9          Key = 329
	KeyKPDecimal    Key = 330
	KeyKPDivide     Key = 331
	KeyKPMultiply   Key = 332
	KeyKPSubtract   Key = 333
	KeyKPAdd        Key = 334
	KeyKPEnter      Key = 335
	KeyKPEqual      Key = 336
	KeyLeftShift    Key = 340
	KeyLeftControl  Key = 341
	KeyLeftAlt      Key = 342
	KeyLeftSuper    Key = 343
	KeyRightShift   Key = 344
	KeyRightControl Key = 345
	KeyRightAlt     Key = 346
	KeyRightSuper   Key = 347
	KeyMenu         Key = 348

	KeyLast = KeyMenu
	// KeyCount is the number of key slots tracked.
	KeyCount = int(KeyLast) + 1
)

var keyNames = map[Key]string{
	KeySpace:        "Space",
	KeyEscape:       "Escape",
	KeyEnter:        "Enter",
	KeyTab:          "Tab",
	KeyBackspace:    "Backspace",
	KeyInsert:       "Insert",
	KeyDelete:       "Delete",
	KeyRight:        "Right",
	KeyLeft:         "Left",
	KeyDown:         "Down",
	KeyUp:           "Up",
	KeyPageUp:       "PageUp",
	KeyPageDown:     "PageDown",
	KeyHome:         "Home",
	KeyEnd:          "End",
	KeyLeftShift:    "LeftShift",
	KeyLeftControl:  "LeftControl",
	KeyLeftAlt:      "LeftAlt",
	KeyLeftSuper:    "LeftSuper",
	KeyRightShift:   "RightShift",
	KeyRightControl: "RightControl",
	KeyRightAlt:     "RightAlt",
	KeyRightSuper:   "RightSuper",
	KeyMenu:         "Menu",
}

// Valid reports whether the key fits in the tracked range.
func (k Key) Valid() bool {
	return k >= 0 && k <= KeyLast
}

// String returns a readable key name.
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	switch {
	case (k >= KeyA && k <= KeyZ) || (k >= Key0 && k <= Key9):
		return string(rune(k))
	case k >= KeyF1 && k <= KeyF25:
		return fmt.Sprintf("F%d", k-KeyF1+1)
	case k >= KeyKP0 && k <= KeyKP9:
		return fmt.Sprintf("KP%d", k-KeyKP0)
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// MouseButton is a mouse button, numbered as in GLFW.
type MouseButton int

// Mouse buttons.
const (
	MouseButton1 MouseButton = iota
	MouseButton2
	MouseButton3
	MouseButton4
	MouseButton5
	MouseButton6
	MouseButton7
	MouseButton8

	MouseButtonLeft   = MouseButton1
	MouseButtonRight  = MouseButton2
	MouseButtonMiddle = MouseButton3

	// MouseButtonCount is the number of button slots tracked.
	MouseButtonCount = int(MouseButton8) + 1
)

// Valid reports whether the button fits in the tracked range.
func (b MouseButton) Valid() bool {
	return b >= 0 && int(b) < MouseButtonCount
}

// Action is what happened to a key or button.
type Action int

// Actions.
const (
	Release Action = iota
	Press
	Repeat
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case Release:
		return "release"
	case Press:
		return "press"
	case Repeat:
		return "repeat"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Mod is a bitmask of held modifier keys.
type Mod int

// Modifiers.
const (
	ModShift Mod = 1 << iota
	ModControl
	ModAlt
	ModSuper
	ModCapsLock
	ModNumLock
)
