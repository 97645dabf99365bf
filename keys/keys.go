// Package keys defines the modifier bitset and virtual-key code types shared
// by the combination parser and the OS registration layer. Codes use the
// Windows virtual-key namespace as the canonical representation; non-Windows
// backends translate at the registration boundary.
package keys

// Modifiers is a bitset of modifier keys. The bit values match the Win32
// MOD_* constants so the Windows backend passes them through unchanged.
type Modifiers uint16

const (
	ModAlt   Modifiers = 0x0001
	ModCtrl  Modifiers = 0x0002
	ModShift Modifiers = 0x0004
	ModWin   Modifiers = 0x0008

	// ModNoRepeat suppresses repeated match events while the combination is
	// held down. It is applied to every registration, never user-visible.
	ModNoRepeat Modifiers = 0x4000
)

// Code is a virtual-key code.
type Code uint16

// ModifierFromName resolves a lowercase modifier token to its bit.
func ModifierFromName(name string) (Modifiers, bool) {
	switch name {
	case "control", "ctrl":
		return ModCtrl, true
	case "alt":
		return ModAlt, true
	case "shift":
		return ModShift, true
	case "win", "windows":
		return ModWin, true
	}
	return 0, false
}

// IsModifierName reports whether name is a recognized modifier synonym.
func IsModifierName(name string) bool {
	_, ok := ModifierFromName(name)
	return ok
}

var named = map[string]Code{
	"enter":       0x0D,
	"return":      0x0D,
	"space":       0x20,
	"tab":         0x09,
	"escape":      0x1B,
	"esc":         0x1B,
	"backspace":   0x08,
	"delete":      0x2E,
	"del":         0x2E,
	"insert":      0x2D,
	"ins":         0x2D,
	"home":        0x24,
	"end":         0x23,
	"pageup":      0x21,
	"pgup":        0x21,
	"pagedown":    0x22,
	"pgdn":        0x22,
	"left":        0x25,
	"up":          0x26,
	"right":       0x27,
	"down":        0x28,
	"printscreen": 0x2C,
	"pause":       0x13,
	"capslock":    0x14,
	"numlock":     0x90,
	"scrolllock":  0x91,

	"f1": 0x70, "f2": 0x71, "f3": 0x72, "f4": 0x73,
	"f5": 0x74, "f6": 0x75, "f7": 0x76, "f8": 0x77,
	"f9": 0x78, "f10": 0x79, "f11": 0x7A, "f12": 0x7B,
	"f13": 0x7C, "f14": 0x7D, "f15": 0x7E, "f16": 0x7F,
	"f17": 0x80, "f18": 0x81, "f19": 0x82, "f20": 0x83,
	"f21": 0x84, "f22": 0x85, "f23": 0x86, "f24": 0x87,
}

// Named resolves a lowercase key name (e.g. "enter", "f5", "left") from the
// static table.
func Named(name string) (Code, bool) {
	c, ok := named[name]
	return c, ok
}

// FromChar resolves a single character against the current keyboard layout
// where the platform supports a live query, falling back to fixed code points
// for letters and digits. The layout query reflects the layout active at call
// time; a layout switch between parse and registration is not re-resolved.
func FromChar(r rune) (Code, bool) {
	if c, ok := layoutQuery(r); ok {
		return c, true
	}
	return fixedFromChar(r)
}

// fixedFromChar maps letters and digits to their layout-independent codes.
func fixedFromChar(r rune) (Code, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return Code(r - 'a' + 'A'), true
	case r >= 'A' && r <= 'Z':
		return Code(r), true
	case r >= '0' && r <= '9':
		return Code(r), true
	}
	return 0, false
}
