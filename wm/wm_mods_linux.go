//go:build linux

package wm

import (
	"golang.design/x/hotkey"

	"winhotkeys/keys"
)

func translateMods(mods keys.Modifiers) []hotkey.Modifier {
	var out []hotkey.Modifier
	if mods&keys.ModCtrl != 0 {
		out = append(out, hotkey.ModCtrl)
	}
	if mods&keys.ModShift != 0 {
		out = append(out, hotkey.ModShift)
	}
	if mods&keys.ModAlt != 0 {
		// Alt is Mod1 on X11.
		out = append(out, hotkey.Mod1)
	}
	if mods&keys.ModWin != 0 {
		// Super/Win is Mod4 on X11.
		out = append(out, hotkey.Mod4)
	}
	return out
}
