//go:build darwin

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
		out = append(out, hotkey.ModOption)
	}
	if mods&keys.ModWin != 0 {
		out = append(out, hotkey.ModCmd)
	}
	return out
}
