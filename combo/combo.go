// Package combo parses textual hotkey combinations like "control+alt+h" into
// a normalized modifier set and virtual-key code.
package combo

import (
	"errors"
	"fmt"
	"strings"

	"winhotkeys/keys"
)

// ErrEmpty is returned for an empty combination string.
var ErrEmpty = errors.New("empty hotkey combination")

// UnknownModifierError reports a modifier token that matched no synonym.
type UnknownModifierError struct {
	Token string
}

func (e *UnknownModifierError) Error() string {
	return fmt.Sprintf("unknown modifier key: %q", e.Token)
}

// UnknownKeyError reports a main-key token that resolved to no key code.
type UnknownKeyError struct {
	Token string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown key: %q", e.Token)
}

// Combo is a parsed hotkey combination. Immutable once returned by Parse.
type Combo struct {
	Raw  string
	Mods keys.Modifiers
	Key  keys.Code
}

// String returns the original combination text.
func (c Combo) String() string { return c.Raw }

// Parse splits spec on '+', resolves all but the last token as modifiers and
// the last as the main key. Tokens are trimmed and case-insensitive; duplicate
// modifiers are idempotent. ModNoRepeat is always set on the result so the OS
// does not fire the callback on every key-repeat tick.
//
// Single-character main keys are resolved against the live keyboard layout
// where available; the result is not refreshed if the layout changes later.
func Parse(spec string) (Combo, error) {
	if strings.TrimSpace(spec) == "" {
		return Combo{}, ErrEmpty
	}

	tokens := strings.Split(strings.ToLower(spec), "+")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}

	main := tokens[len(tokens)-1]
	mods := keys.ModNoRepeat
	for _, tok := range tokens[:len(tokens)-1] {
		m, ok := keys.ModifierFromName(tok)
		if !ok {
			return Combo{}, &UnknownModifierError{Token: tok}
		}
		mods |= m
	}

	code, err := resolveMain(main)
	if err != nil {
		return Combo{}, err
	}

	return Combo{Raw: spec, Mods: mods, Key: code}, nil
}

func resolveMain(tok string) (keys.Code, error) {
	// A modifier synonym cannot be the main key.
	if tok == "" || keys.IsModifierName(tok) {
		return 0, &UnknownKeyError{Token: tok}
	}
	if c, ok := keys.Named(tok); ok {
		return c, nil
	}
	if r := []rune(tok); len(r) == 1 {
		if c, ok := keys.FromChar(r[0]); ok {
			return c, nil
		}
	}
	return 0, &UnknownKeyError{Token: tok}
}
