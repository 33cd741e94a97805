package keymap

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Combo parse errors.
var (
	ErrEmptyCombo      = errors.New("empty key combo")
	ErrEmptySegment    = errors.New("empty segment in key combo")
	ErrUnknownModifier = errors.New("unknown modifier")
	ErrUnknownKey      = errors.New("unknown key")
	ErrMultipleKeys    = errors.New("more than one base key")
	ErrMissingKey      = errors.New("missing base key")
)

// Combo is a parsed key trigger: a modifier set plus exactly one base key.
// Combo is comparable and is used directly as a map key.
type Combo struct {
	Mods Modifier
	// Key is either a single character, kept case-sensitive, or a
	// canonical key name such as "Esc" or "F5".
	Key string
}

// String renders c canonically, e.g. "Ctrl+Shift+P".
func (c Combo) String() string {
	if c.Mods == ModNone {
		return c.Key
	}
	return c.Mods.String() + "+" + c.Key
}

// IsZero reports whether c is the zero Combo.
func (c Combo) IsZero() bool {
	return c.Key == "" && c.Mods == ModNone
}

// namedKeys maps lower-case key names and aliases to canonical names.
var namedKeys = map[string]string{
	"escape":     "Esc",
	"esc":        "Esc",
	"enter":      "Enter",
	"return":     "Enter",
	"tab":        "Tab",
	"backspace":  "Backspace",
	"delete":     "Delete",
	"del":        "Delete",
	"insert":     "Insert",
	"ins":        "Insert",
	"home":       "Home",
	"end":        "End",
	"pageup":     "PageUp",
	"pgup":       "PageUp",
	"pagedown":   "PageDown",
	"pgdown":     "PageDown",
	"up":         "Up",
	"uparrow":    "Up",
	"down":       "Down",
	"downarrow":  "Down",
	"left":       "Left",
	"leftarrow":  "Left",
	"right":      "Right",
	"rightarrow": "Right",
	"space":      "Space",
}

func init() {
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("F%d", i)
		namedKeys[strings.ToLower(name)] = name
	}
}

// canonicalKey resolves a base key token. Single characters are returned
// unchanged; names are matched case-insensitively.
func canonicalKey(tok string) (string, bool) {
	if utf8.RuneCountInString(tok) == 1 {
		return tok, true
	}
	name, ok := namedKeys[strings.ToLower(tok)]
	return name, ok
}

// ParseCombo parses strings such as "Ctrl+S", "shift+ctrl+p", "F5", "g" or
// "Ctrl++". Modifier names are case-insensitive and may appear in any
// order; the base key is case-sensitive when it is a single character.
func ParseCombo(s string) (Combo, error) {
	spec := strings.TrimSpace(s)
	if spec == "" {
		return Combo{}, ErrEmptyCombo
	}

	var parts []string
	switch {
	case spec == "+":
		parts = []string{"+"}
	case strings.HasSuffix(spec, "++"):
		parts = append(strings.Split(spec[:len(spec)-2], "+"), "+")
	default:
		parts = strings.Split(spec, "+")
	}

	var c Combo
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return Combo{}, fmt.Errorf("%w: %q", ErrEmptySegment, s)
		}
		if i < len(parts)-1 {
			if mod, ok := ModifierFromName(part); ok {
				c.Mods = c.Mods.With(mod)
				continue
			}
			if _, isKey := canonicalKey(part); isKey {
				return Combo{}, fmt.Errorf("%w in %q: %q", ErrMultipleKeys, s, part)
			}
			return Combo{}, fmt.Errorf("%w %q in %q", ErrUnknownModifier, part, s)
		}
		key, ok := canonicalKey(part)
		if !ok {
			if _, isMod := ModifierFromName(part); isMod {
				return Combo{}, fmt.Errorf("%w in %q", ErrMissingKey, s)
			}
			return Combo{}, fmt.Errorf("%w %q in %q", ErrUnknownKey, part, s)
		}
		c.Key = key
	}
	return c, nil
}

// MustParseCombo is ParseCombo for literals known to be valid.
func MustParseCombo(s string) Combo {
	c, err := ParseCombo(s)
	if err != nil {
		panic(err)
	}
	return c
}
