package keymap

import "strings"

// Modifier is a set of keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key.
	ModAlt

	// ModMeta indicates the platform key: Super, Win or Cmd.
	ModMeta
)

// Has reports whether every modifier in mod is set.
func (m Modifier) Has(mod Modifier) bool {
	return mod != ModNone && m&mod == mod
}

// With returns m with mod added.
func (m Modifier) With(mod Modifier) Modifier { return m | mod }

// Without returns m with mod removed.
func (m Modifier) Without(mod Modifier) Modifier { return m &^ mod }

// canonical is the order modifiers are written in.
var canonical = [...]struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "Ctrl"},
	{ModAlt, "Alt"},
	{ModShift, "Shift"},
	{ModMeta, "Meta"},
}

// String returns the set in canonical order joined by "+", e.g.
// "Ctrl+Shift". The empty set is "".
func (m Modifier) String() string {
	var sb strings.Builder
	for _, c := range canonical {
		if !m.Has(c.mod) {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('+')
		}
		sb.WriteString(c.name)
	}
	return sb.String()
}

var aliases = map[string]Modifier{
	"control": ModCtrl,
	"super":   ModMeta,
	"win":     ModMeta,
	"cmd":     ModMeta,
}

// ModifierFromName returns the modifier for a spelling such as "Control"
// or "cmd". Matching is case-insensitive.
func ModifierFromName(name string) (Modifier, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range canonical {
		if strings.ToLower(c.name) == name {
			return c.mod, true
		}
	}
	m, ok := aliases[name]
	return m, ok
}
