package keymap

import (
	"cmp"
	"maps"
	"slices"
)

// Well-known mode names. Any other mode name is accepted and carried as-is.
const (
	ModeNormal  = "normal"
	ModeInsert  = "insert"
	ModeVisual  = "visual"
	ModeCommand = "command"
	// ModeGlobal bindings apply in every mode unless the mode overrides
	// the combo.
	ModeGlobal = "global"
)

// Bindings maps combos to actions within one mode.
type Bindings map[Combo]Action

// Binding is one entry of a Bindings map, used for ordered iteration.
type Binding struct {
	Combo  Combo
	Action Action
}

// Sorted returns the bindings ordered by their canonical combo spelling.
func (b Bindings) Sorted() []Binding {
	out := make([]Binding, 0, len(b))
	for c, a := range b {
		out = append(out, Binding{Combo: c, Action: a})
	}
	slices.SortFunc(out, func(x, y Binding) int {
		return cmp.Compare(x.Combo.String(), y.Combo.String())
	})
	return out
}

// Keymap maps mode names to their bindings.
type Keymap map[string]Bindings

// Bind sets the action for c in mode, replacing any previous binding.
func (k Keymap) Bind(mode string, c Combo, a Action) {
	b, ok := k[mode]
	if !ok {
		b = make(Bindings)
		k[mode] = b
	}
	b[c] = a
}

// Unbind removes c from mode and reports whether it was bound.
func (k Keymap) Unbind(mode string, c Combo) bool {
	b, ok := k[mode]
	if !ok {
		return false
	}
	if _, ok := b[c]; !ok {
		return false
	}
	delete(b, c)
	return true
}

// Lookup resolves c in mode, falling back to the global bindings.
func (k Keymap) Lookup(mode string, c Combo) (Action, bool) {
	if a, ok := k[mode][c]; ok {
		return a, true
	}
	a, ok := k[ModeGlobal][c]
	return a, ok
}

// Modes returns the mode names in sorted order.
func (k Keymap) Modes() []string {
	return slices.Sorted(maps.Keys(k))
}

// Clone returns a deep copy of k.
func (k Keymap) Clone() Keymap {
	out := make(Keymap, len(k))
	for mode, b := range k {
		out[mode] = maps.Clone(b)
	}
	return out
}

// Equal reports whether k and o hold the same bindings. Empty modes are
// ignored.
func (k Keymap) Equal(o Keymap) bool {
	for mode, b := range k {
		if !maps.Equal(b, o[mode]) {
			return false
		}
	}
	for mode, b := range o {
		if !maps.Equal(b, k[mode]) {
			return false
		}
	}
	return true
}

// Defaults returns the built-in vim-like bindings.
func Defaults() Keymap {
	k := Keymap{
		ModeNormal:  {},
		ModeInsert:  {},
		ModeVisual:  {},
		ModeCommand: {},
		ModeGlobal:  {},
	}
	for _, d := range defaultBindings {
		k.Bind(d.mode, MustParseCombo(d.combo), d.action)
	}
	return k
}

var defaultBindings = []struct {
	mode   string
	combo  string
	action Action
}{
	{ModeNormal, "h", MoveLeft},
	{ModeNormal, "j", MoveDown},
	{ModeNormal, "k", MoveUp},
	{ModeNormal, "l", MoveRight},
	{ModeNormal, "0", MoveLineStart},
	{ModeNormal, "$", MoveLineEnd},
	{ModeNormal, "Ctrl+b", MovePageUp},
	{ModeNormal, "Ctrl+f", MovePageDown},
	{ModeNormal, "w", MoveWordNext},
	{ModeNormal, "b", MoveWordPrev},
	{ModeNormal, "i", Insert},
	{ModeNormal, "O", InsertLineAbove},
	{ModeNormal, "o", InsertLineBelow},
	{ModeNormal, "x", Delete},
	{ModeNormal, "d", DeleteLine},
	{ModeNormal, "u", Undo},
	{ModeNormal, "Ctrl+r", Redo},
	{ModeNormal, "/", Search},
	{ModeNormal, "n", SearchNext},
	{ModeNormal, "N", SearchPrev},
	{ModeNormal, "Ctrl+s", Save},
	{ModeNormal, ":", CommandMode},
	{ModeNormal, "v", VisualMode},
	{ModeNormal, "Esc", NormalMode},

	{ModeGlobal, "Ctrl+c", Quit},
	{ModeGlobal, "Ctrl+q", ForceQuit},

	{ModeInsert, "Esc", NormalMode},
	{ModeInsert, "Ctrl+c", NormalMode},

	{ModeVisual, "y", Copy},
	{ModeVisual, "d", Cut},
	{ModeVisual, "Esc", NormalMode},
}
