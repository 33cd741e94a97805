package config

import (
	"fmt"

	"github.com/dshills/nivconf/internal/config/keymap"
	"github.com/dshills/nivconf/internal/config/toml"
)

// KeybindingSettings maps modes to combo bindings. User tables extend and
// override the built-in defaults per mode.
type KeybindingSettings struct {
	Keymap keymap.Keymap
}

// DefaultKeybindingSettings returns the built-in vim-like bindings.
func DefaultKeybindingSettings() KeybindingSettings {
	return KeybindingSettings{Keymap: keymap.Defaults()}
}

// Name implements Section.
func (s *KeybindingSettings) Name() string { return "keybindings" }

// FromTable implements Section. Every entry of t is a mode whose value is a
// table of combo strings to action names.
func (s *KeybindingSettings) FromTable(t *toml.Table, r *Report) error {
	if s.Keymap == nil {
		s.Keymap = keymap.Defaults()
	}
	for mode, v := range t.All() {
		modePath := "keybindings." + mode
		bindings, ok := v.AsTable()
		if !ok {
			return typeMismatch(modePath, "Table", v)
		}
		written := make(map[keymap.Combo]string)
		for spec, av := range bindings.All() {
			path := modePath + "." + spec
			name, ok := av.AsString()
			if !ok {
				return typeMismatch(path, "String", av)
			}
			combo, err := keymap.ParseCombo(spec)
			if err != nil {
				return &ValidationError{
					Path:    path,
					Message: fmt.Sprintf("invalid key combo %q in mode %q", spec, mode),
					Code:    ErrCodeInvalidCombo,
					Err:     err,
				}
			}
			action, err := keymap.ParseAction(name)
			if err != nil {
				return &ValidationError{
					Path:    path,
					Message: fmt.Sprintf("unknown action %q", name),
					Code:    ErrCodeInvalidAction,
					Err:     err,
				}
			}
			if prev, dup := written[combo]; dup {
				r.Warn(path, "%q and %q are the same combo; the later binding wins", prev, spec)
			}
			written[combo] = spec
			s.Keymap.Bind(mode, combo, action)
		}
	}
	return nil
}

// ToTable implements Section. Modes and combos are written in sorted order
// using canonical combo spellings.
func (s *KeybindingSettings) ToTable() *toml.Table {
	t := toml.NewTable()
	for _, mode := range s.Keymap.Modes() {
		mt := toml.NewTable()
		for _, b := range s.Keymap[mode].Sorted() {
			mt.Set(b.Combo.String(), toml.String(b.Action.String()))
		}
		t.Set(mode, toml.TableValue(mt))
	}
	return t
}

// Validate implements Section.
func (s *KeybindingSettings) Validate() error {
	for _, mode := range s.Keymap.Modes() {
		for _, b := range s.Keymap[mode].Sorted() {
			if _, err := keymap.ParseAction(b.Action.String()); err != nil {
				return &ValidationError{
					Path:    "keybindings." + mode + "." + b.Combo.String(),
					Message: fmt.Sprintf("unknown action %q", b.Action),
					Code:    ErrCodeInvalidAction,
					Err:     err,
				}
			}
		}
	}
	return nil
}
