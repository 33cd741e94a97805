package config

import (
	"errors"

	"github.com/dshills/nivconf/internal/config/keymap"
	"github.com/dshills/nivconf/internal/config/toml"
)

// Builder assembles a Config in memory. Sections that are never touched
// keep their defaults. Nothing is read from or written to disk.
//
//	cfg, err := config.NewBuilder().
//	    Editor(func(e *config.EditorSettings) { e.TabWidth = 2 }).
//	    Custom("theme.accent", toml.String("#FF8800")).
//	    Build()
type Builder struct {
	cfg  *Config
	errs []error
}

// NewBuilder starts from the built-in defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: Default()}
}

// From starts from a copy of base.
func From(base *Config) *Builder {
	return &Builder{cfg: base.Clone()}
}

// Editor applies fn to the editor section.
func (b *Builder) Editor(fn func(*EditorSettings)) *Builder {
	fn(&b.cfg.Editor)
	return b
}

// UI applies fn to the ui section.
func (b *Builder) UI(fn func(*UISettings)) *Builder {
	fn(&b.cfg.UI)
	return b
}

// Keybindings applies fn to the keymap.
func (b *Builder) Keybindings(fn func(keymap.Keymap)) *Builder {
	fn(b.cfg.Keybindings.Keymap)
	return b
}

// Bind parses combo and action and binds them in mode. Parse failures are
// reported by Build.
func (b *Builder) Bind(mode, combo, action string) *Builder {
	c, err := keymap.ParseCombo(combo)
	if err != nil {
		b.errs = append(b.errs, &ValidationError{Path: "keybindings." + mode + "." + combo, Message: err.Error(), Code: ErrCodeInvalidCombo, Err: err})
		return b
	}
	a, err := keymap.ParseAction(action)
	if err != nil {
		b.errs = append(b.errs, &ValidationError{Path: "keybindings." + mode + "." + combo, Message: err.Error(), Code: ErrCodeInvalidAction, Err: err})
		return b
	}
	b.cfg.Keybindings.Keymap.Bind(mode, c, a)
	return b
}

// Extensions applies fn to the extensions section.
func (b *Builder) Extensions(fn func(*ExtensionSettings)) *Builder {
	fn(&b.cfg.Extensions)
	return b
}

// Custom sets a dotted custom key to any value.
func (b *Builder) Custom(path string, v toml.Value) *Builder {
	if err := b.cfg.SetCustom(path, v); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Build validates and returns the Config. The builder may keep being used;
// later changes do not affect configs already built.
func (b *Builder) Build() (*Config, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	return b.cfg.Clone(), nil
}

// Document renders the built config as an in-memory document with no
// origin.
func (b *Builder) Document() (*toml.Document, error) {
	c, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &toml.Document{Root: c.ToTable()}, nil
}
