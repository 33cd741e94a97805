package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/nivconf/internal/config/toml"
)

// Config is the fully defaulted settings aggregate. A Config handed out by
// a loader is a snapshot: treat it as read-only and Clone it before
// changing anything.
type Config struct {
	Editor      EditorSettings
	UI          UISettings
	Keybindings KeybindingSettings
	Extensions  ExtensionSettings

	// Custom carries every unrecognized top-level table or key unchanged.
	Custom *toml.Table
}

// Default returns a Config holding only built-in defaults.
func Default() *Config {
	return &Config{
		Editor:      DefaultEditorSettings(),
		UI:          DefaultUISettings(),
		Keybindings: DefaultKeybindingSettings(),
		Extensions:  DefaultExtensionSettings(),
		Custom:      toml.NewTable(),
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Editor.Extra = c.Editor.Extra.Clone()
	out.UI.Extra = c.UI.Extra.Clone()
	out.UI.Splits.Extra = c.UI.Splits.Extra.Clone()
	out.UI.Colors.Extra = c.UI.Colors.Extra.Clone()
	out.UI.Colors.Syntax.Extra = c.UI.Colors.Syntax.Extra.Clone()
	out.Keybindings.Keymap = c.Keybindings.Keymap.Clone()
	out.Extensions = c.Extensions.clone()
	out.Custom = c.Custom.Clone()
	if out.Custom == nil {
		out.Custom = toml.NewTable()
	}
	return &out
}

// Validate checks every section and the custom table. All failures are
// joined.
func (c *Config) Validate() error {
	var errs []error
	for _, s := range c.sections() {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for k := range c.Custom.All() {
		if isSectionName(k) {
			errs = append(errs, &ValidationError{
				Path:    k,
				Message: "custom key shadows a built-in section",
				Code:    ErrCodeReservedKey,
			})
		}
	}
	return errors.Join(errs...)
}

// ToTable renders c as a value tree: one table per section followed by the
// custom entries.
func (c *Config) ToTable() *toml.Table {
	t := toml.NewTable()
	for _, s := range c.sections() {
		t.Set(s.Name(), toml.TableValue(s.ToTable()))
	}
	for k, v := range c.Custom.All() {
		if !t.Has(k) {
			t.Set(k, v.Clone())
		}
	}
	return t
}

// Marshal renders c as configuration text.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c.ToTable())
}

// Lookup returns the value at a dotted path of the rendered tree, such as
// "ui.splits.border_style" or "custom_key.nested".
func (c *Config) Lookup(path string) (toml.Value, bool) {
	return c.ToTable().LookupDotted(path)
}

// GetCustom returns the custom value at a dotted path.
func (c *Config) GetCustom(path string) (toml.Value, bool) {
	return c.Custom.LookupDotted(path)
}

// SetCustom stores v at a dotted path in the custom table. Paths whose
// first element names a built-in section are rejected.
func (c *Config) SetCustom(path string, v toml.Value) error {
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	if isSectionName(parts[0]) {
		return &ValidationError{Path: path, Message: "custom key shadows a built-in section", Code: ErrCodeReservedKey}
	}
	if c.Custom == nil {
		c.Custom = toml.NewTable()
	}
	if err := c.Custom.SetPath(parts, v); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidPath, path, err)
	}
	return nil
}

// Save writes c to path atomically.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return &Error{Kind: KindValidation, File: path, Err: err}
	}
	return WriteFileAtomic(path, data, 0o644)
}

// WriteFileAtomic writes data to a temporary file in the target directory
// and renames it over path, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Classify(path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return Classify(path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Classify(path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return Classify(path, err)
	}
	if err := tmp.Close(); err != nil {
		return Classify(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return Classify(path, err)
	}
	return nil
}

// Equal reports whether a and b render to the same value tree.
func Equal(a, b *Config) bool {
	return a.ToTable().Equal(b.ToTable())
}

// String renders c as text, or the error message if rendering fails.
func (c *Config) String() string {
	data, err := c.Marshal()
	if err != nil {
		return err.Error()
	}
	return string(bytes.TrimSpace(data))
}
