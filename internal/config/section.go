package config

import "github.com/dshills/nivconf/internal/config/toml"

// Section is one top-level table of the configuration. Each section
// converts itself from and to a value table, so adding a section only means
// adding it to Config.sections.
type Section interface {
	// Name is the top-level key of the section, e.g. "editor".
	Name() string

	// FromTable overlays the entries of t onto the receiver, which already
	// holds defaults. Wrong-typed values are errors; unknown keys are kept
	// and reported to r.
	FromTable(t *toml.Table, r *Report) error

	// ToTable renders the section, including preserved unknown keys.
	ToTable() *toml.Table

	// Validate checks cross-field and range constraints.
	Validate() error
}

// sections is the registration list used by Map, ToTable and Validate.
func (c *Config) sections() []Section {
	return []Section{&c.Editor, &c.UI, &c.Keybindings, &c.Extensions}
}

// SectionNames returns the names of the built-in sections.
func SectionNames() []string {
	var c Config
	names := make([]string, 0, 4)
	for _, s := range c.sections() {
		names = append(names, s.Name())
	}
	return names
}

func isSectionName(name string) bool {
	for _, n := range SectionNames() {
		if n == name {
			return true
		}
	}
	return false
}
