package config

import (
	"github.com/dshills/nivconf/internal/config/toml"
)

// Map converts a parsed document into a Config. Absent keys take their
// defaults, a nil document yields Default(). A key holding the wrong type
// fails the whole mapping; unknown keys are preserved and returned as
// warnings. Unknown top-level entries go to Config.Custom.
func Map(doc *toml.Document) (*Config, []Warning, error) {
	if doc == nil {
		return Default(), nil, nil
	}
	return MapTable(doc.Root)
}

// MapTable is Map over a bare root table.
func MapTable(root *toml.Table) (*Config, []Warning, error) {
	c := Default()
	var r Report
	for _, s := range c.sections() {
		v, ok := root.Get(s.Name())
		if !ok {
			continue
		}
		t, ok := v.AsTable()
		if !ok {
			return nil, r.Warnings, typeMismatch(s.Name(), "Table", v)
		}
		if err := s.FromTable(t, &r); err != nil {
			return nil, r.Warnings, err
		}
	}
	for k, v := range root.All() {
		if !isSectionName(k) {
			c.Custom.Set(k, v.Clone())
		}
	}
	if err := c.Validate(); err != nil {
		return nil, r.Warnings, err
	}
	return c, r.Warnings, nil
}

// Parse parses configuration text and maps it.
func Parse(data []byte) (*Config, []Warning, error) {
	doc, err := toml.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return Map(doc)
}
