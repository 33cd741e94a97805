package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dshills/nivconf/internal/config/toml"
)

// Extension update policies.
const (
	UpdateNever  = "never"
	UpdateStable = "stable"
	UpdateLatest = "latest"
	UpdatePrompt = "prompt"
)

var updatePolicies = []string{UpdateNever, UpdateStable, UpdateLatest, UpdatePrompt}

// ExtensionDescriptor declares one extension. The core never interprets
// Settings; it is handed to the extension runtime as-is.
type ExtensionDescriptor struct {
	Name string
	// Enabled defaults to true when the descriptor exists.
	Enabled bool
	// Version is a version requirement string.
	Version    string
	Path       string
	Repository string
	Settings   *toml.Table

	Extra *toml.Table
}

// ExtensionSettings holds extension manager options and the declared
// extensions. Every table-valued key of [extensions] is a descriptor;
// a boolean key is shorthand for a descriptor with only enabled set.
type ExtensionSettings struct {
	Directories    []string
	AutoLoad       bool
	AllowNetwork   bool
	TrustedSources []string
	UpdatePolicy   string
	Extensions     map[string]ExtensionDescriptor

	Extra *toml.Table
}

// DefaultExtensionSettings returns the built-in extension defaults.
func DefaultExtensionSettings() ExtensionSettings {
	return ExtensionSettings{
		Directories: []string{
			"~/.niv/extensions",
			"~/.local/share/niv/extensions",
			"/usr/local/share/niv/extensions",
		},
		AutoLoad:       true,
		AllowNetwork:   true,
		TrustedSources: []string{"https://github.com/niv-editor/extensions"},
		UpdatePolicy:   UpdateStable,
		Extensions:     map[string]ExtensionDescriptor{},
	}
}

var extensionManagerKeys = []string{"directories", "auto_load", "allow_network", "trusted_sources", "update_policy"}

// Name implements Section.
func (s *ExtensionSettings) Name() string { return "extensions" }

// FromTable implements Section.
func (s *ExtensionSettings) FromTable(t *toml.Table, r *Report) error {
	d := newFieldDecoder(s.Name(), t)
	d.Strings("directories", &s.Directories)
	d.Bool("auto_load", &s.AutoLoad)
	d.Bool("allow_network", &s.AllowNetwork)
	d.Strings("trusted_sources", &s.TrustedSources)
	d.String("update_policy", &s.UpdatePolicy)
	if err := d.Err(); err != nil {
		return err
	}
	if !slices.Contains(updatePolicies, s.UpdatePolicy) {
		return invalidPolicy(s.UpdatePolicy)
	}
	if s.Extensions == nil {
		s.Extensions = map[string]ExtensionDescriptor{}
	}

	for name, v := range t.All() {
		if slices.Contains(extensionManagerKeys, name) {
			continue
		}
		switch v.Kind() {
		case toml.KindBoolean:
			enabled, _ := v.AsBool()
			desc := s.Extensions[name]
			desc.Name = name
			desc.Enabled = enabled
			s.Extensions[name] = desc
			d.seen[name] = true
		case toml.KindTable:
			tbl, _ := v.AsTable()
			desc, err := decodeExtension(name, tbl, r)
			if err != nil {
				return err
			}
			s.Extensions[name] = desc
			d.seen[name] = true
		}
	}
	s.Extra = d.Extras(r)
	return nil
}

func decodeExtension(name string, t *toml.Table, r *Report) (ExtensionDescriptor, error) {
	desc := ExtensionDescriptor{Name: name, Enabled: true}
	d := newFieldDecoder("extensions."+name, t)
	d.Bool("enabled", &desc.Enabled)
	d.String("version", &desc.Version)
	d.String("path", &desc.Path)
	d.String("repository", &desc.Repository)
	if settings, ok := d.Table("settings"); ok {
		desc.Settings = settings.Clone()
	}
	if err := d.Err(); err != nil {
		return ExtensionDescriptor{}, err
	}
	desc.Extra = d.Extras(r)
	return desc, nil
}

// ToTable implements Section. Descriptors are written in name order.
func (s *ExtensionSettings) ToTable() *toml.Table {
	t := toml.NewTable()
	t.Set("directories", toml.StringArray(s.Directories...))
	t.Set("auto_load", toml.Bool(s.AutoLoad))
	t.Set("allow_network", toml.Bool(s.AllowNetwork))
	t.Set("trusted_sources", toml.StringArray(s.TrustedSources...))
	t.Set("update_policy", toml.String(s.UpdatePolicy))

	for _, name := range slices.Sorted(maps.Keys(s.Extensions)) {
		desc := s.Extensions[name]
		et := toml.NewTable()
		et.Set("enabled", toml.Bool(desc.Enabled))
		if desc.Version != "" {
			et.Set("version", toml.String(desc.Version))
		}
		if desc.Path != "" {
			et.Set("path", toml.String(desc.Path))
		}
		if desc.Repository != "" {
			et.Set("repository", toml.String(desc.Repository))
		}
		if desc.Settings != nil {
			et.Set("settings", toml.TableValue(desc.Settings.Clone()))
		}
		mergeExtras(et, desc.Extra)
		t.Set(name, toml.TableValue(et))
	}
	mergeExtras(t, s.Extra)
	return t
}

// Validate implements Section.
func (s *ExtensionSettings) Validate() error {
	if !slices.Contains(updatePolicies, s.UpdatePolicy) {
		return invalidPolicy(s.UpdatePolicy)
	}
	for name := range s.Extensions {
		if slices.Contains(extensionManagerKeys, name) {
			return &ValidationError{
				Path:    "extensions." + name,
				Message: fmt.Sprintf("extension name %q collides with a manager setting", name),
				Code:    ErrCodeReservedKey,
			}
		}
	}
	return nil
}

func invalidPolicy(p string) *ValidationError {
	return &ValidationError{
		Path:    "extensions.update_policy",
		Message: fmt.Sprintf("%q is not one of %s", p, strings.Join(updatePolicies, ", ")),
		Code:    ErrCodeInvalidEnum,
	}
}

// Extension returns the descriptor for name.
func (s *ExtensionSettings) Extension(name string) (ExtensionDescriptor, bool) {
	d, ok := s.Extensions[name]
	return d, ok
}

// EnabledExtensions returns the names of enabled extensions in sorted order.
func (s *ExtensionSettings) EnabledExtensions() []string {
	var names []string
	for name, d := range s.Extensions {
		if d.Enabled {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Enable marks name enabled, declaring it if needed.
func (s *ExtensionSettings) Enable(name string) {
	s.setEnabled(name, true)
}

// Disable marks name disabled, declaring it if needed.
func (s *ExtensionSettings) Disable(name string) {
	s.setEnabled(name, false)
}

func (s *ExtensionSettings) setEnabled(name string, enabled bool) {
	if s.Extensions == nil {
		s.Extensions = map[string]ExtensionDescriptor{}
	}
	d := s.Extensions[name]
	d.Name = name
	d.Enabled = enabled
	s.Extensions[name] = d
}

func (s ExtensionSettings) clone() ExtensionSettings {
	out := s
	out.Directories = slices.Clone(s.Directories)
	out.TrustedSources = slices.Clone(s.TrustedSources)
	out.Extensions = make(map[string]ExtensionDescriptor, len(s.Extensions))
	for name, d := range s.Extensions {
		d.Settings = d.Settings.Clone()
		d.Extra = d.Extra.Clone()
		out.Extensions[name] = d
	}
	out.Extra = s.Extra.Clone()
	return out
}
