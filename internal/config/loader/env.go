package loader

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/dshills/nivconf/internal/config"
	"github.com/dshills/nivconf/internal/config/toml"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "NIV_"

// EnvLoader loads configuration overrides from environment variables.
//
// A variable named NIV_EDITOR__TAB_WIDTH sets editor.tab_width: after the
// prefix, a double underscore separates path segments and names are
// lowercased. Values are read as TOML values ("4", "true", "[1, 2]",
// "{ a = 1 }") and fall back to a plain string.
type EnvLoader struct {
	prefix  string
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates an environment loader for prefix, which should
// include the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(),
		environ: os.Environ,
	}
}

// NewEnvLoaderFrom is NewEnvLoader over a fixed environment, in the
// "KEY=value" form of os.Environ.
func NewEnvLoaderFrom(prefix string, environ []string) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.environ = func() []string { return environ }
	return l
}

// defaultEnvMapping returns shortcuts for commonly overridden settings.
func defaultEnvMapping() map[string]string {
	return map[string]string{
		"NIV_THEME":      "ui.color_scheme",
		"NIV_FONT_SIZE":  "ui.font_size",
		"NIV_TAB_WIDTH":  "editor.tab_width",
		"NIV_EXPAND_TAB": "editor.expand_tab",
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// RemoveMapping removes an environment variable mapping.
func (l *EnvLoader) RemoveMapping(envVar string) {
	delete(l.mapping, envVar)
}

// Load returns the overrides as a value tree. Variables are applied in name
// order, mapped shortcuts first. A variable whose path collides with a
// scalar set by another is an error.
func (l *EnvLoader) Load() (*toml.Table, error) {
	vars := make(map[string]string)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(name, l.prefix) {
			vars[name] = value
		}
	}

	out := toml.NewTable()
	for _, name := range slices.Sorted(maps.Keys(l.mapping)) {
		value, ok := vars[name]
		if !ok {
			continue
		}
		if err := setPath(out, strings.Split(l.mapping[name], "."), parseValue(value)); err != nil {
			return nil, &config.Error{Kind: config.KindValidation, File: name, Err: err}
		}
	}
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		if _, mapped := l.mapping[name]; mapped {
			continue
		}
		path, ok := l.envToPath(name)
		if !ok {
			continue
		}
		if err := setPath(out, path, parseValue(vars[name])); err != nil {
			return nil, &config.Error{Kind: config.KindValidation, File: name, Err: err}
		}
	}
	return out, nil
}

// envToPath converts NIV_UI__SPLITS__BORDER_STYLE to
// [ui splits border_style]. Names without a section separator are not
// overrides.
func (l *EnvLoader) envToPath(env string) ([]string, bool) {
	name := strings.TrimPrefix(env, l.prefix)
	if !strings.Contains(name, "__") {
		return nil, false
	}
	parts := strings.Split(strings.ToLower(name), "__")
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return parts, true
}

// parseValue reads s as a TOML value, or keeps it as a string. The float
// words nan and inf stay strings: a number from the environment must
// contain a digit.
func parseValue(s string) toml.Value {
	v, err := toml.ParseValue(s)
	if err != nil {
		return toml.String(s)
	}
	if v.Kind() == toml.KindFloat && !strings.ContainsAny(s, "0123456789") {
		return toml.String(s)
	}
	return v
}

func setPath(t *toml.Table, path []string, v toml.Value) error {
	if err := t.SetPath(path, v); err != nil {
		return fmt.Errorf("%w: %s: %w", config.ErrInvalidPath, strings.Join(path, "."), err)
	}
	return nil
}
