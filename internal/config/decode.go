package config

import (
	"fmt"
	"slices"

	"github.com/sahilm/fuzzy"

	"github.com/dshills/nivconf/internal/config/toml"
)

// Report collects non-fatal diagnostics while mapping a document.
type Report struct {
	Warnings []Warning
}

// Warn records a warning.
func (r *Report) Warn(path, format string, args ...any) {
	if r == nil {
		return
	}
	r.Warnings = append(r.Warnings, Warning{Path: path, Message: fmt.Sprintf(format, args...)})
}

// unknownKey records a warning for an unrecognized key with the closest
// known key as suggestion.
func (r *Report) unknownKey(path, key string, known []string) {
	if r == nil {
		return
	}
	r.Warnings = append(r.Warnings, Warning{
		Path:       path,
		Message:    "unknown key preserved",
		Suggestion: suggest(key, known),
	})
}

// keySource implements fuzzy.Source over a list of keys.
type keySource []string

func (s keySource) String(i int) string { return s[i] }
func (s keySource) Len() int            { return len(s) }

// suggest returns the known key closest to key, or "".
func suggest(key string, known []string) string {
	if matches := fuzzy.FindFrom(key, keySource(known)); len(matches) > 0 {
		return matches[0].Str
	}
	// A key with extra characters still contains the known key as a
	// subsequence.
	best, bestScore := "", 0
	for _, k := range known {
		if m := fuzzy.Find(k, []string{key}); len(m) > 0 && (best == "" || m[0].Score > bestScore) {
			best, bestScore = k, m[0].Score
		}
	}
	return best
}

// fieldDecoder reads typed fields out of one table. It keeps the first
// error and records which keys were consumed so the rest can be preserved.
type fieldDecoder struct {
	prefix string
	tbl    *toml.Table
	seen   map[string]bool
	err    error
}

func newFieldDecoder(prefix string, tbl *toml.Table) *fieldDecoder {
	return &fieldDecoder{prefix: prefix, tbl: tbl, seen: make(map[string]bool)}
}

func (d *fieldDecoder) path(key string) string {
	if d.prefix == "" {
		return key
	}
	return d.prefix + "." + key
}

// lookup marks key as known and returns its value if present and no error
// has been recorded yet.
func (d *fieldDecoder) lookup(key string) (toml.Value, bool) {
	d.seen[key] = true
	if d.err != nil {
		return toml.Value{}, false
	}
	return d.tbl.Get(key)
}

func (d *fieldDecoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Bool decodes key into dst when present.
func (d *fieldDecoder) Bool(key string, dst *bool) {
	v, ok := d.lookup(key)
	if !ok {
		return
	}
	b, ok := v.AsBool()
	if !ok {
		d.fail(typeMismatch(d.path(key), "Boolean", v))
		return
	}
	*dst = b
}

// Int decodes key into dst when present.
func (d *fieldDecoder) Int(key string, dst *int) {
	v, ok := d.lookup(key)
	if !ok {
		return
	}
	n, ok := v.AsInteger()
	if !ok {
		d.fail(typeMismatch(d.path(key), "Integer", v))
		return
	}
	*dst = int(n)
}

// String decodes key into dst when present.
func (d *fieldDecoder) String(key string, dst *string) {
	v, ok := d.lookup(key)
	if !ok {
		return
	}
	s, ok := v.AsString()
	if !ok {
		d.fail(typeMismatch(d.path(key), "String", v))
		return
	}
	*dst = s
}

// Strings decodes an array of strings into dst when present.
func (d *fieldDecoder) Strings(key string, dst *[]string) {
	v, ok := d.lookup(key)
	if !ok {
		return
	}
	ss, ok := v.AsStringSlice()
	if !ok {
		d.fail(typeMismatch(d.path(key), "Array of String", v))
		return
	}
	*dst = ss
}

// Table returns the sub-table under key when present.
func (d *fieldDecoder) Table(key string) (*toml.Table, bool) {
	v, ok := d.lookup(key)
	if !ok {
		return nil, false
	}
	t, ok := v.AsTable()
	if !ok {
		d.fail(typeMismatch(d.path(key), "Table", v))
		return nil, false
	}
	return t, true
}

// Err returns the first error recorded.
func (d *fieldDecoder) Err() error {
	return d.err
}

// Extras returns a copy of the entries that were never looked up, warning
// about each one. It returns nil when there are none.
func (d *fieldDecoder) Extras(r *Report) *toml.Table {
	var known []string
	for k := range d.seen {
		known = append(known, k)
	}
	slices.Sort(known)

	var extra *toml.Table
	for k, v := range d.tbl.All() {
		if d.seen[k] {
			continue
		}
		if extra == nil {
			extra = toml.NewTable()
		}
		extra.Set(k, v.Clone())
		r.unknownKey(d.path(k), k, known)
	}
	return extra
}

// mergeExtras copies preserved unknown keys into t without overwriting
// known fields.
func mergeExtras(t, extra *toml.Table) {
	for k, v := range extra.All() {
		if !t.Has(k) {
			t.Set(k, v.Clone())
		}
	}
}
