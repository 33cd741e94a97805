package toml

import (
	"errors"
	"iter"
	"slices"
	"strings"
)

// ErrNotTable is returned by SetPath when an intermediate key holds a
// non-table value.
var ErrNotTable = errors.New("path element is not a table")

// Table is an insertion-ordered mapping from string keys to values.
// Keys are unique within one table.
//
// A Table is not safe for concurrent mutation. Trees handed out by the
// loader are treated as read-only by convention.
type Table struct {
	keys    []string
	entries map[string]Value
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Value)}
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the keys in insertion order.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.keys)
}

// Has reports whether key is present.
func (t *Table) Has(key string) bool {
	if t == nil {
		return false
	}
	_, ok := t.entries[key]
	return ok
}

// Get returns the value stored under key.
func (t *Table) Get(key string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	v, ok := t.entries[key]
	return v, ok
}

// Set stores v under key. Replacing an existing key keeps its position.
func (t *Table) Set(key string, v Value) {
	if t.entries == nil {
		t.entries = make(map[string]Value)
	}
	if _, exists := t.entries[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.entries[key] = v
}

// Delete removes key. It returns true if the key was present.
func (t *Table) Delete(key string) bool {
	if t == nil {
		return false
	}
	if _, ok := t.entries[key]; !ok {
		return false
	}
	delete(t.entries, key)
	if i := slices.Index(t.keys, key); i >= 0 {
		t.keys = slices.Delete(t.keys, i, i+1)
	}
	return true
}

// All iterates over the entries in insertion order.
func (t *Table) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if t == nil {
			return
		}
		for _, k := range t.keys {
			if !yield(k, t.entries[k]) {
				return
			}
		}
	}
}

// Lookup follows path through nested tables.
func (t *Table) Lookup(path ...string) (Value, bool) {
	if len(path) == 0 {
		return Value{}, false
	}
	cur := t
	for i, part := range path {
		v, ok := cur.Get(part)
		if !ok {
			return Value{}, false
		}
		if i == len(path)-1 {
			return v, true
		}
		if cur, ok = v.AsTable(); !ok {
			return Value{}, false
		}
	}
	return Value{}, false
}

// LookupDotted is Lookup with a dot-separated path such as "editor.tab_width".
func (t *Table) LookupDotted(path string) (Value, bool) {
	if path == "" {
		return Value{}, false
	}
	return t.Lookup(strings.Split(path, ".")...)
}

// SetPath stores v at path, creating intermediate tables as needed.
// It fails with ErrNotTable if an intermediate key holds another kind.
func (t *Table) SetPath(path []string, v Value) error {
	if len(path) == 0 {
		return errors.New("empty path")
	}
	cur := t
	for _, part := range path[:len(path)-1] {
		next, ok := cur.Get(part)
		if !ok {
			nt := NewTable()
			cur.Set(part, TableValue(nt))
			cur = nt
			continue
		}
		nt, ok := next.AsTable()
		if !ok {
			return ErrNotTable
		}
		cur = nt
	}
	cur.Set(path[len(path)-1], v)
	return nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		keys:    slices.Clone(t.keys),
		entries: make(map[string]Value, len(t.entries)),
	}
	for k, v := range t.entries {
		out.entries[k] = v.Clone()
	}
	return out
}

// Equal reports whether t and o hold the same keys with equal values,
// ignoring key order. A nil table equals an empty one.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	for k, v := range t.All() {
		ov, ok := o.Get(k)
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

// Interface converts t to a map of plain Go values.
func (t *Table) Interface() map[string]any {
	out := make(map[string]any, t.Len())
	for k, v := range t.All() {
		out[k] = v.Interface()
	}
	return out
}
