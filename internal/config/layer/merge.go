package layer

import (
	"maps"
	"slices"
	"strings"

	"github.com/dshills/nivconf/internal/config/toml"
)

// DeepMerge recursively merges src into dst and returns dst.
// Values in src override values in dst. Tables are merged recursively;
// arrays and scalars are replaced wholesale. A nil dst is allocated.
func DeepMerge(dst, src *toml.Table) *toml.Table {
	if dst == nil {
		dst = toml.NewTable()
	}
	for key, srcVal := range src.All() {
		dstVal, exists := dst.Get(key)
		if !exists {
			dst.Set(key, srcVal.Clone())
			continue
		}

		srcTbl, srcIsTbl := srcVal.AsTable()
		dstTbl, dstIsTbl := dstVal.AsTable()
		if srcIsTbl && dstIsTbl {
			dst.Set(key, toml.TableValue(DeepMerge(dstTbl.Clone(), srcTbl)))
		} else {
			dst.Set(key, srcVal.Clone())
		}
	}
	return dst
}

// Flatten returns every leaf of t keyed by dotted path. Arrays are
// leaves; empty tables contribute nothing.
func Flatten(t *toml.Table) map[string]toml.Value {
	out := make(map[string]toml.Value)
	flatten(t, "", out)
	return out
}

func flatten(t *toml.Table, prefix string, out map[string]toml.Value) {
	for key, v := range t.All() {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := v.AsTable(); ok {
			flatten(nested, full, out)
			continue
		}
		out[full] = v
	}
}

// Unflatten rebuilds a tree from dotted paths. Paths are applied in sorted
// order; a path that descends through a scalar fails.
func Unflatten(flat map[string]toml.Value) (*toml.Table, error) {
	out := toml.NewTable()
	for _, path := range slices.Sorted(maps.Keys(flat)) {
		if err := out.SetPath(strings.Split(path, "."), flat[path].Clone()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DeletePath removes the value at a dotted path.
// Returns true if the value was found and deleted.
func DeletePath(t *toml.Table, path string) bool {
	parts := strings.Split(path, ".")
	cur := t
	for _, part := range parts[:len(parts)-1] {
		v, ok := cur.Get(part)
		if !ok {
			return false
		}
		if cur, ok = v.AsTable(); !ok {
			return false
		}
	}
	return cur.Delete(parts[len(parts)-1])
}

// Diff returns the leaf paths that differ between two trees, each list in
// sorted order.
func Diff(old, new *toml.Table) (added, modified, removed []string) {
	oldFlat := Flatten(old)
	newFlat := Flatten(new)

	for path, newVal := range newFlat {
		if oldVal, exists := oldFlat[path]; exists {
			if !toml.Equal(oldVal, newVal) {
				modified = append(modified, path)
			}
		} else {
			added = append(added, path)
		}
	}
	for path := range oldFlat {
		if _, exists := newFlat[path]; !exists {
			removed = append(removed, path)
		}
	}

	slices.Sort(added)
	slices.Sort(modified)
	slices.Sort(removed)
	return added, modified, removed
}
