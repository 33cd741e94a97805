package toml

import (
	"fmt"
	"math"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// KindInvalid is the zero Kind; it marks an absent value.
	KindInvalid Kind = iota
	// KindString is a UTF-8 string.
	KindString
	// KindInteger is a 64-bit signed integer.
	KindInteger
	// KindFloat is a 64-bit float.
	KindFloat
	// KindBoolean is true or false.
	KindBoolean
	// KindDateTime is a calendar timestamp.
	KindDateTime
	// KindArray is an ordered sequence of values.
	KindArray
	// KindTable is an ordered key/value mapping.
	KindTable
)

// String returns the name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindBoolean:
		return "Boolean"
	case KindDateTime:
		return "DateTime"
	case KindArray:
		return "Array"
	case KindTable:
		return "Table"
	default:
		return "Invalid"
	}
}

// Value is a tagged union over the format's data model.
//
// The zero Value is invalid and reports KindInvalid. Values holding arrays
// or tables share their backing storage when copied; use Clone for an
// independent copy.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	bln  bool
	dt   DateTime
	arr  []Value
	tbl  *Table
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Integer returns an integer value.
func Integer(n int64) Value { return Value{kind: KindInteger, num: n} }

// Float returns a float value.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, bln: b} }

// DateTimeValue returns a date-time value.
func DateTimeValue(dt DateTime) Value { return Value{kind: KindDateTime, dt: dt} }

// Time returns an offset date-time value for t.
func Time(t time.Time) Value { return DateTimeValue(NewDateTime(t)) }

// Array returns an array value holding elems.
// The slice is not copied.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindArray, arr: elems}
}

// StringArray is a convenience for an array of strings.
func StringArray(elems ...string) Value {
	vals := make([]Value, len(elems))
	for i, s := range elems {
		vals[i] = String(s)
	}
	return Array(vals...)
}

// TableValue wraps t as a value. A nil table becomes an empty one.
func TableValue(t *Table) Value {
	if t == nil {
		t = NewTable()
	}
	return Value{kind: KindTable, tbl: t}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsInteger returns the integer held by v.
func (v Value) AsInteger() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.num, true
}

// AsFloat returns the float held by v. Integers are not coerced.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.flt, true
}

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBoolean {
		return false, false
	}
	return v.bln, true
}

// AsDateTime returns the date-time held by v.
func (v Value) AsDateTime() (DateTime, bool) {
	if v.kind != KindDateTime {
		return DateTime{}, false
	}
	return v.dt, true
}

// AsArray returns the elements held by v. The returned slice aliases v.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsTable returns the table held by v.
func (v Value) AsTable() (*Table, bool) {
	if v.kind != KindTable {
		return nil, false
	}
	return v.tbl, true
}

// AsStringSlice returns the elements of a string array.
// It fails if v is not an array or any element is not a string.
func (v Value) AsStringSlice() ([]string, bool) {
	arr, ok := v.AsArray()
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.AsString()
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.Clone()
		}
		return Value{kind: KindArray, arr: arr}
	case KindTable:
		return Value{kind: KindTable, tbl: v.tbl.Clone()}
	default:
		return v
	}
}

// Interface converts v into plain Go values: string, int64, float64, bool,
// time.Time (or the literal for local dates and times), []any and
// map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return v.num
	case KindFloat:
		return v.flt
	case KindBoolean:
		return v.bln
	case KindDateTime:
		if v.dt.Kind == OffsetDateTime {
			return v.dt.Time
		}
		return v.dt.String()
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case KindTable:
		return v.tbl.Interface()
	default:
		return nil
	}
}

// GoString renders v for debugging.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("String(%q)", v.str)
	case KindTable:
		return fmt.Sprintf("Table(%d keys)", v.tbl.Len())
	case KindArray:
		return fmt.Sprintf("Array(%d)", len(v.arr))
	default:
		return fmt.Sprintf("%s(%v)", v.kind, v.Interface())
	}
}

// Equal reports whether a and b are structurally equal: same kinds, same
// scalar values, arrays equal element-wise and tables holding the same keys
// with equal values. Table key order is ignored. NaN equals NaN.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInvalid:
		return true
	case KindString:
		return a.str == b.str
	case KindInteger:
		return a.num == b.num
	case KindFloat:
		if math.IsNaN(a.flt) && math.IsNaN(b.flt) {
			return true
		}
		return a.flt == b.flt && math.Signbit(a.flt) == math.Signbit(b.flt)
	case KindBoolean:
		return a.bln == b.bln
	case KindDateTime:
		return a.dt.Equal(b.dt)
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindTable:
		return a.tbl.Equal(b.tbl)
	}
	return false
}
