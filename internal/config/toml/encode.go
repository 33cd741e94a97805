package toml

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Marshal renders t as canonical text. Scalars and plain arrays come first
// in each table, followed by sub-tables as [headers] and arrays of tables as
// [[headers]], all in insertion order.
func Marshal(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes t to w in the format produced by Marshal.
func Encode(w io.Writer, t *Table) error {
	e := &encoder{}
	if err := e.table(nil, t, false); err != nil {
		return err
	}
	_, err := w.Write(e.buf.Bytes())
	return err
}

// FormatValue renders v in inline form, as it would appear on the right of
// an '='.
func FormatValue(v Value) (string, error) {
	var e encoder
	if err := e.inline(v); err != nil {
		return "", err
	}
	return e.buf.String(), nil
}

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) table(path []string, t *Table, arrayElem bool) error {
	var direct, nested []string
	for k, v := range t.All() {
		if v.Kind() == KindTable || isArrayOfTables(v) {
			nested = append(nested, k)
		} else {
			direct = append(direct, k)
		}
	}

	if len(path) > 0 && (arrayElem || len(direct) > 0 || t.Len() == 0) {
		if e.buf.Len() > 0 {
			e.buf.WriteByte('\n')
		}
		if arrayElem {
			fmt.Fprintf(&e.buf, "[[%s]]\n", formatPath(path))
		} else {
			fmt.Fprintf(&e.buf, "[%s]\n", formatPath(path))
		}
	}

	for _, k := range direct {
		v, _ := t.Get(k)
		e.buf.WriteString(formatKey(k))
		e.buf.WriteString(" = ")
		if err := e.inline(v); err != nil {
			return fmt.Errorf("%s: %w", formatPath(append(path[:len(path):len(path)], k)), err)
		}
		e.buf.WriteByte('\n')
	}

	for _, k := range nested {
		v, _ := t.Get(k)
		sub := append(path[:len(path):len(path)], k)
		if st, ok := v.AsTable(); ok {
			if err := e.table(sub, st, false); err != nil {
				return err
			}
			continue
		}
		elems, _ := v.AsArray()
		for _, el := range elems {
			st, _ := el.AsTable()
			if err := e.table(sub, st, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *encoder) inline(v Value) error {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		e.buf.WriteString(quote(s))
	case KindInteger:
		n, _ := v.AsInteger()
		e.buf.WriteString(strconv.FormatInt(n, 10))
	case KindFloat:
		f, _ := v.AsFloat()
		e.buf.WriteString(formatFloat(f))
	case KindBoolean:
		b, _ := v.AsBool()
		e.buf.WriteString(strconv.FormatBool(b))
	case KindDateTime:
		dt, _ := v.AsDateTime()
		e.buf.WriteString(dt.String())
	case KindArray:
		elems, _ := v.AsArray()
		e.buf.WriteByte('[')
		for i, el := range elems {
			if i > 0 {
				e.buf.WriteString(", ")
			}
			if err := e.inline(el); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
	case KindTable:
		t, _ := v.AsTable()
		if t.Len() == 0 {
			e.buf.WriteString("{}")
			return nil
		}
		e.buf.WriteString("{ ")
		i := 0
		for k, el := range t.All() {
			if i > 0 {
				e.buf.WriteString(", ")
			}
			i++
			e.buf.WriteString(formatKey(k))
			e.buf.WriteString(" = ")
			if err := e.inline(el); err != nil {
				return err
			}
		}
		e.buf.WriteString(" }")
	default:
		return fmt.Errorf("cannot encode %s value", v.Kind())
	}
	return nil
}

// isArrayOfTables reports whether v should be written with [[headers]].
func isArrayOfTables(v Value) bool {
	elems, ok := v.AsArray()
	if !ok || len(elems) == 0 {
		return false
	}
	for _, el := range elems {
		if el.Kind() != KindTable {
			return false
		}
	}
	return true
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".en") {
		s += ".0"
	}
	return s
}

func formatPath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = formatKey(p)
	}
	return strings.Join(parts, ".")
}

// formatKey writes k bare when possible and quoted otherwise.
func formatKey(k string) string {
	if k == "" {
		return `""`
	}
	for i := 0; i < len(k); i++ {
		if !isBareKeyChar(k[i]) {
			return quote(k)
		}
	}
	return k
}

// quote renders s as a basic string.
func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if isControl(r) {
				fmt.Fprintf(&sb, `\u%04X`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
