package toml

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Parse parses a complete document.
func Parse(data []byte) (*Document, error) {
	return ParseString(string(data))
}

// ParseString parses a complete document held in a string.
func ParseString(src string) (*Document, error) {
	if err := checkUTF8(src); err != nil {
		return nil, err
	}
	p := newParser(src)
	if err := p.parseDocument(); err != nil {
		return nil, err
	}
	return &Document{Root: p.root}, nil
}

// ParseValue parses a single value literal such as `14`, `"dark"`,
// `[1, 2]` or `{ enabled = false }`.
func ParseValue(src string) (Value, error) {
	if err := checkUTF8(src); err != nil {
		return Value{}, err
	}
	p := newParser(src)
	if err := p.read(ModeValue); err != nil {
		return Value{}, err
	}
	v, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	for p.tok.Type == TokenNewline {
		if err := p.read(ModeValue); err != nil {
			return Value{}, err
		}
	}
	if p.tok.Type != TokenEOF {
		return Value{}, p.syntaxError(p.tok, "unexpected %s after value", p.tok.Type)
	}
	return v, nil
}

type aotKey struct {
	parent *Table
	key    string
}

type parser struct {
	lx      *Lexer
	tok     Token
	root    *Table
	current *Table

	// headerTables were created or defined by a [header] or [[header]];
	// dotted keys may not add to them from another table.
	headerTables map[*Table]bool
	// explicit tables were the target of a header; a second header for the
	// same path is a duplicate.
	explicit map[*Table]bool
	// dotted tables were created by dotted keys and cannot be the target of
	// a header.
	dotted map[*Table]bool
	// sealed tables came from inline table syntax and are closed.
	sealed map[*Table]bool
	// aot records arrays created by [[header]]; only those accept appends.
	aot map[aotKey]bool
}

func newParser(src string) *parser {
	root := NewTable()
	return &parser{
		lx:           NewLexer(src),
		root:         root,
		current:      root,
		headerTables: make(map[*Table]bool),
		explicit:     make(map[*Table]bool),
		dotted:       make(map[*Table]bool),
		sealed:       make(map[*Table]bool),
		aot:          make(map[aotKey]bool),
	}
}

// read advances the single token of lookahead.
func (p *parser) read(mode Mode) error {
	tok, err := p.lx.Next(mode)
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) parseDocument() error {
	if err := p.read(ModeKey); err != nil {
		return err
	}
	for p.tok.Type != TokenEOF {
		switch p.tok.Type {
		case TokenNewline:
			if err := p.read(ModeKey); err != nil {
				return err
			}
			continue
		case TokenLBracket:
			if err := p.parseTableHeader(); err != nil {
				return err
			}
		case TokenDoubleLBracket:
			if err := p.parseArrayHeader(); err != nil {
				return err
			}
		case TokenBareKey, TokenString:
			if err := p.parseKeyValue(p.current); err != nil {
				return err
			}
		default:
			return p.syntaxError(p.tok, "expected a key or table header, found %s", p.tok.Type)
		}
		if err := p.endOfLine(); err != nil {
			return err
		}
	}
	return nil
}

// endOfLine requires a newline or end of input after a statement.
func (p *parser) endOfLine() error {
	switch p.tok.Type {
	case TokenEOF:
		return nil
	case TokenNewline:
		return p.read(ModeKey)
	default:
		return p.syntaxError(p.tok, "expected end of line, found %s", p.tok.Type)
	}
}

// parseKey reads a possibly dotted key. On return p.tok is the token after
// the key, read in key mode.
func (p *parser) parseKey() ([]string, error) {
	var path []string
	for {
		switch p.tok.Type {
		case TokenBareKey, TokenString:
			path = append(path, p.tok.Str)
		default:
			return nil, p.syntaxError(p.tok, "expected a key, found %s", p.tok.Type)
		}
		if err := p.read(ModeKey); err != nil {
			return nil, err
		}
		if p.tok.Type != TokenDot {
			return path, nil
		}
		if err := p.read(ModeKey); err != nil {
			return nil, err
		}
	}
}

// parseKeyValue parses `key = value` into tbl. On return p.tok is the token
// after the value.
func (p *parser) parseKeyValue(tbl *Table) error {
	keyTok := p.tok
	path, err := p.parseKey()
	if err != nil {
		return err
	}
	if p.tok.Type != TokenEquals {
		return p.syntaxError(p.tok, "expected '=' after key %q, found %s", strings.Join(path, "."), p.tok.Type)
	}
	if err := p.read(ModeValue); err != nil {
		return err
	}
	v, err := p.parseValue()
	if err != nil {
		return err
	}
	return p.assign(tbl, path, v, keyTok)
}

// assign stores v at a dotted path below tbl, creating intermediate tables.
func (p *parser) assign(tbl *Table, path []string, v Value, at Token) error {
	cur := tbl
	for i, part := range path[:len(path)-1] {
		existing, ok := cur.Get(part)
		if !ok {
			nt := NewTable()
			cur.Set(part, TableValue(nt))
			p.dotted[nt] = true
			cur = nt
			continue
		}
		sub, isTable := existing.AsTable()
		name := strings.Join(path[:i+1], ".")
		switch {
		case !isTable:
			return p.errorAt(at, CategoryTypeReopen, "key %q is a %s and cannot be used as a table", name, existing.Kind())
		case p.sealed[sub]:
			return p.errorAt(at, CategoryTypeReopen, "inline table %q cannot be extended", name)
		case p.headerTables[sub]:
			return p.errorAt(at, CategoryDuplicateKey, "table %q is already defined by a header", name)
		}
		cur = sub
	}
	last := path[len(path)-1]
	if cur.Has(last) {
		return p.errorAt(at, CategoryDuplicateKey, "duplicate key %q", strings.Join(path, "."))
	}
	cur.Set(last, v)
	return nil
}

// parseTableHeader handles [a.b.c].
func (p *parser) parseTableHeader() error {
	at := p.tok
	if err := p.read(ModeKey); err != nil {
		return err
	}
	path, err := p.parseKey()
	if err != nil {
		return err
	}
	if p.tok.Type != TokenRBracket {
		return p.syntaxError(p.tok, "expected ']' to close table header, found %s", p.tok.Type)
	}
	if err := p.read(ModeKey); err != nil {
		return err
	}

	parent, err := p.navigate(path[:len(path)-1], at)
	if err != nil {
		return err
	}
	name := strings.Join(path, ".")
	last := path[len(path)-1]
	existing, ok := parent.Get(last)
	if !ok {
		nt := NewTable()
		parent.Set(last, TableValue(nt))
		p.headerTables[nt] = true
		p.explicit[nt] = true
		p.current = nt
		return nil
	}
	sub, isTable := existing.AsTable()
	switch {
	case !isTable && existing.Kind() == KindArray && p.aot[aotKey{parent, last}]:
		return p.errorAt(at, CategoryTypeReopen, "%q is an array of tables and cannot be reopened as a table", name)
	case !isTable:
		return p.errorAt(at, CategoryTypeReopen, "key %q is a %s and cannot be reopened as a table", name, existing.Kind())
	case p.sealed[sub]:
		return p.errorAt(at, CategoryTypeReopen, "inline table %q cannot be reopened", name)
	case p.explicit[sub]:
		return p.errorAt(at, CategoryDuplicateKey, "table %q is defined more than once", name)
	case p.dotted[sub]:
		return p.errorAt(at, CategoryDuplicateKey, "table %q is already defined by dotted keys", name)
	}
	p.explicit[sub] = true
	p.headerTables[sub] = true
	p.current = sub
	return nil
}

// parseArrayHeader handles [[a.b.c]].
func (p *parser) parseArrayHeader() error {
	at := p.tok
	if err := p.read(ModeKey); err != nil {
		return err
	}
	path, err := p.parseKey()
	if err != nil {
		return err
	}
	if p.tok.Type != TokenDoubleRBracket {
		return p.syntaxError(p.tok, "expected ']]' to close array-of-tables header, found %s", p.tok.Type)
	}
	if err := p.read(ModeKey); err != nil {
		return err
	}

	parent, err := p.navigate(path[:len(path)-1], at)
	if err != nil {
		return err
	}
	name := strings.Join(path, ".")
	last := path[len(path)-1]
	elem := NewTable()
	p.headerTables[elem] = true
	p.explicit[elem] = true

	existing, ok := parent.Get(last)
	switch {
	case !ok:
		parent.Set(last, Array(TableValue(elem)))
		p.aot[aotKey{parent, last}] = true
	case existing.Kind() == KindArray && p.aot[aotKey{parent, last}]:
		elems, _ := existing.AsArray()
		parent.Set(last, Array(append(elems, TableValue(elem))...))
	case existing.Kind() == KindArray:
		return p.errorAt(at, CategoryTypeReopen, "static array %q cannot be appended to", name)
	default:
		return p.errorAt(at, CategoryTypeReopen, "key %q is a %s and cannot be reopened as an array of tables", name, existing.Kind())
	}
	p.current = elem
	return nil
}

// navigate walks the leading parts of a header path from the root, creating
// implicit tables and stepping into the newest element of arrays of tables.
func (p *parser) navigate(path []string, at Token) (*Table, error) {
	cur := p.root
	for i, part := range path {
		name := strings.Join(path[:i+1], ".")
		existing, ok := cur.Get(part)
		if !ok {
			nt := NewTable()
			cur.Set(part, TableValue(nt))
			p.headerTables[nt] = true
			cur = nt
			continue
		}
		switch existing.Kind() {
		case KindTable:
			sub, _ := existing.AsTable()
			if p.sealed[sub] {
				return nil, p.errorAt(at, CategoryTypeReopen, "inline table %q cannot be extended", name)
			}
			cur = sub
		case KindArray:
			if !p.aot[aotKey{cur, part}] {
				return nil, p.errorAt(at, CategoryTypeReopen, "static array %q cannot be extended", name)
			}
			elems, _ := existing.AsArray()
			cur, _ = elems[len(elems)-1].AsTable()
		default:
			return nil, p.errorAt(at, CategoryTypeReopen, "key %q is a %s and cannot be used as a table", name, existing.Kind())
		}
	}
	return cur, nil
}

// parseValue parses the value starting at p.tok. On return p.tok is the
// token after the value, read in value mode.
func (p *parser) parseValue() (Value, error) {
	switch p.tok.Type {
	case TokenLBracket:
		return p.parseArray()
	case TokenLBrace:
		return p.parseInlineTable()
	}
	v, ok := p.tok.Value()
	if !ok {
		return Value{}, p.syntaxError(p.tok, "expected a value, found %s", p.tok.Type)
	}
	if err := p.read(ModeValue); err != nil {
		return Value{}, err
	}
	return v, nil
}

func (p *parser) skipNewlines() error {
	for p.tok.Type == TokenNewline {
		if err := p.read(ModeValue); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseArray() (Value, error) {
	open := p.tok
	if err := p.read(ModeValue); err != nil {
		return Value{}, err
	}
	elems := []Value{}
	for {
		if err := p.skipNewlines(); err != nil {
			return Value{}, err
		}
		if p.tok.Type == TokenRBracket {
			break
		}
		if p.tok.Type == TokenEOF {
			return Value{}, p.syntaxError(open, "unterminated array")
		}
		elemTok := p.tok
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		if len(elems) > 0 && v.Kind() != elems[0].Kind() {
			return Value{}, p.errorAt(elemTok, CategoryHeterogeneousArray,
				"array element %d is %s but element 0 is %s", len(elems), v.Kind(), elems[0].Kind())
		}
		elems = append(elems, v)
		if err := p.skipNewlines(); err != nil {
			return Value{}, err
		}
		if p.tok.Type == TokenComma {
			if err := p.read(ModeValue); err != nil {
				return Value{}, err
			}
			continue
		}
		if p.tok.Type != TokenRBracket {
			return Value{}, p.syntaxError(p.tok, "expected ',' or ']' in array, found %s", p.tok.Type)
		}
	}
	if err := p.read(ModeValue); err != nil {
		return Value{}, err
	}
	return Array(elems...), nil
}

func (p *parser) parseInlineTable() (Value, error) {
	tbl := NewTable()
	if err := p.read(ModeKey); err != nil {
		return Value{}, err
	}
	if p.tok.Type != TokenRBrace {
		for {
			if p.tok.Type != TokenBareKey && p.tok.Type != TokenString {
				return Value{}, p.syntaxError(p.tok, "expected a key in inline table, found %s", p.tok.Type)
			}
			if err := p.parseKeyValue(tbl); err != nil {
				return Value{}, err
			}
			if p.tok.Type == TokenRBrace {
				break
			}
			if p.tok.Type != TokenComma {
				return Value{}, p.syntaxError(p.tok, "expected ',' or '}' in inline table, found %s", p.tok.Type)
			}
			if err := p.read(ModeKey); err != nil {
				return Value{}, err
			}
			if p.tok.Type == TokenRBrace {
				return Value{}, p.syntaxError(p.tok, "trailing comma in inline table")
			}
		}
	}
	if err := p.read(ModeValue); err != nil {
		return Value{}, err
	}
	p.seal(tbl)
	return TableValue(tbl), nil
}

// seal closes an inline table and every table nested in it.
func (p *parser) seal(t *Table) {
	p.sealed[t] = true
	for _, v := range t.All() {
		p.sealValue(v)
	}
}

func (p *parser) sealValue(v Value) {
	switch v.Kind() {
	case KindTable:
		t, _ := v.AsTable()
		p.seal(t)
	case KindArray:
		elems, _ := v.AsArray()
		for _, e := range elems {
			p.sealValue(e)
		}
	}
}

func (p *parser) errorAt(tok Token, cat Category, format string, args ...any) error {
	return &ParseError{Line: tok.Line, Column: tok.Column, Category: cat, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) syntaxError(tok Token, format string, args ...any) error {
	return p.errorAt(tok, CategorySyntax, format, args...)
}

// checkUTF8 rejects input that is not valid UTF-8, reporting the position
// of the first bad byte.
func checkUTF8(src string) error {
	if utf8.ValidString(src) {
		return nil
	}
	line, col := 1, 1
	for i, r := range src {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(src[i:]); size <= 1 {
				return &LexError{Line: line, Column: col, Message: "invalid UTF-8"}
			}
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &LexError{Line: line, Column: col, Message: "invalid UTF-8"}
}
