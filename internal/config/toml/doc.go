// Package toml implements the configuration text format used by nivconf.
//
// The package is self-contained: it owns the lexer, the recursive-descent
// parser, the typed value tree and the serializer. It does not depend on any
// third-party TOML library.
//
// # Value Tree
//
// A parsed file is a Document whose Root is a *Table. Tables preserve
// insertion order and never hold two entries with the same key. Values are
// a tagged union (see Value and Kind) with accessors that fail closed:
//
//	doc, err := toml.Parse(data)
//	if err != nil {
//	    return err
//	}
//	v, ok := doc.Root.Lookup("editor", "tab_width")
//	if n, ok := v.AsInteger(); ok {
//	    fmt.Println(n)
//	}
//
// # Grammar
//
// The parser accepts top-level key/value pairs, dotted keys, standard table
// headers ([a.b]), array-of-tables headers ([[a.b]]), inline tables and
// homogeneous inline arrays. Strings may be basic or literal, single- or
// multi-line. Integers may be decimal, hex, octal or binary with underscore
// separators. Floats support exponents, inf and nan. Date-times are kept as
// DateTime values and are not further interpreted.
//
// # Errors
//
// Lexical problems are reported as *LexError and structural problems as
// *ParseError. Both carry a 1-based line and column. ParseError also carries
// a Category that can be matched with errors.Is against ErrSyntax,
// ErrDuplicateKey, ErrTypeReopen and ErrHeterogeneousArray.
//
// # Serialization
//
// Marshal renders a table back to canonical text. For every document d
// produced by Parse, Parse(Marshal(d.Root)) yields a structurally equal tree
// (comments and whitespace are not preserved).
package toml
