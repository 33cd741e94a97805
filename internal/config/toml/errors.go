package toml

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by LexError and ParseError via errors.Is.
var (
	// ErrLex matches every *LexError.
	ErrLex = errors.New("lexical error")
	// ErrSyntax matches parse errors of CategorySyntax.
	ErrSyntax = errors.New("syntax error")
	// ErrDuplicateKey matches parse errors of CategoryDuplicateKey.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrTypeReopen matches parse errors of CategoryTypeReopen.
	ErrTypeReopen = errors.New("key reopened with a different type")
	// ErrHeterogeneousArray matches parse errors of CategoryHeterogeneousArray.
	ErrHeterogeneousArray = errors.New("heterogeneous array")
)

// LexError reports a malformed literal or an unexpected character.
type LexError struct {
	Line   int
	Column int
	// Char is the offending character, or 0 at end of input.
	Char    rune
	Message string
}

// Error implements the error interface.
func (e *LexError) Error() string {
	if e.Char == 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d, column %d: %s (at %q)", e.Line, e.Column, e.Message, e.Char)
}

// Is matches ErrLex.
func (e *LexError) Is(target error) bool {
	return target == ErrLex
}

// Category classifies a ParseError.
type Category uint8

const (
	// CategorySyntax is an unexpected token or malformed construct.
	CategorySyntax Category = iota
	// CategoryDuplicateKey is a key or table defined twice.
	CategoryDuplicateKey
	// CategoryTypeReopen is a path reopened as a table while holding another kind.
	CategoryTypeReopen
	// CategoryHeterogeneousArray is an array mixing element kinds.
	CategoryHeterogeneousArray
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySyntax:
		return "syntax"
	case CategoryDuplicateKey:
		return "duplicate-key"
	case CategoryTypeReopen:
		return "type-reopen"
	case CategoryHeterogeneousArray:
		return "heterogeneous-array"
	default:
		return "unknown"
	}
}

// ParseError reports a structural problem in the document.
type ParseError struct {
	Line     int
	Column   int
	Category Category
	Message  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s: %s", e.Line, e.Column, e.Category, e.Message)
}

// Is matches the sentinel of the error's category.
func (e *ParseError) Is(target error) bool {
	switch e.Category {
	case CategorySyntax:
		return target == ErrSyntax
	case CategoryDuplicateKey:
		return target == ErrDuplicateKey
	case CategoryTypeReopen:
		return target == ErrTypeReopen
	case CategoryHeterogeneousArray:
		return target == ErrHeterogeneousArray
	}
	return false
}
