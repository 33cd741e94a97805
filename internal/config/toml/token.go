package toml

import "fmt"

// TokenType identifies a lexical token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenNewline
	TokenBareKey
	TokenString
	TokenInteger
	TokenFloat
	TokenBool
	TokenDateTime
	TokenLBracket       // [
	TokenRBracket       // ]
	TokenDoubleLBracket // [[ (table headers only)
	TokenDoubleRBracket // ]] (table headers only)
	TokenLBrace         // {
	TokenRBrace         // }
	TokenDot            // .
	TokenEquals         // =
	TokenComma          // ,
)

var tokenNames = [...]string{
	TokenEOF:            "end of input",
	TokenNewline:        "newline",
	TokenBareKey:        "bare key",
	TokenString:         "string",
	TokenInteger:        "integer",
	TokenFloat:          "float",
	TokenBool:           "boolean",
	TokenDateTime:       "date-time",
	TokenLBracket:       "'['",
	TokenRBracket:       "']'",
	TokenDoubleLBracket: "'[['",
	TokenDoubleRBracket: "']]'",
	TokenLBrace:         "'{'",
	TokenRBrace:         "'}'",
	TokenDot:            "'.'",
	TokenEquals:         "'='",
	TokenComma:          "','",
}

// String returns a description used in error messages.
func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// StringStyle records how a string token was quoted.
type StringStyle uint8

const (
	StyleBasic StringStyle = iota
	StyleLiteral
	StyleMultiLineBasic
	StyleMultiLineLiteral
)

// Token is one lexical unit with its 1-based position.
type Token struct {
	Type   TokenType
	Line   int
	Column int
	// Text is the raw source text of the token.
	Text string

	// Decoded payloads; only the one matching Type is set.
	Str   string
	Style StringStyle
	Int   int64
	Float float64
	Bool  bool
	Date  DateTime
}

// Value converts a literal token into a Value.
func (t Token) Value() (Value, bool) {
	switch t.Type {
	case TokenString:
		return String(t.Str), true
	case TokenInteger:
		return Integer(t.Int), true
	case TokenFloat:
		return Float(t.Float), true
	case TokenBool:
		return Bool(t.Bool), true
	case TokenDateTime:
		return DateTimeValue(t.Date), true
	}
	return Value{}, false
}
