package toml

import (
	"errors"
	"math"
	"testing"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	var toks []Token
	for tok, err := range Tokenize(src) {
		if err != nil {
			t.Fatalf("Tokenize(%q) error: %v", src, err)
		}
		toks = append(toks, tok)
	}
	return toks
}

func TestTokenizeKeyValue(t *testing.T) {
	toks := lexAll(t, "a.b = 1 # trailing\n")
	want := []TokenType{TokenBareKey, TokenDot, TokenBareKey, TokenEquals, TokenInteger, TokenNewline, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d = %s, want %s", i, toks[i].Type, tt)
		}
	}
	if toks[4].Line != 1 || toks[4].Column != 7 {
		t.Errorf("integer position = %d:%d, want 1:7", toks[4].Line, toks[4].Column)
	}
}

func TestTokenizeSkipsByteOrderMark(t *testing.T) {
	toks := lexAll(t, "\uFEFFa = 1\n")
	if toks[0].Type != TokenBareKey || toks[0].Text != "a" {
		t.Fatalf("first token = %s %q, want bare key \"a\"", toks[0].Type, toks[0].Text)
	}
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("key position = %d:%d, want 1:1", toks[0].Line, toks[0].Column)
	}

	// Only a leading mark is skipped.
	if _, err := ParseString("a = 1\n\uFEFFb = 2\n"); err == nil {
		t.Error("ParseString() accepted a byte order mark after the start")
	}
}

func TestTokenizeIsRestartable(t *testing.T) {
	seq := Tokenize("x = true\n")
	var first, second int
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	if first != second || first == 0 {
		t.Errorf("token counts = %d, %d; want equal and non-zero", first, second)
	}
}

func TestTokenizeHeaders(t *testing.T) {
	toks := lexAll(t, "[[fruit]]\nx = [[1], [2]]\n")
	if toks[0].Type != TokenDoubleLBracket || toks[2].Type != TokenDoubleRBracket {
		t.Errorf("header tokens = %s %s, want [[ ]]", toks[0].Type, toks[2].Type)
	}
	// In value position nested brackets stay single.
	if toks[6].Type != TokenLBracket || toks[7].Type != TokenLBracket {
		t.Errorf("value tokens = %s %s, want [ [", toks[6].Type, toks[7].Type)
	}
}

func TestLexerValues(t *testing.T) {
	tests := []struct {
		src  string
		typ  TokenType
		str  string
		i    int64
		f    float64
		b    bool
		kind DateTimeKind
	}{
		{src: `"hello\tworld"`, typ: TokenString, str: "hello\tworld"},
		{src: `"\u00e9\U0001F600"`, typ: TokenString, str: "é😀"},
		{src: `'C:\path'`, typ: TokenString, str: `C:\path`},
		{src: "\"\"\"\nline1\nline2\"\"\"", typ: TokenString, str: "line1\nline2"},
		{src: "\"\"\"a \\\n    b\"\"\"", typ: TokenString, str: "a b"},
		{src: `""""quoted"""""`, typ: TokenString, str: `"quoted""`},
		{src: "'''\nraw \\n'''", typ: TokenString, str: `raw \n`},
		{src: "42", typ: TokenInteger, i: 42},
		{src: "+17", typ: TokenInteger, i: 17},
		{src: "-0", typ: TokenInteger, i: 0},
		{src: "1_000_000", typ: TokenInteger, i: 1000000},
		{src: "0xDEAD_beef", typ: TokenInteger, i: 0xdeadbeef},
		{src: "0o755", typ: TokenInteger, i: 0o755},
		{src: "0b1101", typ: TokenInteger, i: 13},
		{src: "3.1415", typ: TokenFloat, f: 3.1415},
		{src: "-0.01", typ: TokenFloat, f: -0.01},
		{src: "5e+22", typ: TokenFloat, f: 5e22},
		{src: "6.626e-34", typ: TokenFloat, f: 6.626e-34},
		{src: "1e06", typ: TokenFloat, f: 1e6},
		{src: "-inf", typ: TokenFloat, f: math.Inf(-1)},
		{src: "true", typ: TokenBool, b: true},
		{src: "false", typ: TokenBool},
		{src: "1979-05-27T07:32:00Z", typ: TokenDateTime, kind: OffsetDateTime},
		{src: "1979-05-27 07:32:00-07:00", typ: TokenDateTime, kind: OffsetDateTime},
		{src: "1979-05-27T00:32:00.999999", typ: TokenDateTime, kind: LocalDateTime},
		{src: "1979-05-27", typ: TokenDateTime, kind: LocalDate},
		{src: "07:32:00", typ: TokenDateTime, kind: LocalTime},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tok, err := NewLexer(tt.src).Next(ModeValue)
			if err != nil {
				t.Fatalf("Next() error: %v", err)
			}
			if tok.Type != tt.typ {
				t.Fatalf("Type = %s, want %s", tok.Type, tt.typ)
			}
			switch tt.typ {
			case TokenString:
				if tok.Str != tt.str {
					t.Errorf("Str = %q, want %q", tok.Str, tt.str)
				}
			case TokenInteger:
				if tok.Int != tt.i {
					t.Errorf("Int = %d, want %d", tok.Int, tt.i)
				}
			case TokenFloat:
				if tok.Float != tt.f {
					t.Errorf("Float = %v, want %v", tok.Float, tt.f)
				}
			case TokenBool:
				if tok.Bool != tt.b {
					t.Errorf("Bool = %v, want %v", tok.Bool, tt.b)
				}
			case TokenDateTime:
				if tok.Date.Kind != tt.kind {
					t.Errorf("Date.Kind = %d, want %d", tok.Date.Kind, tt.kind)
				}
			}
		})
	}
}

func TestLexerNaN(t *testing.T) {
	tok, err := NewLexer("nan").Next(ModeValue)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(tok.Float) {
		t.Errorf("Float = %v, want NaN", tok.Float)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		col  int
		char rune
	}{
		{"unterminated string", `"abc`, 1, 5, 0},
		{"newline in basic string", "\"abc\ndef\"", 1, 5, '\n'},
		{"invalid escape", `"a\qb"`, 1, 4, 'q'},
		{"invalid numeric suffix", "12abc", 1, 3, 'a'},
		{"leading zero", "0123", 1, 1, 0},
		{"double underscore", "1__0", 1, 1, 0},
		{"trailing underscore", "10_", 1, 1, 0},
		{"signed hex", "+0xFF", 1, 3, 'x'},
		{"bad word", "yes", 1, 1, 'y'},
		{"control char", "\"a\x01\"", 1, 3, '\x01'},
		{"bad date", "1979-13-27", 1, 1, 0},
		{"float missing fraction", "1.", 1, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.src).Next(ModeValue)
			if err == nil {
				t.Fatalf("Next(%q) succeeded, want error", tt.src)
			}
			if !errors.Is(err, ErrLex) {
				t.Fatalf("error %v does not match ErrLex", err)
			}
			var le *LexError
			if !errors.As(err, &le) {
				t.Fatalf("error %T is not *LexError", err)
			}
			if le.Line != tt.line || le.Column != tt.col {
				t.Errorf("position = %d:%d, want %d:%d", le.Line, le.Column, tt.line, tt.col)
			}
			if tt.char != 0 && le.Char != tt.char {
				t.Errorf("Char = %q, want %q", le.Char, tt.char)
			}
		})
	}
}

func TestLexerKeyMode(t *testing.T) {
	lx := NewLexer(`3.14 "quoted key" 'lit'`)
	want := []struct {
		typ TokenType
		str string
	}{
		{TokenBareKey, "3"},
		{TokenDot, ""},
		{TokenBareKey, "14"},
		{TokenString, "quoted key"},
		{TokenString, "lit"},
		{TokenEOF, ""},
	}
	for i, w := range want {
		tok, err := lx.Next(ModeKey)
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok.Type != w.typ || tok.Str != w.str {
			t.Errorf("token %d = %s %q, want %s %q", i, tok.Type, tok.Str, w.typ, w.str)
		}
	}
}

func TestLexerRejectsMultiLineKey(t *testing.T) {
	if _, err := NewLexer(`"""key"""`).Next(ModeKey); err == nil {
		t.Error("multi-line key accepted, want error")
	}
}
