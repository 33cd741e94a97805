package toml

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Mode selects how ambiguous input is tokenized. The format is context
// sensitive: "1.5" is a float in value position but two dotted key parts in
// key position, and "[[" opens an array-of-tables header only in key
// position.
type Mode uint8

const (
	// ModeKey tokenizes bare keys, quoted keys, dots, header brackets.
	ModeKey Mode = iota
	// ModeValue tokenizes literals and value punctuation.
	ModeValue
)

// Lexer turns source text into tokens on demand.
type Lexer struct {
	src  string
	pos  int
	line int
	col  int
}

// NewLexer creates a lexer over src.
func NewLexer(src string) *Lexer {
	lx := &Lexer{src: src}
	lx.Reset()
	return lx
}

// Reset rewinds the lexer to the start of its input.
func (lx *Lexer) Reset() {
	lx.pos = 0
	lx.line = 1
	lx.col = 1
	// A leading byte order mark is not part of the document.
	if strings.HasPrefix(lx.src, "\uFEFF") {
		lx.pos = len("\uFEFF")
	}
}

// Tokenize returns a lazy token sequence over src. It tracks key/value
// position the same way the parser does, so it can be used to inspect a
// document without building a tree. The sequence stops after the first
// error or after TokenEOF and can be ranged over again from the start.
func Tokenize(src string) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		lx := NewLexer(src)
		mode := ModeKey
		// Stack of open containers: '[' for arrays, '{' for inline tables.
		var stack []byte
		for {
			tok, err := lx.Next(mode)
			if err != nil {
				yield(tok, err)
				return
			}
			if !yield(tok, nil) || tok.Type == TokenEOF {
				return
			}
			switch tok.Type {
			case TokenEquals:
				mode = ModeValue
			case TokenNewline:
				if len(stack) == 0 {
					mode = ModeKey
				}
			case TokenLBrace:
				stack = append(stack, '{')
				mode = ModeKey
			case TokenLBracket:
				if mode == ModeValue {
					stack = append(stack, '[')
				}
			case TokenRBracket, TokenRBrace:
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				if len(stack) > 0 && stack[len(stack)-1] == '{' && tok.Type == TokenRBrace {
					mode = ModeValue
				}
			case TokenComma:
				if len(stack) > 0 && stack[len(stack)-1] == '{' {
					mode = ModeKey
				}
			}
		}
	}
}

// Next returns the next token, skipping whitespace and comments.
func (lx *Lexer) Next(mode Mode) (Token, error) {
	if err := lx.skipBlank(); err != nil {
		return Token{}, err
	}
	tok := Token{Line: lx.line, Column: lx.col}
	if lx.pos >= len(lx.src) {
		tok.Type = TokenEOF
		return tok, nil
	}

	start := lx.pos
	c := lx.src[lx.pos]
	switch {
	case c == '\n':
		lx.advance()
		tok.Type = TokenNewline
	case c == '\r':
		if lx.peekAt(1) != '\n' {
			return tok, lx.errorf("bare carriage return")
		}
		lx.advance()
		lx.advance()
		tok.Type = TokenNewline
	case c == '=':
		lx.advance()
		tok.Type = TokenEquals
	case c == ',':
		lx.advance()
		tok.Type = TokenComma
	case c == '{':
		lx.advance()
		tok.Type = TokenLBrace
	case c == '}':
		lx.advance()
		tok.Type = TokenRBrace
	case c == '[':
		lx.advance()
		tok.Type = TokenLBracket
		if mode == ModeKey && lx.peekAt(0) == '[' {
			lx.advance()
			tok.Type = TokenDoubleLBracket
		}
	case c == ']':
		lx.advance()
		tok.Type = TokenRBracket
		if mode == ModeKey && lx.peekAt(0) == ']' {
			lx.advance()
			tok.Type = TokenDoubleRBracket
		}
	case c == '"' || c == '\'':
		if err := lx.lexString(&tok, mode); err != nil {
			return tok, err
		}
	case mode == ModeKey && c == '.':
		lx.advance()
		tok.Type = TokenDot
	case mode == ModeKey && isBareKeyChar(c):
		for lx.pos < len(lx.src) && isBareKeyChar(lx.src[lx.pos]) {
			lx.advance()
		}
		tok.Type = TokenBareKey
		tok.Str = lx.src[start:lx.pos]
	case mode == ModeValue && (c == 't' || c == 'f' || c == 'i' || c == 'n'):
		if err := lx.lexWord(&tok); err != nil {
			return tok, err
		}
	case mode == ModeValue && (isDigit(c) || c == '+' || c == '-'):
		if err := lx.lexNumberOrDate(&tok); err != nil {
			return tok, err
		}
	default:
		return tok, lx.errorf("unexpected character")
	}

	tok.Text = lx.src[start:lx.pos]
	return tok, nil
}

// skipBlank skips spaces, tabs and comments, stopping before newlines.
func (lx *Lexer) skipBlank() error {
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case ' ', '\t':
			lx.advance()
		case '#':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				if lx.src[lx.pos] == '\r' && lx.peekAt(1) == '\n' {
					break
				}
				r := lx.currentRune()
				if isControl(r) && r != '\t' {
					return lx.errorf("control character in comment")
				}
				if r == utf8.RuneError {
					return lx.errorf("invalid UTF-8")
				}
				lx.advance()
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

// lexWord handles true, false, inf and nan.
func (lx *Lexer) lexWord(tok *Token) error {
	start := lx.pos
	startLine, startCol := lx.line, lx.col
	for lx.pos < len(lx.src) && isBareKeyChar(lx.src[lx.pos]) {
		lx.advance()
	}
	word := lx.src[start:lx.pos]
	switch word {
	case "true", "false":
		tok.Type = TokenBool
		tok.Bool = word == "true"
	case "inf":
		tok.Type = TokenFloat
		tok.Float = math.Inf(1)
	case "nan":
		tok.Type = TokenFloat
		tok.Float = math.NaN()
	default:
		return &LexError{Line: startLine, Column: startCol, Char: rune(word[0]),
			Message: fmt.Sprintf("invalid value %q", word)}
	}
	return nil
}

// lexNumberOrDate scans a run of number-like characters and classifies it.
func (lx *Lexer) lexNumberOrDate(tok *Token) error {
	start := lx.pos
	startLine, startCol := lx.line, lx.col
	for lx.pos < len(lx.src) && isNumberChar(lx.src[lx.pos]) {
		lx.advance()
		// "1979-05-27 07:32:00" uses a space between date and time.
		if lx.pos-start == 10 && looksLikeDate(lx.src[start:lx.pos]) &&
			lx.peekAt(0) == ' ' && isDigit(lx.peekAt(1)) && isDigit(lx.peekAt(2)) && lx.peekAt(3) == ':' {
			lx.advance()
		}
	}
	run := lx.src[start:lx.pos]
	fail := func(msg string) error {
		e := &LexError{Line: startLine, Column: startCol, Message: msg}
		if i := strings.IndexFunc(run, func(r rune) bool { return !strings.ContainsRune("0123456789_+-.eE", r) }); i >= 0 {
			e.Column += utf8.RuneCountInString(run[:i])
			e.Char = rune(run[i])
		}
		return e
	}

	switch {
	case looksLikeDate(run) || looksLikeTime(run):
		dt, err := parseDateTime(run)
		if err != nil {
			return &LexError{Line: startLine, Column: startCol, Message: err.Error()}
		}
		tok.Type = TokenDateTime
		tok.Date = dt
		return nil
	case run == "+inf" || run == "-inf":
		tok.Type = TokenFloat
		tok.Float = math.Inf(1)
		if run[0] == '-' {
			tok.Float = math.Inf(-1)
		}
		return nil
	case run == "+nan" || run == "-nan":
		tok.Type = TokenFloat
		tok.Float = math.NaN()
		return nil
	}

	body := strings.TrimLeft(run, "+-")
	if len(run)-len(body) > 1 {
		return fail("invalid numeric literal")
	}
	if len(body) > 1 && body[0] == '0' && (body[1] == 'x' || body[1] == 'o' || body[1] == 'b') {
		if body != run {
			return fail("sign not allowed on prefixed integer")
		}
		n, err := parsePrefixedInt(body)
		if err != nil {
			return fail(err.Error())
		}
		tok.Type = TokenInteger
		tok.Int = n
		return nil
	}
	if strings.ContainsAny(body, ".eE") {
		f, err := parseDecimalFloat(run)
		if err != nil {
			return fail(err.Error())
		}
		tok.Type = TokenFloat
		tok.Float = f
		return nil
	}
	n, err := parseDecimalInt(run)
	if err != nil {
		return fail(err.Error())
	}
	tok.Type = TokenInteger
	tok.Int = n
	return nil
}

func parsePrefixedInt(s string) (int64, error) {
	var base int
	var valid func(byte) bool
	switch s[1] {
	case 'x':
		base, valid = 16, isHexDigit
	case 'o':
		base, valid = 8, func(c byte) bool { return c >= '0' && c <= '7' }
	default:
		base, valid = 2, func(c byte) bool { return c == '0' || c == '1' }
	}
	digits := s[2:]
	if !validDigitRun(digits, valid) {
		return 0, fmt.Errorf("invalid numeric suffix in %q", s)
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(digits, "_", ""), base, 64)
	if err != nil {
		return 0, fmt.Errorf("integer %q out of range", s)
	}
	return n, nil
}

func parseDecimalInt(s string) (int64, error) {
	body := strings.TrimLeft(s, "+-")
	if !validDigitRun(body, isDigit) {
		return 0, fmt.Errorf("invalid numeric suffix in %q", s)
	}
	if len(body) > 1 && body[0] == '0' {
		return 0, fmt.Errorf("leading zero in %q", s)
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(s, "_", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("integer %q out of range", s)
	}
	return n, nil
}

func parseDecimalFloat(s string) (float64, error) {
	body := strings.TrimLeft(s, "+-")
	mantissa, exponent, hasExp := strings.Cut(strings.ToLower(body), "e")
	intPart, frac, hasFrac := strings.Cut(mantissa, ".")
	if !validDigitRun(intPart, isDigit) || (len(intPart) > 1 && intPart[0] == '0') {
		return 0, fmt.Errorf("invalid float %q", s)
	}
	if hasFrac && !validDigitRun(frac, isDigit) {
		return 0, fmt.Errorf("invalid float %q", s)
	}
	if hasExp {
		exp := strings.TrimLeft(exponent, "+-")
		if len(exponent)-len(exp) > 1 || !validDigitRun(exp, isDigit) {
			return 0, fmt.Errorf("invalid float exponent in %q", s)
		}
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("float %q out of range", s)
	}
	return f, nil
}

// validDigitRun checks a non-empty digit run where underscores may only
// appear between two digits.
func validDigitRun(s string, valid func(byte) bool) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			if i == 0 || i == len(s)-1 || s[i-1] == '_' {
				return false
			}
			continue
		}
		if !valid(c) {
			return false
		}
	}
	return true
}

// lexString scans basic, literal and multi-line strings.
func (lx *Lexer) lexString(tok *Token, mode Mode) error {
	quote := lx.src[lx.pos]
	multi := strings.HasPrefix(lx.src[lx.pos:], strings.Repeat(string(quote), 3))
	if multi && mode == ModeKey {
		return lx.errorf("multi-line string cannot be used as a key")
	}
	tok.Type = TokenString
	switch {
	case multi && quote == '"':
		tok.Style = StyleMultiLineBasic
	case multi:
		tok.Style = StyleMultiLineLiteral
	case quote == '"':
		tok.Style = StyleBasic
	default:
		tok.Style = StyleLiteral
	}

	var sb strings.Builder
	if multi {
		lx.advance()
		lx.advance()
		lx.advance()
		// A newline immediately after the opening delimiter is trimmed.
		if lx.peekAt(0) == '\n' {
			lx.advance()
		} else if lx.peekAt(0) == '\r' && lx.peekAt(1) == '\n' {
			lx.advance()
			lx.advance()
		}
	} else {
		lx.advance()
	}

	for {
		if lx.pos >= len(lx.src) {
			return lx.errorf("unterminated string")
		}
		c := lx.src[lx.pos]
		switch {
		case c == quote && !multi:
			lx.advance()
			tok.Str = sb.String()
			return nil
		case c == quote && multi:
			n := 0
			for lx.peekAt(n) == quote {
				n++
			}
			if n < 3 {
				for range n {
					sb.WriteByte(quote)
					lx.advance()
				}
				continue
			}
			if n > 5 {
				return lx.errorf("too many quotes at end of multi-line string")
			}
			for range n - 3 {
				sb.WriteByte(quote)
			}
			for range n {
				lx.advance()
			}
			tok.Str = sb.String()
			return nil
		case c == '\n':
			if !multi {
				return lx.errorf("unterminated string")
			}
			sb.WriteByte('\n')
			lx.advance()
		case c == '\r':
			if !multi || lx.peekAt(1) != '\n' {
				return lx.errorf("bare carriage return in string")
			}
			sb.WriteByte('\n')
			lx.advance()
			lx.advance()
		case c == '\\' && quote == '"':
			if multi && lx.lineEndingBackslash() {
				continue
			}
			if err := lx.lexEscape(&sb); err != nil {
				return err
			}
		default:
			r := lx.currentRune()
			if r == utf8.RuneError {
				return lx.errorf("invalid UTF-8 in string")
			}
			if isControl(r) && r != '\t' {
				return lx.errorf("control character in string")
			}
			sb.WriteRune(r)
			lx.advance()
		}
	}
}

// lineEndingBackslash consumes a backslash followed only by whitespace up
// to the end of line, plus all whitespace and newlines after it.
func (lx *Lexer) lineEndingBackslash() bool {
	i := 1
	for lx.peekAt(i) == ' ' || lx.peekAt(i) == '\t' {
		i++
	}
	if lx.peekAt(i) != '\n' && !(lx.peekAt(i) == '\r' && lx.peekAt(i+1) == '\n') {
		return false
	}
	lx.advance()
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case ' ', '\t', '\n':
			lx.advance()
		case '\r':
			if lx.peekAt(1) != '\n' {
				return true
			}
			lx.advance()
		default:
			return true
		}
	}
	return true
}

func (lx *Lexer) lexEscape(sb *strings.Builder) error {
	lx.advance() // backslash
	if lx.pos >= len(lx.src) {
		return lx.errorf("unterminated escape sequence")
	}
	c := lx.src[lx.pos]
	switch c {
	case 'b':
		sb.WriteByte('\b')
	case 't':
		sb.WriteByte('\t')
	case 'n':
		sb.WriteByte('\n')
	case 'f':
		sb.WriteByte('\f')
	case 'r':
		sb.WriteByte('\r')
	case 'e':
		sb.WriteByte(0x1b)
	case '"':
		sb.WriteByte('"')
	case '\\':
		sb.WriteByte('\\')
	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		if lx.pos+1+n > len(lx.src) {
			return lx.errorf("short unicode escape")
		}
		hex := lx.src[lx.pos+1 : lx.pos+1+n]
		code, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || !utf8.ValidRune(rune(code)) {
			return lx.errorf("invalid unicode escape")
		}
		sb.WriteRune(rune(code))
		for range n {
			lx.advance()
		}
	default:
		return lx.errorf("invalid escape sequence")
	}
	lx.advance()
	return nil
}

func (lx *Lexer) advance() {
	if lx.pos >= len(lx.src) {
		return
	}
	r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.pos += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
}

func (lx *Lexer) peekAt(off int) byte {
	if lx.pos+off < len(lx.src) {
		return lx.src[lx.pos+off]
	}
	return 0
}

func (lx *Lexer) currentRune() rune {
	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
	return r
}

// errorf builds a LexError at the current position naming the current
// character.
func (lx *Lexer) errorf(format string, args ...any) error {
	e := &LexError{Line: lx.line, Column: lx.col, Message: fmt.Sprintf(format, args...)}
	if lx.pos < len(lx.src) {
		e.Char = lx.currentRune()
	}
	return e
}

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) || c == '_' || c == '-'
}

func isNumberChar(c byte) bool {
	return isBareKeyChar(c) || c == '+' || c == '.' || c == ':'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isControl(r rune) bool { return r < 0x20 || r == 0x7f }

// looksLikeDate reports whether s starts with YYYY-MM-DD.
func looksLikeDate(s string) bool {
	return len(s) >= 10 && allDigits(s[0:4]) && s[4] == '-' && allDigits(s[5:7]) && s[7] == '-' && allDigits(s[8:10])
}

// looksLikeTime reports whether s starts with HH:MM.
func looksLikeTime(s string) bool {
	return len(s) >= 5 && allDigits(s[0:2]) && s[2] == ':' && allDigits(s[3:5])
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
