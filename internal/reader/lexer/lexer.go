// Released under an MIT license. See LICENSE.

// Package lexer provides a lexical scanner for the rho language.
//
// The rho lexer adapts the state function approach used by Go's
// text/template lexer and described in detail in Rob Pike's talk
// "Lexical Scanning in Go".
// See https://talks.golang.org/2011/lex.slide for more information.
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/michaelmacinnis/adapted"

	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/struct/loc"
	"github.com/rho-lang/rho/internal/common/struct/token"
)

// Brackets deeper than this abort the scan rather than the process.
const maxBracketDepth = 50

// T holds the state of the scanner.
type T struct {
	bytes string   // Buffer being scanned.
	first int      // Index of the current token's first byte.
	index int      // Index of the current byte.
	queue []string // Buffers waiting to be scanned.
	state action   // Current action.

	at    loc.T // Location of the current byte.
	start loc.T // Location of the current token's first byte.

	brackets []byte // Open bracket contexts, innermost last.
	done     bool   // No more input will arrive.

	err *cond.T

	// Decoded value for string-like tokens. The raw text is kept in
	// bytes; value holds the text with escapes replaced.
	value   strings.Builder
	escapes uint8

	tokens chan *token.T
}

// New creates a new T. Label can be a file name or other identifier.
func New(label string) *T {
	l := &T{
		at: loc.T{
			Name:   label,
			Line:   1,
			Parsed: 1,
			Byte:   1,
			Col:    1,
		},
	}

	l.start = l.at
	l.state = scanToken

	return l
}

// Done tells the lexer that no more input will arrive. After the
// current buffer is exhausted the lexer emits an End token.
func (l *T) Done() {
	l.done = true
}

// Err returns the condition for the most recent Error token.
func (l *T) Err() *cond.T {
	return l.err
}

// Scan passes a text buffer to the lexer for scanning.
// If a buffer is currently being scanned, the new buffer will
// be appended to the list of buffers waiting to be scanned.
func (l *T) Scan(text string) {
	l.queue = append(l.queue, text)
}

// Text is used to return the text corresponding to the current token.
func (l *T) Text() string {
	return l.bytes[l.first:l.index]
}

// Token returns the next scanned token, or nil if no token is
// available and more input may still arrive.
func (l *T) Token() *token.T {
	for {
		l.gather()

		select {
		case t := <-l.tokens:
			return t
		default:
		}

		state := l.state(l)
		if state != nil {
			l.state = state

			continue
		}

		// The current state needs more input.
		if !l.done {
			return nil
		}

		l.emit(token.End, "")
		l.state = scanToken
	}
}

type action func(*T) action

const eof = rune(-1)

// Escape kinds seen in the current string. Mixing them is an error.
const (
	sawBytes uint8 = 1 << iota
	sawUnicode
)

func (l *T) accept(r rune, w int) {
	switch r {
	case eof:
		return
	case '\n':
		l.at.Line++
		l.at.Parsed++
		l.at.Byte = 1
		l.at.Col = 1
	case '\t':
		l.at.Byte += w
		l.at.Col = ((l.at.Col-1)/8+1)*8 + 1
	default:
		l.at.Byte += w
		l.at.Col += runewidth.RuneWidth(r)
	}

	l.index += w
}

func (l *T) emit(c token.Class, v string) {
	l.tokens <- token.New(c, v, &l.start, &l.at)
	l.skip()
}

// Fail emits an Error token. Subclass may be empty for a generic
// parse error.
func (l *T) fail(subclass, msg string) action {
	if subclass == "" {
		subclass = "parseError"
	}

	l.err = cond.Parse(subclass, msg, &l.at)

	l.emit(token.Error, msg)

	return scanToken
}

func (l *T) gather() {
	if len(l.queue) == 0 {
		if l.tokens == nil {
			l.tokens = make(chan *token.T, 16)
		}

		return
	}

	length := len(l.bytes)
	bytes := strings.Join(l.queue, "")

	if length > 0 && l.first < length {
		// Prepend leftover to new bytes.
		bytes = l.bytes[l.first:] + bytes
	}

	l.queue = nil
	l.bytes = bytes
	l.index -= l.first
	l.first = 0
	l.tokens = make(chan *token.T, 16)
}

func (l *T) next() rune {
	r, w := l.peek()
	l.accept(r, w)

	return r
}

func (l *T) peek() (rune, int) {
	r, w := eof, 0
	if l.index < len(l.bytes) {
		r, w = utf8.DecodeRuneInString(l.bytes[l.index:])
	}

	return r, w
}

func (l *T) pop(open byte) {
	n := len(l.brackets)
	if n > 0 && l.brackets[n-1] == open {
		l.brackets = l.brackets[:n-1]
	}
}

func (l *T) push(open byte) bool {
	if len(l.brackets) >= maxBracketDepth {
		return false
	}

	l.brackets = append(l.brackets, open)

	return true
}

func (l *T) skip() {
	l.start = l.at
	l.first = l.index
}

// Newlines are tokens only where an expression can end: at top level
// and inside braces. Inside parentheses and square brackets they are
// whitespace.
func (l *T) suppressNewline() bool {
	n := len(l.brackets)

	return n > 0 && l.brackets[n-1] != '{'
}

// T states.

func scanToken(l *T) action {
	for {
		r, w := l.peek()

		switch r {
		case eof:
			return nil
		case ' ', '\t', '\r', '\f':
			l.accept(r, w)
			l.skip()

			continue
		case '\n':
			l.accept(r, w)
			if l.suppressNewline() {
				l.skip()

				continue
			}

			l.emit(token.Newline, "\n")

			return scanToken
		case '#':
			l.accept(r, w)

			return scanComment
		case '"', '\'':
			l.accept(r, w)
			l.value.Reset()
			l.escapes = 0

			return stringScanner(r)
		case '`':
			l.accept(r, w)
			l.value.Reset()

			return scanBackticked
		case '%':
			l.accept(r, w)

			return scanSpecial
		}

		if r >= '0' && r <= '9' {
			return scanNumber
		}

		if r == '.' {
			if d, _ := l.peekAt(w); d >= '0' && d <= '9' {
				return scanNumber
			}

			return scanSymbol
		}

		if r == 'r' || r == 'R' {
			if q, _ := l.peekAt(w); q == '"' || q == '\'' {
				l.accept(r, w)

				return scanRawString
			}
		}

		if unicode.IsLetter(r) {
			return scanSymbol
		}

		return scanOperator
	}
}

func scanOperator(l *T) action {
	r, w := l.peek()
	l.accept(r, w)

	switch r {
	case '(':
		if !l.push('(') {
			return l.fail("contextstackOverflow", "contextstack overflow")
		}

		l.emit(token.LParen, "(")
	case ')':
		l.pop('(')
		l.emit(token.RParen, ")")
	case '{':
		if !l.push('{') {
			return l.fail("contextstackOverflow", "contextstack overflow")
		}

		l.emit(token.LBrace, "{")
	case '}':
		l.pop('{')
		l.emit(token.RBrace, "}")
	case '[':
		if q, qw := l.peek(); q == '[' {
			if !l.push('[') || !l.push('[') {
				return l.fail("contextstackOverflow", "contextstack overflow")
			}

			l.accept(q, qw)
			l.emit(token.LBB, "[[")

			break
		}

		if !l.push('[') {
			return l.fail("contextstackOverflow", "contextstack overflow")
		}

		l.emit(token.LBracket, "[")
	case ']':
		l.pop('[')
		l.emit(token.RBracket, "]")
	case ',':
		l.emit(token.Comma, ",")
	case ';':
		l.emit(token.Semicolon, ";")
	case '+':
		l.emit(token.Plus, "+")
	case '*':
		l.emit(token.Star, "*")
	case '/':
		l.emit(token.Slash, "/")
	case '^':
		l.emit(token.Caret, "^")
	case '~':
		l.emit(token.Tilde, "~")
	case '?':
		l.emit(token.Question, "?")
	case '$':
		l.emit(token.Dollar, "$")
	case '@':
		l.emit(token.At, "@")
	case '\\':
		// Lambda shorthand: \(x) x + 1.
		l.emit(token.Function, "\\")
	case '_':
		if q, _ := l.peek(); q == '_' || q == '.' || isIdent(q) {
			return l.fail("", "unexpected input")
		}

		l.emit(token.Placeholder, "_")
	case '-':
		if q, qw := l.peek(); q == '>' {
			l.accept(q, qw)

			if q, qw = l.peek(); q == '>' {
				l.accept(q, qw)
				l.emit(token.RightAssign, "->>")
			} else {
				l.emit(token.RightAssign, "->")
			}

			break
		}

		l.emit(token.Minus, "-")
	case '=':
		switch q, qw := l.peek(); q {
		case '=':
			l.accept(q, qw)
			l.emit(token.Eq, "==")
		case '>':
			l.accept(q, qw)
			l.emit(token.PipeBind, "=>")
		default:
			l.emit(token.EqAssign, "=")
		}
	case '!':
		if q, qw := l.peek(); q == '=' {
			l.accept(q, qw)
			l.emit(token.Ne, "!=")
		} else {
			l.emit(token.Not, "!")
		}
	case '<':
		switch q, qw := l.peek(); q {
		case '=':
			l.accept(q, qw)
			l.emit(token.Le, "<=")
		case '-':
			l.accept(q, qw)
			l.emit(token.LeftAssign, "<-")
		case '<':
			l.accept(q, qw)

			if q, qw = l.peek(); q != '-' {
				return l.fail("", "unexpected input")
			}

			l.accept(q, qw)
			l.emit(token.LeftAssign, "<<-")
		default:
			l.emit(token.Lt, "<")
		}
	case '>':
		if q, qw := l.peek(); q == '=' {
			l.accept(q, qw)
			l.emit(token.Ge, ">=")
		} else {
			l.emit(token.Gt, ">")
		}
	case '&':
		if q, qw := l.peek(); q == '&' {
			l.accept(q, qw)
			l.emit(token.AndAnd, "&&")
		} else {
			l.emit(token.And, "&")
		}
	case '|':
		switch q, qw := l.peek(); q {
		case '|':
			l.accept(q, qw)
			l.emit(token.OrOr, "||")
		case '>':
			l.accept(q, qw)
			l.emit(token.PipeOp, "|>")
		default:
			l.emit(token.Or, "|")
		}
	case ':':
		switch q, qw := l.peek(); q {
		case ':':
			l.accept(q, qw)

			if q, qw = l.peek(); q == ':' {
				l.accept(q, qw)
				l.emit(token.NsGetInt, ":::")
			} else {
				l.emit(token.NsGet, "::")
			}
		case '=':
			l.accept(q, qw)
			l.emit(token.LeftAssign, ":=")
		default:
			l.emit(token.Colon, ":")
		}
	default:
		return l.fail("", "unexpected input")
	}

	return scanToken
}

func scanSymbol(l *T) action {
	for {
		r, w := l.peek()
		if !isIdent(r) {
			break
		}

		l.accept(r, w)
	}

	s := l.Text()

	if c, ok := keywords[s]; ok {
		l.emit(c, s)
	} else {
		l.emit(token.Symbol, s)
	}

	return scanToken
}

func scanNumber(l *T) action {
	r, w := l.peek()

	if r == '0' {
		if x, _ := l.peekAt(w); x == 'x' || x == 'X' {
			l.accept(r, w)
			l.next()

			return scanHexNumber
		}
	}

	digits := false

	for r >= '0' && r <= '9' {
		digits = true

		l.accept(r, w)
		r, w = l.peek()
	}

	if r == '.' {
		l.accept(r, w)

		for r, w = l.peek(); r >= '0' && r <= '9'; r, w = l.peek() {
			digits = true

			l.accept(r, w)
		}
	}

	if !digits {
		return l.fail("", "unexpected input")
	}

	if r == 'e' || r == 'E' {
		l.accept(r, w)

		r, w = l.peek()
		if r == '+' || r == '-' {
			l.accept(r, w)
			r, w = l.peek()
		}

		if r < '0' || r > '9' {
			return l.fail("", "unexpected input: exponent with no digits")
		}

		for r >= '0' && r <= '9' {
			l.accept(r, w)
			r, w = l.peek()
		}
	}

	return numberSuffix(l)
}

func scanHexNumber(l *T) action {
	digits := false

	r, w := l.peek()
	for isHex(r) {
		digits = true

		l.accept(r, w)
		r, w = l.peek()
	}

	if r == '.' {
		l.accept(r, w)

		for r, w = l.peek(); isHex(r); r, w = l.peek() {
			digits = true

			l.accept(r, w)
		}
	}

	if !digits {
		return l.fail("", "unexpected input: hex constant with no digits")
	}

	if r == 'p' || r == 'P' {
		l.accept(r, w)

		r, w = l.peek()
		if r == '+' || r == '-' {
			l.accept(r, w)
			r, w = l.peek()
		}

		if r < '0' || r > '9' {
			return l.fail("", "unexpected input: exponent with no digits")
		}

		for r >= '0' && r <= '9' {
			l.accept(r, w)
			r, w = l.peek()
		}
	}

	return numberSuffix(l)
}

func numberSuffix(l *T) action {
	r, w := l.peek()
	if r == 'L' || r == 'i' {
		l.accept(r, w)
		r, _ = l.peek()
	}

	// A number running straight into a letter is one token of garbage,
	// not two tokens.
	if isIdent(r) {
		return l.fail("", "unexpected input after numeric constant")
	}

	l.emit(token.NumConst, l.Text())

	return scanToken
}

func scanComment(l *T) action {
	for {
		r, w := l.peek()
		if r == eof {
			if !l.done {
				return nil
			}

			break
		}

		if r == '\n' {
			break
		}

		l.accept(r, w)
	}

	text := l.Text()

	if line, name, ok := lineDirective(text); ok {
		l.emit(token.Comment, text)

		// The newline ending the directive bumps the count, so the
		// line after the directive is numbered line.
		l.at.Line = line - 1
		if name != "" {
			l.at.Name = name
		}

		l.start = l.at

		return scanToken
	}

	l.emit(token.Comment, text)

	return scanToken
}

func scanSpecial(l *T) action {
	for {
		r := l.next()

		switch r {
		case eof:
			if !l.done {
				return nil
			}

			return l.fail("", "unexpected end of input in %-operator")
		case '\n':
			return l.fail("", "unexpected newline in %-operator")
		case '%':
			l.emit(token.Special, l.Text())

			return scanToken
		}
	}
}

func scanBackticked(l *T) action {
	for {
		r := l.next()

		switch r {
		case eof:
			if !l.done {
				return nil
			}

			return l.fail("", "unexpected end of input in quoted name")
		case '\n':
			return l.fail("", "unexpected newline in quoted name")
		case '`':
			l.emit(token.Symbol, l.value.String())

			return scanToken
		case '\\':
			q, qw := l.peek()
			if q == 'u' || q == 'U' {
				return l.fail("unicodeInBackticks",
					"\\u sequences not supported inside backticks")
			}

			decoded, err := adapted.ActualBytes(`\` + string(q))
			if err != nil {
				return l.fail("unrecognizedEscape",
					"'\\"+string(q)+"' is an unrecognized escape in quoted name")
			}

			l.accept(q, qw)
			l.value.WriteString(decoded)
		default:
			l.value.WriteRune(r)
		}
	}
}

// StringScanner returns the scanner for a string opened with quote.
// A fresh closure rather than a shared state so that an incremental
// scan can resume mid-string.
func stringScanner(quote rune) action {
	var scan action

	scan = func(l *T) action {
		for {
			r, w := l.peek()

			switch r {
			case eof:
				if !l.done {
					return nil
				}

				return l.fail("", "unexpected end of input in string")
			case quote:
				l.accept(r, w)

				l.emit(token.StrConst, l.value.String())

				return scanToken
			case '\\':
				if q, _ := l.peekAt(w); q == eof && !l.done {
					return scan
				}

				l.accept(r, w)

				if a := l.escapeSequence(scan); a != nil {
					return a
				}
			case 0:
				return l.fail("nulNotAllowed", "nul character not allowed")
			default:
				if isBidi(r) {
					return l.fail("bidiNotAllowed",
						"bidirectional formatting characters are not allowed")
				}

				l.accept(r, w)
				l.value.WriteRune(r)
			}
		}
	}

	return scan
}

// EscapeSequence decodes the escape after a consumed backslash into
// l.value. It returns nil on success, resume when more input is
// needed, and an error state otherwise.
func (l *T) escapeSequence(resume action) action {
	r, w := l.peek()

	switch {
	case r == eof:
		if !l.done {
			return resume
		}

		return l.fail("", "unexpected end of input in string")
	case r == 'x':
		l.accept(r, w)

		return l.hexEscape()
	case r == 'u' || r == 'U':
		l.accept(r, w)

		return l.unicodeEscape(r == 'U')
	case r >= '0' && r <= '7':
		return l.octalEscape()
	}

	decoded, err := adapted.ActualBytes(`\` + string(r))
	if err != nil {
		return l.fail("unrecognizedEscape",
			"'\\"+string(r)+"' is an unrecognized escape in character string")
	}

	l.accept(r, w)
	l.value.WriteString(decoded)

	return nil
}

func (l *T) hexEscape() action {
	if l.escapes&sawUnicode != 0 {
		return l.mixedEscapes()
	}

	l.escapes |= sawBytes

	v, n := 0, 0

	for n < 2 {
		r, w := l.peek()
		if !isHex(r) {
			break
		}

		l.accept(r, w)

		v = v*16 + hexValue(r)
		n++
	}

	if n == 0 {
		return l.fail("badHex", "'\\x' used without hex digits")
	}

	if v == 0 {
		return l.fail("nulNotAllowed", "nul character not allowed")
	}

	l.value.WriteByte(byte(v))

	return nil
}

func (l *T) octalEscape() action {
	if l.escapes&sawUnicode != 0 {
		return l.mixedEscapes()
	}

	l.escapes |= sawBytes

	v, n := 0, 0

	for n < 3 {
		r, w := l.peek()
		if r < '0' || r > '7' {
			break
		}

		l.accept(r, w)

		v = v*8 + int(r-'0')
		n++
	}

	if v == 0 {
		return l.fail("nulNotAllowed", "nul character not allowed")
	}

	if v > 0xFF {
		return l.fail("", "octal escape out of range")
	}

	l.value.WriteByte(byte(v))

	return nil
}

func (l *T) unicodeEscape(long bool) action {
	if l.escapes&sawBytes != 0 {
		return l.mixedEscapes()
	}

	l.escapes |= sawUnicode

	limit := 4
	kind := "\\u"

	if long {
		limit = 8
		kind = "\\U"
	}

	braced := false

	if r, w := l.peek(); r == '{' {
		braced = true

		l.accept(r, w)
	}

	v, n := 0, 0

	for {
		r, w := l.peek()
		if !isHex(r) {
			break
		}

		if n >= limit {
			return l.fail("UnicodeTooLong",
				"invalid "+kind+"{xxxx} sequence (too many hex digits)")
		}

		l.accept(r, w)

		v = v*16 + hexValue(r)
		n++
	}

	if n == 0 {
		return l.fail("badUnicodeHex", "'"+kind+"' used without hex digits")
	}

	if braced {
		r, w := l.peek()
		if r != '}' {
			return l.fail("badUnicodeHex", "invalid "+kind+"{xxxx} sequence")
		}

		l.accept(r, w)
	}

	if v == 0 {
		return l.fail("nulNotAllowed", "nul character not allowed")
	}

	if v > unicode.MaxRune || (v >= 0xD800 && v <= 0xDFFF) {
		return l.fail("invalidUnicode", "invalid Unicode point "+strconv.Itoa(v))
	}

	if isBidi(rune(v)) {
		return l.fail("bidiNotAllowed",
			"bidirectional formatting characters are not allowed")
	}

	l.value.WriteRune(rune(v))

	return nil
}

func (l *T) mixedEscapes() action {
	return l.fail("mixedEscapes",
		"mixing Unicode and octal/hex escapes in a string is not allowed")
}

func scanRawString(l *T) action {
	quote := l.next()

	dashes := 0

	for {
		r, w := l.peek()
		if r != '-' {
			break
		}

		l.accept(r, w)
		dashes++
	}

	open, ow := l.peek()

	var closer rune

	switch open {
	case '(':
		closer = ')'
	case '[':
		closer = ']'
	case '{':
		closer = '}'
	case eof:
		if !l.done {
			return nil
		}

		return l.fail("invalidRawLiteral", "malformed raw string literal")
	default:
		return l.fail("invalidRawLiteral", "malformed raw string literal")
	}

	l.accept(open, ow)

	terminator := string(closer) + strings.Repeat("-", dashes) + string(quote)

	return rawStringScanner(terminator)
}

// RawStringScanner returns the scanner for a raw string body. The body
// starts just past the opening delimiter, whose byte length can be
// recovered from the token text already consumed.
func rawStringScanner(terminator string) action {
	var scan action

	scan = func(l *T) action {
		for {
			if strings.HasPrefix(l.bytes[l.index:], terminator) {
				// Skip r, the quote, any dashes, and the open delimiter.
				body := l.first + len(terminator) + 1
				value := l.bytes[body:l.index]

				if strings.IndexByte(value, 0) >= 0 {
					return l.fail("nulNotAllowed", "nul character not allowed")
				}

				for range terminator {
					l.next()
				}

				l.emit(token.StrConst, value)

				return scanToken
			}

			r := l.next()
			if r == eof {
				if !l.done {
					return scan
				}

				return l.fail("", "unexpected end of input in raw string")
			}
		}
	}

	return scan
}

// Helper functions.

func hexValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	default:
		return int(r-'A') + 10
	}
}

func isBidi(r rune) bool {
	return (r >= 0x202A && r <= 0x202E) || (r >= 0x2066 && r <= 0x2069)
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'f') ||
		(r >= 'A' && r <= 'F')
}

func isIdent(r rune) bool {
	return r == '.' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lineDirective(comment string) (int, string, bool) {
	rest, ok := strings.CutPrefix(comment, "#line ")
	if !ok {
		return 0, "", false
	}

	rest = strings.TrimSpace(rest)

	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}

	if end == 0 {
		return 0, "", false
	}

	line, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, "", false
	}

	name := ""

	rest = strings.TrimSpace(rest[end:])
	if len(rest) >= 2 && rest[0] == '"' && rest[len(rest)-1] == '"' {
		name = rest[1 : len(rest)-1]
	}

	return line, name, true
}

func (l *T) peekAt(offset int) (rune, int) {
	r, w := eof, 0
	if l.index+offset < len(l.bytes) {
		r, w = utf8.DecodeRuneInString(l.bytes[l.index+offset:])
	}

	return r, w
}

//nolint:gochecknoglobals
var keywords = map[string]token.Class{
	"if":       token.If,
	"else":     token.Else,
	"for":      token.For,
	"in":       token.In,
	"while":    token.While,
	"repeat":   token.Repeat,
	"function": token.Function,
	"next":     token.Next,
	"break":    token.Break,

	"NULL": token.NullConst,

	"TRUE":          token.NumConst,
	"FALSE":         token.NumConst,
	"NA":            token.NumConst,
	"NA_integer_":   token.NumConst,
	"NA_real_":      token.NumConst,
	"NA_character_": token.NumConst,
	"Inf":           token.NumConst,
	"NaN":           token.NumConst,
}
