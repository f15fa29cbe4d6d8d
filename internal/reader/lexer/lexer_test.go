// Released under an MIT license. See LICENSE.

package lexer

import (
	"testing"

	"github.com/rho-lang/rho/internal/common/struct/token"
)

func scan(t *testing.T, src string) []*token.T {
	t.Helper()

	l := New("test")
	l.Scan(src)
	l.Done()

	tokens := []*token.T{}

	for {
		tok := l.Token()
		if tok.Is(token.End) {
			return tokens
		}

		if tok.Is(token.Error) {
			t.Fatalf("scan %q: %s", src, l.Err().Message())
		}

		tokens = append(tokens, tok)
	}
}

// scanError scans until the first Error token and returns its condition.
func scanError(t *testing.T, src string) string {
	t.Helper()

	l := New("test")
	l.Scan(src)
	l.Done()

	for {
		tok := l.Token()
		if tok.Is(token.Error) {
			return l.Err().Message()
		}

		if tok.Is(token.End) {
			t.Fatalf("scan %q: expected an error", src)
		}
	}
}

func one(t *testing.T, src string, class token.Class) *token.T {
	t.Helper()

	tokens := scan(t, src)
	if len(tokens) == 0 {
		t.Fatalf("scan %q: no tokens", src)
	}

	tok := tokens[0]
	if !tok.Is(class) {
		t.Fatalf("scan %q: %s, want %s", src, tok.Class().String(), class.String())
	}

	return tok
}

func TestOperators(t *testing.T) {
	tests := []struct {
		src   string
		class token.Class
	}{
		{"<-", token.LeftAssign},
		{"<<-", token.LeftAssign},
		{":=", token.LeftAssign},
		{"->", token.RightAssign},
		{"->>", token.RightAssign},
		{"=", token.EqAssign},
		{"==", token.Eq},
		{"!=", token.Ne},
		{"<=", token.Le},
		{">=", token.Ge},
		{"&&", token.AndAnd},
		{"&", token.And},
		{"||", token.OrOr},
		{"|>", token.PipeOp},
		{"=>", token.PipeBind},
		{"|", token.Or},
		{"::", token.NsGet},
		{":::", token.NsGetInt},
		{":", token.Colon},
		{"%in%", token.Special},
		{"%%", token.Special},
	}

	for _, test := range tests {
		tok := one(t, test.src, test.class)
		if tok.Value() != test.src {
			t.Fatalf("scan %q: value %q", test.src, tok.Value())
		}
	}
}

func TestNumbers(t *testing.T) {
	for _, src := range []string{
		"1", "3.5", ".5", "1e3", "1e-2", "2.5E+10",
		"0x1F", "0xAp2", "10L", "0xFFL", "2i", "1.5i",
	} {
		tok := one(t, src, token.NumConst)
		if tok.Value() != src {
			t.Fatalf("scan %q: value %q", src, tok.Value())
		}
	}
}

func TestNumberRunningIntoLetterIsGarbage(t *testing.T) {
	scanError(t, "1x")
	scanError(t, "1e")
	scanError(t, "0x")
}

func TestKeywords(t *testing.T) {
	one(t, "if", token.If)
	one(t, "function", token.Function)
	one(t, "break", token.Break)
	one(t, "NULL", token.NullConst)
	one(t, "TRUE", token.NumConst)
	one(t, "NA_real_", token.NumConst)

	// Not keywords, just symbols that start like them.
	one(t, "iffy", token.Symbol)
	one(t, "functional", token.Symbol)
}

func TestLambdaShorthand(t *testing.T) {
	tokens := scan(t, "\\(x) x")

	if !tokens[0].Is(token.Function) {
		t.Fatalf("backslash scanned as %s", tokens[0].Class().String())
	}
}

func TestPlaceholder(t *testing.T) {
	one(t, "_", token.Placeholder)

	scanError(t, "_x")
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"plain"`, "plain"},
		{`"a\tb"`, "a\tb"},
		{`"a\"b"`, `a"b`},
		{`'single'`, "single"},
		{`"\x41"`, "A"},
		{`"\101"`, "A"},
		{`"A"`, "A"},
		{`"\u{41}"`, "A"},
		{`"\U0001F600"`, "\U0001F600"},
	}

	for _, test := range tests {
		tok := one(t, test.src, token.StrConst)
		if tok.Value() != test.want {
			t.Fatalf("scan %s: value %q, want %q", test.src, tok.Value(), test.want)
		}
	}
}

func TestStringEscapeErrors(t *testing.T) {
	scanError(t, `"\x41\u42"`) // Mixed byte and Unicode escapes.
	scanError(t, `"\q"`)
	scanError(t, `"\x"`)
	scanError(t, `"\u{D800}"`) // Surrogate.
	scanError(t, `"\x00"`)     // Nul.
	scanError(t, "\"unterminated")
}

func TestRawStrings(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`r"(no \escape)"`, `no \escape`},
		{`R"[brackets]"`, "brackets"},
		{`r'-{dashed "quote"}-'`, `dashed "quote"`},
		{`r"(a)b)"`, "a)b"},
	}

	for _, test := range tests {
		tok := one(t, test.src, token.StrConst)
		if tok.Value() != test.want {
			t.Fatalf("scan %s: value %q, want %q", test.src, tok.Value(), test.want)
		}
	}

	scanError(t, `r"no delimiter"`)
}

func TestBacktickedNames(t *testing.T) {
	tok := one(t, "`odd name`", token.Symbol)

	if tok.Value() != "odd name" {
		t.Fatalf("value %q", tok.Value())
	}

	scanError(t, "`unterminated\n")
}

func TestNewlinesInsideBracketsAreWhitespace(t *testing.T) {
	for _, tok := range scan(t, "f(1,\n2)") {
		if tok.Is(token.Newline) {
			t.Fatal("newline token inside parentheses")
		}
	}

	newlines := 0

	for _, tok := range scan(t, "{1\n2}") {
		if tok.Is(token.Newline) {
			newlines++
		}
	}

	if newlines != 1 {
		t.Fatalf("%d newline tokens inside braces, want 1", newlines)
	}
}

func TestDoubleBracket(t *testing.T) {
	tokens := scan(t, "x[[1]]")

	if !tokens[1].Is(token.LBB) {
		t.Fatalf("x[[ scanned as %s", tokens[1].Class().String())
	}
}

func TestComments(t *testing.T) {
	tokens := scan(t, "x # trailing\n")

	if !tokens[1].Is(token.Comment) || tokens[1].Value() != "# trailing" {
		t.Fatalf("comment scanned as %v", tokens[1])
	}
}

func TestLineDirective(t *testing.T) {
	tokens := scan(t, "x\n#line 10 \"other\"\ny\n")

	var y *token.T

	for _, tok := range tokens {
		if tok.Is(token.Symbol) && tok.Value() == "y" {
			y = tok
		}
	}

	if y == nil {
		t.Fatal("no y token")
	}

	if y.Source().Line != 10 || y.Source().Name != "other" {
		t.Fatalf("y at %s line %d, want other line 10",
			y.Source().Name, y.Source().Line)
	}
}

func TestIncrementalScan(t *testing.T) {
	l := New("test")

	l.Scan(`"ab`)

	if tok := l.Token(); tok != nil {
		t.Fatalf("mid-string token %v", tok)
	}

	l.Scan(`c"`)
	l.Done()

	tok := l.Token()
	if !tok.Is(token.StrConst) || tok.Value() != "abc" {
		t.Fatalf("resumed string scanned as %v", tok)
	}
}
