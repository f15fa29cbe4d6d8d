// Released under an MIT license. See LICENSE.

package reader_test

import (
	"errors"
	"testing"

	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/deparse"
	"github.com/rho-lang/rho/internal/reader"
)

// Check parses, deparses, reparses, and deparses again. The two
// deparsed forms must agree even when the first differs from the
// input.
func check(t *testing.T, src string) {
	t.Helper()

	exprs, err := reader.Parse("test", src, false)
	if err != nil {
		t.Fatalf("parse %q: %s", src, err.Error())
	}

	for i := 0; i < exprs.Len(); i++ {
		first := deparse.Text(exprs.At(i))

		again, err := reader.Parse("test", first+"\n", false)
		if err != nil {
			t.Fatalf("reparse %q: %s", first, err.Error())
		}

		second := deparse.Text(again.At(0))
		if first != second {
			t.Fatalf("%q deparsed to %q, then to %q", src, first, second)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	sources := []string{
		"x <- 1\n",
		"f <- function(x, y = 2) x + y\n",
		"if (a > b) a else b\n",
		"for (i in 1:10) print(i)\n",
		"while (TRUE) break\n",
		"x[c(1, 2)] <- NA\n",
		"l$a$b <- \"text\"\n",
		"g(...)\n",
		"x %% 2 == 0\n",
		"-x^2\n",
		"`odd name`(1)\n",
		"function(...) list(...)\n",
		"switch(x, a = 1, b = 2)\n",
		"repeat { x <- x + 1; if (x > 3) break }\n",
		"x[[i]][j]\n",
		"a && b || !c\n",
	}

	for _, src := range sources {
		check(t, src)
	}
}

func TestParseAttachesSourceAttributes(t *testing.T) {
	exprs, err := reader.Parse("test", "x <- 1\n", false)
	if err != nil {
		t.Fatalf("parse: %s", err.Error())
	}

	f := exprs.Attr("srcfile")
	if f == nil || vec.To(f).Strings()[0] != "test" {
		t.Fatalf("srcfile attribute = %v", f)
	}

	if exprs.Attr("wholeSrcref") == nil {
		t.Fatal("no wholeSrcref attribute")
	}
}

func TestParseData(t *testing.T) {
	exprs, err := reader.Parse("test", "x <- 1\n# c\n", false)
	if err != nil {
		t.Fatalf("parse: %s", err.Error())
	}

	d := vec.To(exprs.Attr("parseData"))

	cls := d.Attr("class")
	if cls == nil || vec.To(cls).Strings()[0] != "parseData" {
		t.Fatalf("class attribute = %v", cls)
	}

	dim := vec.To(d.Attr("dim")).Integers()
	if dim[0] != 8 {
		t.Fatalf("dim = %v, want 8 rows", dim)
	}

	n := int(dim[1])

	tokens := vec.To(d.Attr("tokens")).Strings()
	text := vec.To(d.Attr("text")).Strings()

	if len(tokens) != n || len(text) != n {
		t.Fatalf("parallel vectors have %d and %d entries, table %d",
			len(tokens), len(text), n)
	}

	row := func(name string) int {
		for i, tok := range tokens {
			if tok == name {
				return i
			}
		}

		t.Fatalf("no %s row in %v", name, tokens)

		return -1
	}

	for _, want := range []string{
		"SYMBOL", "LEFT_ASSIGN", "NUM_CONST", "COMMENT",
	} {
		row(want)
	}

	if text[row("SYMBOL")] != "x" {
		t.Fatalf("SYMBOL text = %q", text[row("SYMBOL")])
	}

	if text[row("COMMENT")] != "# c" {
		t.Fatalf("COMMENT text = %q", text[row("COMMENT")])
	}

	ints := d.Integers()

	// Terminals must be claimed by expression rows.
	i := row("SYMBOL")

	parent := ints[i*8+7]
	if parent <= 0 {
		t.Fatalf("SYMBOL parent = %d, want an expression id", parent)
	}

	if ints[i*8+4] != 1 {
		t.Fatal("SYMBOL row not marked terminal")
	}

	// A comment with no following expression belongs to the top level.
	i = row("COMMENT")
	if ints[i*8+7] != 0 {
		t.Fatalf("COMMENT parent = %d, want 0", ints[i*8+7])
	}
}

func TestPipeErrors(t *testing.T) {
	tests := []struct {
		src      string
		pipeBind bool
		class    string
	}{
		{"1 |> 2\n", false, "RHSnotFnCall"},
		{"1 |> _()\n", false, "placeholderInRHSFn"},
		{"1 |> f(_)\n", false, "placeholderNotNamed"},
		{"1 |> f(a = _, b = _)\n", false, "tooManyPlaceholders"},
		{"1 |> x => x + 1\n", false, "pipebindDisabled"},
		{"1 |> f() => 2\n", true, "notASymbol"},
	}

	for _, test := range tests {
		_, err := reader.Parse("test", test.src, test.pipeBind)
		if err == nil {
			t.Fatalf("parse %q: expected an error", test.src)
		}

		var c *cond.T
		if !errors.As(err, &c) {
			t.Fatalf("parse %q: error is not a condition: %v", test.src, err)
		}

		if !c.Is(test.class) || !c.Is("parseError") {
			t.Fatalf("parse %q: classes %v, want %s", test.src, c.Classes(), test.class)
		}

		if c.Field("lineno") == nil {
			t.Fatalf("parse %q: no source position on the error", test.src)
		}
	}
}

func TestPipeBindLowersToFunctionCall(t *testing.T) {
	exprs, err := reader.Parse("test", "1 |> x => x + 1\n", true)
	if err != nil {
		t.Fatalf("parse: %s", err.Error())
	}

	got := deparse.Text(exprs.At(0))

	want := "(function(x) x + 1)(1)"
	if got != want {
		t.Fatalf("pipe bind lowered to %q, want %q", got, want)
	}
}

func TestIncrementalScan(t *testing.T) {
	r := reader.New("test")

	v, err := r.Scan("f <- function(x) {")
	if v != nil || err != nil {
		t.Fatalf("open brace: %v, %v", v, err)
	}

	if !r.Pending() {
		t.Fatal("reader not pending mid-expression")
	}

	if v, err = r.Scan("  x + 1"); v != nil || err != nil {
		t.Fatalf("body line: %v, %v", v, err)
	}

	v, err = r.Scan("}")
	if err != nil {
		t.Fatalf("close brace: %s", err.Error())
	}

	if v == nil || vec.To(v).Len() != 1 {
		t.Fatalf("completed input parsed to %v", v)
	}

	if r.Pending() {
		t.Fatal("reader still pending after a complete parse")
	}
}

func TestScanResetsAfterError(t *testing.T) {
	r := reader.New("test")

	if _, err := r.Scan("x + )"); err == nil {
		t.Fatal("malformed input did not error")
	}

	if r.Pending() {
		t.Fatal("reader kept lines from a failed parse")
	}

	v, err := r.Scan("1 + 1")
	if err != nil || v == nil {
		t.Fatalf("reader did not recover: %v, %v", v, err)
	}
}
