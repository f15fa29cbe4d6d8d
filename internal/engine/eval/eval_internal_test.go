// Released under an MIT license. See LICENSE.

package eval

import (
	"testing"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/reader"
)

func run(t *testing.T, m *machine, src string) (cell.I, bool) {
	t.Helper()

	exprs, err := reader.Parse("test", src, false)
	if err != nil {
		t.Fatalf("parse %q: %s", src, err.Error())
	}

	var result cell.I

	var visible bool

	for i := 0; i < exprs.Len(); i++ {
		var c *cond.T

		result, visible, c = m.EvalTop(exprs.At(i))
		if c != nil {
			t.Fatalf("eval %q: %s", src, c.Message())
		}
	}

	return result, visible
}

func fail(t *testing.T, m *machine, src string) *cond.T {
	t.Helper()

	exprs, err := reader.Parse("test", src, false)
	if err != nil {
		t.Fatalf("parse %q: %s", src, err.Error())
	}

	for i := 0; i < exprs.Len(); i++ {
		if _, _, c := m.EvalTop(exprs.At(i)); c != nil {
			return c
		}
	}

	t.Fatalf("eval %q: expected an error", src)

	return nil
}

func number(t *testing.T, c cell.I) float64 {
	t.Helper()

	v, ok := c.(*vec.T)
	if !ok {
		t.Fatalf("expected a numeric result, got %s", c.Name())
	}

	switch v.Kind() {
	case vec.Integer:
		return float64(v.Integers()[0])
	case vec.Double:
		return v.Reals()[0]
	}

	t.Fatalf("expected a numeric result, got %s", c.Name())

	return 0
}

func TestDefaultPromisesReferenceEachOther(t *testing.T) {
	m := New()

	result, visible := run(t, m,
		"f <- function(x = y, y = x) x + y\nf(y = 1)\n")

	if got := number(t, result); got != 2 {
		t.Fatalf("f(y = 1) = %v, want 2", got)
	}

	if !visible {
		t.Fatal("f(y = 1) should be visible")
	}
}

func TestSubscriptAssignmentCopies(t *testing.T) {
	m := New()

	result, _ := run(t, m, "x <- 1:5\nx[3] <- 99\nx\n")

	v := vec.To(result)
	if v.Kind() != vec.Integer {
		t.Fatalf("x is %v, want an integer vector", v.Kind())
	}

	want := []int32{1, 2, 99, 4, 5}

	for i, n := range v.Integers() {
		if n != want[i] {
			t.Fatalf("x[%d] = %d, want %d", i+1, n, want[i])
		}
	}

	if v.HasAttrs() {
		t.Fatal("x gained attributes through subscript assignment")
	}
}

func TestTailcallRecursionIsBounded(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"f <- function(n, acc = 0) if (n == 0) acc else Tailcall(f, n - 1, acc + n)\n"+
			"f(100000)\n")

	if got := number(t, result); got != 5000050000 {
		t.Fatalf("f(100000) = %v, want 5000050000", got)
	}
}

func TestComplexAssignmentDoesNotAlias(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"x <- list(a = list(b = 1))\nold <- x\nx$a$b <- 2\nx$a$b\n")

	if got := number(t, result); got != 2 {
		t.Fatalf("x$a$b = %v, want 2", got)
	}

	result, _ = run(t, m, "old$a$b\n")

	if got := number(t, result); got != 1 {
		t.Fatalf("old$a$b = %v, want 1: assignment aliased the old value", got)
	}
}

func TestAssignmentIsInvisible(t *testing.T) {
	m := New()

	if _, visible := run(t, m, "x <- 1\n"); visible {
		t.Fatal("assignment should be invisible")
	}

	if _, visible := run(t, m, "invisible(3)\n"); visible {
		t.Fatal("invisible() should be invisible")
	}

	if _, visible := run(t, m, "(x <- 2)\n"); !visible {
		t.Fatal("a parenthesised assignment should be visible")
	}
}

func TestLoops(t *testing.T) {
	m := New()

	tests := []struct {
		src  string
		want float64
	}{
		{"s <- 0\nfor (i in 1:10) s <- s + i\ns\n", 55},
		{"s <- 0\ni <- 0\nwhile (i < 10) { i <- i + 1; s <- s + i }\ns\n", 55},
		{"s <- 0\nrepeat { s <- s + 1; if (s >= 7) break }\ns\n", 7},
		{"s <- 0\nfor (i in 1:10) { if (i == 3) next; s <- s + i }\ns\n", 52},
		{"s <- 0\nfor (i in 1:10) { if (i > 4) break; s <- s + i }\ns\n", 10},
	}

	for _, test := range tests {
		result, _ := run(t, m, test.src)
		if got := number(t, result); got != test.want {
			t.Fatalf("%q = %v, want %v", test.src, got, test.want)
		}
	}
}

func TestLazyArgumentsAreNotForced(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"f <- function(a, b) a\nf(42, stop(\"never forced\"))\n")

	if got := number(t, result); got != 42 {
		t.Fatalf("f(42, ...) = %v, want 42", got)
	}
}

func TestPromisesForceOnce(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"n <- 0\nf <- function(x) { x; x; x }\nf({ n <<- n + 1; n })\nn\n")

	if got := number(t, result); got != 1 {
		t.Fatalf("promise forced %v times, want 1", got)
	}
}

func TestMissingArgument(t *testing.T) {
	m := New()

	c := fail(t, m, "f <- function(x) x\nf()\n")

	want := "argument \"x\" is missing, with no default"
	if c.Message() != want {
		t.Fatalf("got %q, want %q", c.Message(), want)
	}
}

func TestUnboundVariable(t *testing.T) {
	m := New()

	c := fail(t, m, "no_such_object\n")

	if c.Message() != "object 'no_such_object' not found" {
		t.Fatalf("unexpected message %q", c.Message())
	}
}

func TestTryCatchHandlesError(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"tryCatch(stop(\"boom\"), error = function(e) conditionMessage(e))\n")

	v := vec.To(result)
	if v.Kind() != vec.Character || v.Strings()[0] != "boom" {
		t.Fatalf("handler result = %v, want \"boom\"", v)
	}
}

func TestOnExitRunsOnError(t *testing.T) {
	m := New()

	run(t, m, "ran <- FALSE\n")

	fail(t, m, "f <- function() { on.exit(ran <<- TRUE); stop(\"x\") }\nf()\n")

	result, _ := run(t, m, "ran\n")

	if !vec.To(result).Bool() {
		t.Fatal("on.exit expression did not run during unwind")
	}
}

func TestReturnFromNestedCall(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"f <- function() { g <- function() return(1); g(); 2 }\nf()\n")

	if got := number(t, result); got != 2 {
		t.Fatalf("f() = %v, want 2: return escaped its own closure", got)
	}
}

func TestIntegerOverflowWarnsAndProducesNA(t *testing.T) {
	m := New()

	result, _ := run(t, m, "2147483647L + 1L\n")

	v := vec.To(result)
	if v.Kind() != vec.Integer || v.Integers()[0] != vec.NAInteger {
		t.Fatalf("overflow result = %v, want NA", v)
	}

	if len(m.Warnings()) == 0 {
		t.Fatal("integer overflow did not warn")
	}
}

func TestSuperAssignment(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"counter <- function() { n <- 0; function() { n <<- n + 1; n } }\n"+
			"c1 <- counter()\nc1()\nc1()\nc1()\n")

	if got := number(t, result); got != 3 {
		t.Fatalf("third call = %v, want 3", got)
	}
}

func TestRecallRecurses(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"f <- function(n) if (n <= 1) 1 else n * Recall(n - 1)\nf(5)\n")

	if got := number(t, result); got != 120 {
		t.Fatalf("f(5) = %v, want 120", got)
	}
}

func TestSubstituteSeesPromiseCode(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"f <- function(x) deparse(substitute(x))\nf(a + b)\n")

	v := vec.To(result)
	if v.Strings()[0] != "a + b" {
		t.Fatalf("substitute(x) deparsed to %q, want \"a + b\"", v.Strings()[0])
	}
}

func TestActiveBindingInvokesFunction(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"n <- 0\n"+
			"makeActiveBinding(\"x\", function() { n <<- n + 1; n }, globalenv())\n"+
			"x\nx\n")

	if got := number(t, result); got != 2 {
		t.Fatalf("second read of x = %v, want 2: binding not invoked per read", got)
	}
}

func TestRecursionDepthRestoredAfterCatch(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"f <- function() f()\ntryCatch(f(), error = function(e) 0)\n")

	if got := number(t, result); got != 0 {
		t.Fatalf("handler result = %v, want 0", got)
	}

	if m.depth != 0 {
		t.Fatalf("depth = %d after the catch, want 0", m.depth)
	}

	result, _ = run(t, m, "g <- function(n) if (n == 0) 0 else g(n - 1)\ng(1000)\n")

	if got := number(t, result); got != 0 {
		t.Fatalf("g(1000) = %v, want 0", got)
	}
}

func TestRmTakesNamesUnevaluated(t *testing.T) {
	m := New()

	run(t, m, "x <- 1\nrm(x)\n")

	c := fail(t, m, "x\n")

	if c.Message() != "object 'x' not found" {
		t.Fatalf("unexpected message %q", c.Message())
	}
}

func TestOperatorDispatchSeesCallerFrame(t *testing.T) {
	m := New()

	result, _ := run(t, m,
		"`+.money` <- function(a, b) get(\"rate\", envir = parent.frame())\n"+
			"x <- 1\nclass(x) <- \"money\"\n"+
			"f <- function() { rate <- 2; x + 1 }\nf()\n")

	if got := number(t, result); got != 2 {
		t.Fatalf("dispatched method saw %v, want the caller's rate 2", got)
	}
}

func TestPipeLowering(t *testing.T) {
	m := New()

	result, _ := run(t, m, "c(1, 2, 3) |> sum()\n")

	if got := number(t, result); got != 6 {
		t.Fatalf("pipe result = %v, want 6", got)
	}

	result, _ = run(t, m, "list(a = 1:3) |> _$a\n")

	v := vec.To(result)
	if v.Kind() != vec.Integer || v.Len() != 3 || v.Integers()[2] != 3 {
		t.Fatalf("placeholder extraction = %v, want 1:3", v)
	}
}
