// Released under an MIT license. See LICENSE.

package eval

import (
	"testing"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/engine/base"
	"github.com/rho-lang/rho/internal/engine/compiler"
	"github.com/rho-lang/rho/internal/reader"
)

// runCompiled evaluates each top-level expression through the
// bytecode interpreter, falling back to the tree walker only where
// the compiler bails.
func runCompiled(t *testing.T, m *machine, src string) cell.I {
	t.Helper()

	exprs, err := reader.Parse("test", src, false)
	if err != nil {
		t.Fatalf("parse %q: %s", src, err.Error())
	}

	var result cell.I

	for i := 0; i < exprs.Len(); i++ {
		expr := exprs.At(i)

		if code, cerr := compiler.Compile(expr); cerr == nil {
			expr = code
		}

		var c *cond.T

		result, _, c = m.EvalTop(expr)
		if c != nil {
			t.Fatalf("run %q: %s", src, c.Message())
		}
	}

	return result
}

// Programs whose tree-walked and compiled runs must agree exactly.
func TestCompiledAgreesWithInterpreted(t *testing.T) {
	sources := []string{
		"x <- 3.5\ny <- 2L\nx * y + 1\n",
		"x <- 1:5\nx[3] <- 99\nx\n",
		"s <- 0\nfor (i in 1:100) s <- s + i\ns\n",
		"s <- 0\ni <- 0\nwhile (i < 20) { i <- i + 1; s <- s + i * i }\ns\n",
		"s <- 0\nrepeat { s <- s + 1; if (s >= 13) break }\ns\n",
		"s <- 0\nfor (i in 1:10) { if (i == 3) next; if (i > 7) break; s <- s + i }\ns\n",
		"if (1 > 2) \"yes\" else \"no\"\n",
		"TRUE && NA\n",
		"FALSE || NA\n",
		"FALSE && stop(\"not reached\")\n",
		"x <- 10\nswitch(\"b\", a = 1, b = 2, 3)\n",
		"switch(2, \"one\", \"two\", \"three\")\n",
		"x <- 1:6\ndim(x) <- c(2L, 3L)\nx[2, 3]\n",
		"s <- 0\nfor (i in seq_len(5)) s <- s + i\ns\n",
		"f <- function(n) { s <- 0\nfor (i in 1:n) s <- s + i\ns }\nf(10)\n",
		"l <- list(a = 5, b = 6)\nl$a + l$b\n",
		"x <- c(1, 2, 3)\nx[2] <- 9\nsum(x)\n",
		"x <- c(a = 1, b = 2)\nx[\"b\"]\n",
		"-(1:3)\n",
		"!c(TRUE, FALSE, NA)\n",
		"sqrt(16) + exp(0) + log(1)\n",
		"1:10\n",
		"x <- 2147483647L\nx + 1L\n",
		"f <- function(x, y = x * 2) x + y\nf(3)\n",
	}

	for _, src := range sources {
		ast, _ := run(t, New(), src)
		bc := runCompiled(t, New(), src)

		astText := base.Render(ast)
		bcText := base.Render(bc)

		if astText != bcText {
			t.Fatalf("%q: interpreted %q, compiled %q", src, astText, bcText)
		}
	}
}

// A global rebinding of an inlined operator must reach compiled code
// through the guard.
func TestCompiledRespectsShadowedOperators(t *testing.T) {
	src := "`+` <- function(a, b) 42\n1 + 2\n"

	ast, _ := run(t, New(), src)
	bc := runCompiled(t, New(), src)

	if got := number(t, ast); got != 42 {
		t.Fatalf("interpreted shadowed + = %v, want 42", got)
	}

	if got := number(t, bc); got != 42 {
		t.Fatalf("compiled shadowed + = %v, want 42", got)
	}
}

// Removing a binding must invalidate compiled code's binding cache.
func TestCompiledSeesRemovedBindings(t *testing.T) {
	m := New()

	src := "x <- 1\ng <- function() x\ny <- g()\nrm(x)\n"

	runCompiled(t, m, src)

	c := fail(t, m, "g()\n")

	if c.Message() != "object 'x' not found" {
		t.Fatalf("unexpected message %q", c.Message())
	}
}
