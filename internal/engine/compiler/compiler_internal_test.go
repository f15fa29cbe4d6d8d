// Released under an MIT license. See LICENSE.

package compiler

import (
	"errors"
	"testing"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/reader"
)

func parse(t *testing.T, src string) cell.I {
	t.Helper()

	exprs, err := reader.Parse("test", src, false)
	if err != nil {
		t.Fatalf("parse %q: %s", src, err.Error())
	}

	if exprs.Len() != 1 {
		t.Fatalf("parse %q: %d expressions, want 1", src, exprs.Len())
	}

	return exprs.At(0)
}

func compile(t *testing.T, src string) *bcode.T {
	t.Helper()

	code, err := Compile(parse(t, src))
	if err != nil {
		t.Fatalf("compile %q: %s", src, err.Error())
	}

	return code
}

// opcodes walks the stream, skipping operands.
func opcodes(t *testing.T, code *bcode.T) []int {
	t.Helper()

	ops := code.Code()
	if len(ops) == 0 || ops[0] != bcode.Version {
		t.Fatalf("stream does not begin with the version word")
	}

	found := []int{}

	for pc := 1; pc < len(ops); {
		op := ops[pc]
		if op < 0 || op >= bcode.OpCount {
			t.Fatalf("bad opcode %d at %d", op, pc)
		}

		found = append(found, op)
		pc += bcode.Arity[op] + 1
	}

	return found
}

func contains(ops []int, op int) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}

	return false
}

func TestStreamShape(t *testing.T) {
	code := compile(t, "1\n")

	if code.Version() != bcode.Version {
		t.Fatalf("version = %d, want %d", code.Version(), bcode.Version)
	}

	ops := opcodes(t, code)
	if ops[len(ops)-1] != bcode.RETURN {
		t.Fatal("stream does not end with RETURN")
	}

	if !vec.Is(code.Expr()) {
		t.Fatal("consts[0] is not the source expression")
	}
}

func TestSymbolLoadsThroughGetvar(t *testing.T) {
	ops := opcodes(t, compile(t, "x\n"))

	if !contains(ops, bcode.GETVAR) {
		t.Fatal("no GETVAR for a symbol")
	}
}

func TestArithmeticInlinesWithFallthrough(t *testing.T) {
	ops := opcodes(t, compile(t, "x + y\n"))

	if !contains(ops, bcode.ADD) {
		t.Fatal("no ADD for +")
	}

	if contains(ops, bcode.CALL) {
		t.Fatal("inlined + still emits a CALL")
	}
}

func TestInlinedOperatorCarriesGuard(t *testing.T) {
	ops := opcodes(t, compile(t, "x + y\n"))

	if !contains(ops, bcode.BASEGUARD) {
		t.Fatal("inlined operator is not guarded against shadowing")
	}
}

func TestOrdinaryCall(t *testing.T) {
	ops := opcodes(t, compile(t, "sum(x)\n"))

	if !contains(ops, bcode.GETFUN) || !contains(ops, bcode.CALL) {
		t.Fatal("call head not resolved through GETFUN/CALL")
	}
}

func TestForLoopWithoutCapturersSkipsContext(t *testing.T) {
	ops := opcodes(t, compile(t, "for (i in 1:3) i\n"))

	if !contains(ops, bcode.STARTFOR) || !contains(ops, bcode.STEPFOR) {
		t.Fatal("for loop missing STARTFOR/STEPFOR")
	}

	if contains(ops, bcode.STARTLOOPCNTXT) {
		t.Fatal("simple loop body should not pay for a context")
	}
}

func TestForLoopWithClosureGetsContext(t *testing.T) {
	ops := opcodes(t, compile(t, "for (i in 1:3) f(function() i)\n"))

	if !contains(ops, bcode.STARTLOOPCNTXT) || !contains(ops, bcode.ENDLOOPCNTXT) {
		t.Fatal("loop with a closure in the body needs a context")
	}
}

func TestWhileLoop(t *testing.T) {
	ops := opcodes(t, compile(t, "while (x < 10) x <- x + 1\n"))

	if !contains(ops, bcode.BRIFNOT) || !contains(ops, bcode.GOTO) {
		t.Fatal("while loop missing test or back-branch")
	}

	if !contains(ops, bcode.SETVAR) {
		t.Fatal("assignment in loop body missing SETVAR")
	}
}

func TestSubscriptAssignmentProtocol(t *testing.T) {
	ops := opcodes(t, compile(t, "x[i] <- v\n"))

	for _, want := range []int{
		bcode.INCLNK, bcode.STARTASSIGN, bcode.VECSUBASSIGN,
		bcode.ENDASSIGN, bcode.DECLNK, bcode.INVISIBLE,
	} {
		if !contains(ops, want) {
			t.Fatalf("missing %s in subscript assignment", bcode.OpName(want))
		}
	}
}

func TestTaggedSubscriptFallsBackToCall(t *testing.T) {
	ops := opcodes(t, compile(t, "x[i = 1]\n"))

	if contains(ops, bcode.VECSUBSET) {
		t.Fatal("tagged subscript should not inline")
	}
}

func TestRegularSwitchInlines(t *testing.T) {
	ops := opcodes(t, compile(t, "switch(x, a = 1, b = 2, 3)\n"))

	if !contains(ops, bcode.SWITCH) {
		t.Fatal("regular switch did not inline")
	}
}

func TestIrregularSwitchFallsBack(t *testing.T) {
	ops := opcodes(t, compile(t, "switch(x, a = 1, 2, 3)\n"))

	if contains(ops, bcode.SWITCH) {
		t.Fatal("mixed named and positional arms must not inline")
	}

	if !contains(ops, bcode.CALLSPECIAL) {
		t.Fatal("irregular switch should defer to the tree walker")
	}
}

func TestShortCircuitOperators(t *testing.T) {
	ops := opcodes(t, compile(t, "a && b || c\n"))

	for _, want := range []int{
		bcode.AND1ST, bcode.AND2ND, bcode.OR1ST, bcode.OR2ND,
	} {
		if !contains(ops, want) {
			t.Fatalf("missing %s", bcode.OpName(want))
		}
	}
}

func TestFunctionCompilesBodyWhenPossible(t *testing.T) {
	code := compile(t, "function(x) x + 1\n")

	ops := opcodes(t, code)
	if !contains(ops, bcode.MAKECLOSURE) {
		t.Fatal("no MAKECLOSURE for a function expression")
	}

	var parts *vec.T

	for _, c := range code.Consts() {
		if v, ok := c.(*vec.T); ok && v.Kind() == vec.List && v.Len() == 3 {
			parts = v

			break
		}
	}

	if parts == nil {
		t.Fatal("no closure constant in the pool")
	}

	if !bcode.Is(parts.At(2)) {
		t.Fatal("compilable body was not precompiled")
	}
}

func TestPairlistCannotCompile(t *testing.T) {
	expr := pair.Cons(vec.Int(1), pair.Null)

	if _, err := Compile(expr); !errors.Is(err, ErrCannotCompile) {
		t.Fatalf("err = %v, want ErrCannotCompile", err)
	}
}

func TestPromisedArgumentsBecomePromises(t *testing.T) {
	ops := opcodes(t, compile(t, "f(x + 1)\n"))

	if !contains(ops, bcode.MAKEPROM) {
		t.Fatal("language argument should be promised")
	}

	if !contains(ops, bcode.CALL) {
		t.Fatal("no CALL for the application")
	}
}
