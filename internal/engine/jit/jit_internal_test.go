// Released under an MIT license. See LICENSE.

package jit

import (
	"errors"
	"testing"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/closure"
	"github.com/rho-lang/rho/internal/common/type/env"
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

	return exprs.At(0)
}

// fn builds a closure from a function expression without running the
// evaluator.
func fn(t *testing.T, src string, e *env.T) *closure.T {
	t.Helper()

	expr := parse(t, src)
	if !pair.IsLang(expr) {
		t.Fatalf("%q did not parse to a call", src)
	}

	return closure.New(pair.Cadr(expr), pair.Caddr(expr), e)
}

func TestScoreWeighsStructure(t *testing.T) {
	flat := score(parse(t, "x + y\n"))
	loop := score(parse(t, "for (i in 1:10) x <- x + i\n"))
	def := score(parse(t, "function(n) n\n"))

	if flat >= loop {
		t.Fatalf("flat arithmetic scored %d, loop %d", flat, loop)
	}

	if def < weightFn {
		t.Fatalf("function definition scored %d, want at least %d", def, weightFn)
	}
}

func TestSmallBodyCompilesOnSecondSighting(t *testing.T) {
	p := New(Config{
		Enabled: 1, Strategy: StrategyAllSmall, MinScore: 50,
		CheckConstants: -1,
	})

	f := fn(t, "function(x) x + 1\n", env.New(nil))

	p.Consider(f)

	if bcode.Is(f.Body()) {
		t.Fatal("small body compiled on its first sighting")
	}

	if !f.MaybeJIT() {
		t.Fatal("first sighting did not mark the closure")
	}

	p.Consider(f)

	if !bcode.Is(f.Body()) {
		t.Fatal("small body did not compile on its second sighting")
	}
}

func TestNoScoreStrategyCompilesImmediately(t *testing.T) {
	p := New(Config{
		Enabled: 1, Strategy: StrategyNoScore, MinScore: 50,
		CheckConstants: -1,
	})

	f := fn(t, "function(x) x + 1\n", env.New(nil))

	p.Consider(f)

	if !bcode.Is(f.Body()) {
		t.Fatal("no-score strategy should compile on first sighting")
	}
}

func TestDisabledPolicyLeavesBodiesAlone(t *testing.T) {
	p := New(Config{
		Enabled: 0, Strategy: StrategyNoScore, MinScore: 0,
		CheckConstants: -1,
	})

	f := fn(t, "function(x) for (i in 1:10) x\n", env.New(nil))

	p.Consider(f)

	if bcode.Is(f.Body()) || f.MaybeJIT() {
		t.Fatal("disabled policy touched a closure")
	}
}

func TestUncompilableBodyIsMarkedOnce(t *testing.T) {
	p := New(Config{
		Enabled: 1, Strategy: StrategyNoScore, MinScore: 50,
		CheckConstants: -1,
	})

	body := pair.Cons(vec.Int(1), pair.Null)
	f := closure.New(pair.Null, body, env.New(nil))

	p.Consider(f)

	if !f.NoJIT() {
		t.Fatal("failed compilation did not set the no-compile bit")
	}

	if bcode.Is(f.Body()) {
		t.Fatal("uncompilable body was replaced")
	}

	// The bit short-circuits the next sighting.
	p.Consider(f)

	if bcode.Is(f.Body()) {
		t.Fatal("marked closure was compiled anyway")
	}
}

func TestCacheSharesBytecodeBetweenTwins(t *testing.T) {
	p := New(Config{
		Enabled: 1, Strategy: StrategyNoScore, MinScore: 50,
		CheckConstants: -1,
	})

	e := env.New(nil)

	f1 := fn(t, "function(x) x + 1\n", e)
	f2 := fn(t, "function(x) x + 1\n", e)

	p.Consider(f1)
	p.Consider(f2)

	if !bcode.Is(f1.Body()) || !bcode.Is(f2.Body()) {
		t.Fatal("twin closures did not both compile")
	}

	if f1.Body() != f2.Body() {
		t.Fatal("twin closures did not share cached bytecode")
	}
}

func TestCacheMissesAcrossEnvironments(t *testing.T) {
	p := New(Config{
		Enabled: 1, Strategy: StrategyNoScore, MinScore: 50,
		CheckConstants: -1,
	})

	f1 := fn(t, "function(x) x + 1\n", env.New(nil))
	f2 := fn(t, "function(x) x + 1\n", env.New(nil))

	p.Consider(f1)
	p.Consider(f2)

	if f1.Body() == f2.Body() {
		t.Fatal("closures under different top environments shared bytecode")
	}
}

func TestTopRespectsEnableLevel(t *testing.T) {
	loop := "for (i in 1:10) x <- x + i\n"

	p := New(Config{
		Enabled: 2, Strategy: StrategyNoScore, MinScore: 0,
		CheckConstants: -1,
	})

	if p.Top(parse(t, loop), env.New(nil)) != nil {
		t.Fatal("level 2 must not compile top-level expressions")
	}

	p = New(Config{
		Enabled: 3, Strategy: StrategyNoScore, MinScore: 0,
		CheckConstants: -1,
	})

	if p.Top(parse(t, loop), env.New(nil)) == nil {
		t.Fatal("level 3 should compile a top-level loop")
	}
}

func TestTopScoreGate(t *testing.T) {
	p := New(Config{
		Enabled: 3, Strategy: StrategyAllSmall, MinScore: 50,
		CheckConstants: -1,
	})

	if p.Top(parse(t, "1 + 2\n"), env.New(nil)) != nil {
		t.Fatal("trivial top-level expression should stay a tree")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("R_ENABLE_JIT", "1")
	t.Setenv("R_JIT_STRATEGY", "4")
	t.Setenv("R_MIN_JIT_SCORE", "7")
	t.Setenv("R_CHECK_CONSTANTS", "0")

	cfg := FromEnv()

	if cfg.Enabled != 1 || cfg.Strategy != StrategyNoCache ||
		cfg.MinScore != 7 || cfg.CheckConstants != 0 {
		t.Fatalf("unexpected config %+v", cfg)
	}

	t.Setenv("R_ENABLE_JIT", "bogus")

	if FromEnv().Enabled != 3 {
		t.Fatal("malformed value did not fall back to the default")
	}
}

func TestCheckConstantsDetectsMutation(t *testing.T) {
	p := New(Config{
		Enabled: 3, Strategy: StrategyNoScore, MinScore: 0,
		CheckConstants: 0,
	})

	bc := p.Top(parse(t, "x + 2.5\n"), env.New(nil))
	if bc == nil {
		t.Fatal("expression did not compile")
	}

	if err := p.CheckConstants(); err != nil {
		t.Fatalf("pristine constants reported modified: %s", err.Error())
	}

	for _, c := range bc.Consts() {
		if v, ok := c.(*vec.T); ok && v.Kind() == vec.Double {
			v.Reals()[0] = 99
		}
	}

	if err := p.CheckConstants(); !errors.Is(err, ErrConstantsModified) {
		t.Fatalf("err = %v, want ErrConstantsModified", err)
	}
}
