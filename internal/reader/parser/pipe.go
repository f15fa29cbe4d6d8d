// Released under an MIT license. See LICENSE.

package parser

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/struct/token"
	"github.com/rho-lang/rho/internal/common/type/list"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
)

// Pipe parses the right side of |> and lowers the whole pipe into an
// ordinary call. Called with the |> token already consumed.
func (p *T) pipe(lhs cell.I, at *token.T) cell.I {
	rhs := p.expression(precColon)

	if p.peek().Is(token.PipeBind) {
		if !p.pipeBind {
			panic(cond.Parse("pipebindDisabled",
				"use of pipe bind => is disabled", at.Source()))
		}

		if !sym.Is(rhs) {
			panic(cond.Parse("notASymbol",
				"left side of => must be a symbol", at.Source()))
		}

		p.consume()
		p.newlines()

		// The body extends through every operator looser than => down
		// to (but excluding) the assignment forms.
		body := p.expression(precTilde)

		formals := pair.ConsTagged(rhs, sym.Missing, pair.Null)
		fn := list.Call(sym.New("function"), formals, body)

		return pair.Lang1(fn, pair.Cons(lhs, pair.Null))
	}

	return lowerPipe(lhs, rhs, at)
}

// LowerPipe rewrites lhs |> rhs. An extractor chain ending in the
// placeholder has the placeholder replaced; a named argument equal to
// the placeholder is replaced; otherwise lhs becomes the first
// positional argument of rhs.
func lowerPipe(lhs, rhs cell.I, at *token.T) cell.I {
	ph := cell.I(sym.New("_"))

	if !pair.IsLang(rhs) {
		panic(cond.Parse("RHSnotFnCall",
			"the pipe operator requires a function call as RHS", at.Source()))
	}

	head := pair.Car(rhs)
	if head == ph {
		panic(cond.Parse("placeholderInRHSFn",
			"pipe placeholder cannot be the RHS function", at.Source()))
	}

	if isExtractor(head) && substitutePlaceholder(rhs, lhs, ph) {
		return rhs
	}

	count := 0

	for args := pair.Cdr(rhs); args != pair.Null; args = pair.Cdr(args) {
		if pair.Car(args) != ph {
			continue
		}

		if pair.Tag(args) == nil {
			panic(cond.Parse("placeholderNotNamed",
				"pipe placeholder can only be used as a named argument",
				at.Source()))
		}

		count++

		pair.SetCar(args, lhs)
	}

	if count > 1 {
		panic(cond.Parse("tooManyPlaceholders",
			"pipe placeholder may only appear once", at.Source()))
	}

	if count == 1 {
		return rhs
	}

	return pair.Lang1(head, pair.Cons(lhs, pair.Cdr(rhs)))
}

// SubstitutePlaceholder walks a chain of extractor calls along the
// first argument; if the chain bottoms out at the placeholder, it is
// replaced with lhs.
func substitutePlaceholder(c, lhs, ph cell.I) bool {
	for {
		if !isExtractor(pair.Car(c)) {
			return false
		}

		args := pair.Cdr(c)
		if args == pair.Null {
			return false
		}

		first := pair.Car(args)
		if first == ph {
			pair.SetCar(args, lhs)

			return true
		}

		if !pair.IsLang(first) {
			return false
		}

		c = first
	}
}

func isExtractor(head cell.I) bool {
	if !sym.Is(head) {
		return false
	}

	switch sym.To(head).String() {
	case "$", "@", "[", "[[":
		return true
	}

	return false
}
