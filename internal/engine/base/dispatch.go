// Released under an MIT license. See LICENSE.

package base

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/closure"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/prim"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// A methodApplier runs a dispatched method in a frame that remembers
// the original caller.
type methodApplier interface {
	ApplyMethod(fn, call, args cell.I, e *env.T) cell.I
}

// OpsDispatch routes an operator call to a class method when an
// operand carries a class attribute. Methods are looked up as
// op.class first, then Ops.class. For a unary operator y is nil.
func OpsDispatch(
	ip prim.Interp, call cell.I, name string, x, y cell.I, e *env.T,
) (cell.I, bool) {
	for _, operand := range []cell.I{x, y} {
		if operand == nil {
			continue
		}

		for _, cls := range ClassesOf(operand) {
			fn := findMethod(e, name+"."+cls)
			if fn == nil {
				fn = findMethod(e, "Ops."+cls)
			}

			if fn == nil {
				continue
			}

			args := pair.Cons(x, pair.Null)
			if y != nil {
				args = pair.Cons(x, pair.Cons(y, pair.Null))
			}

			if ma, ok := ip.(methodApplier); ok {
				return ma.ApplyMethod(fn, call, args, e), true
			}

			return ip.Apply(fn, call, args, e), true
		}
	}

	return nil, false
}

// ClassesOf returns the explicit classes of a value, or nil when it
// has none.
func ClassesOf(c cell.I) []string {
	v, ok := c.(*vec.T)
	if !ok || c == pair.Null {
		return nil
	}

	a := v.Attr("class")
	if a == nil || !vec.IsKind(a, vec.Character) {
		return nil
	}

	return vec.To(a).Strings()
}

func findMethod(e *env.T, name string) cell.I {
	b := e.Lookup(sym.New(name))
	if b == nil {
		return nil
	}

	fn := b.Get()
	if closure.Is(fn) || prim.Is(fn) {
		return fn
	}

	return nil
}
