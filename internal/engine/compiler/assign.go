// Released under an MIT license. See LICENSE.

package compiler

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/list"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Assign compiles the assignment operators. Simple symbol targets and
// single-level subscript targets on a symbol base compile to dedicated
// instructions; every other shape runs through the tree walker, which
// already knows the full replacement-function protocol.
func (c *compiler) assign(e, args cell.I, super bool) {
	if list.Length(args) != 2 {
		bail("malformed assignment")
	}

	target := pair.Car(args)
	value := pair.Cadr(args)

	if v, ok := target.(*vec.T); ok &&
		v.Kind() == vec.Character && v.Len() == 1 {
		target = sym.New(v.Strings()[0])
	}

	switch {
	case sym.Is(target):
		c.expr(value)

		op := bcode.SETVAR
		if super {
			op = bcode.SETVAR2
		}

		c.emit(op, c.constIndex(target))
		c.emit(bcode.INVISIBLE)
	case pair.IsLang(target):
		if !c.subassign(e, target, value, super) {
			c.special(e)
		}
	default:
		bail("invalid assignment target")
	}
}

// Subassign compiles x[i] <- v, x[[i]] <- v and x$name <- v when x is
// a plain symbol. The right-hand side stays on the stack as the value
// of the whole expression.
//
//nolint:gocognit,gocyclo
func (c *compiler) subassign(e, target, value cell.I, super bool) bool {
	fun := pair.Car(target)
	base := pair.Cadr(target)
	indices := pair.Cddr(target)

	if !sym.Is(fun) || !sym.Is(base) || base == cell.I(sym.Missing) {
		return false
	}

	rank := list.Length(indices)

	for a := indices; a != pair.Null; a = pair.Cdr(a) {
		if pair.Tag(a) != nil || pair.Car(a) == cell.I(sym.Missing) {
			return false
		}
	}

	name := sym.To(fun).String()

	start, end := bcode.STARTASSIGN, bcode.ENDASSIGN
	if super {
		start, end = bcode.STARTASSIGN2, bcode.ENDASSIGN2
	}

	ci := int(c.curExpr)
	si := c.constIndex(base)

	emitIndices := func() {
		for a := indices; a != pair.Null; a = pair.Cdr(a) {
			c.expr(pair.Car(a))
		}
	}

	switch {
	case name == "[" && (rank == 1 || rank == 2):
		c.expr(value)
		c.emit(bcode.INCLNK)
		c.emit(start, si)
		emitIndices()

		if rank == 1 {
			c.emit(bcode.VECSUBASSIGN, ci)
		} else {
			c.emit(bcode.MATSUBASSIGN, ci)
		}
	case name == "[" && rank > 2:
		c.expr(value)
		c.emit(bcode.INCLNK)
		c.emit(start, si)
		emitIndices()
		c.emit(bcode.SUBASSIGN_N, ci, rank)
	case name == "[[" && (rank == 1 || rank == 2):
		c.expr(value)
		c.emit(bcode.INCLNK)
		c.emit(start, si)
		emitIndices()

		if rank == 1 {
			c.emit(bcode.VECSUBASSIGN2, ci)
		} else {
			c.emit(bcode.MATSUBASSIGN2, ci)
		}
	case name == "$" && rank == 1 && sym.Is(pair.Car(indices)):
		c.expr(value)
		c.emit(bcode.INCLNK)
		c.emit(start, si)
		c.emit(bcode.DOLLARGETS, ci, c.constIndex(pair.Car(indices)))
	default:
		return false
	}

	c.emit(end, si)
	c.emit(bcode.DECLNK)
	c.emit(bcode.INVISIBLE)

	return true
}
