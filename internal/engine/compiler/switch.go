// Released under an MIT license. See LICENSE.

package compiler

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// SwitchExpr compiles switch when its shape is regular: either every
// alternative is named, with at most one unnamed default, or none is.
// Anything else runs through the tree walker.
//
// The SWITCH instruction carries two label vectors in the constant
// pool. The character vector maps each name to its target, with the
// default appended; the numeric vector maps positions. Both end with
// the no-match target, which produces an invisible NULL. The vectors
// are patched once every alternative has been placed.
//
//nolint:gocognit,gocyclo,funlen
func (c *compiler) switchExpr(e, args cell.I) {
	if args == pair.Null {
		bail("switch with no selector")
	}

	if pair.Tag(args) != nil && sym.To(pair.Tag(args)).String() != "EXPR" {
		c.special(e)

		return
	}

	type arm struct {
		name string
		tag  bool
		body cell.I
	}

	arms := []arm{}
	tags := 0
	dflt := -1

	for a := pair.Cdr(args); a != pair.Null; a = pair.Cdr(a) {
		name := ""
		tag := pair.Tag(a)

		if tag != nil {
			name = sym.To(tag).String()
			tags++
		} else {
			if dflt >= 0 && tags > 0 {
				// Two unnamed alternatives alongside named ones.
				c.special(e)

				return
			}

			dflt = len(arms)
		}

		arms = append(arms, arm{name: name, tag: tag != nil, body: pair.Car(a)})
	}

	if tags > 0 && tags < len(arms)-1 {
		c.special(e)

		return
	}

	c.expr(pair.Car(args))

	miss := c.newLabel()
	done := c.newLabel()

	labels := make([]*label, len(arms))
	for i := range labels {
		labels[i] = c.newLabel()
	}

	// A named alternative with an empty body falls through to the next
	// alternative that has one.
	effective := func(i int) *label {
		for j := i; j < len(arms); j++ {
			if arms[j].body != cell.I(sym.Missing) {
				return labels[j]
			}
		}

		return miss
	}

	names := vec.Null()
	charPatch := []*label{}

	if tags > 0 {
		nv := vec.New(vec.Character, tags)
		at := 0

		for i, a := range arms {
			if !a.tag {
				continue
			}

			nv.Strings()[at] = a.name
			at++

			charPatch = append(charPatch, effective(i))
		}

		names = nv
	}

	if dflt >= 0 {
		charPatch = append(charPatch, effective(dflt))
	} else {
		charPatch = append(charPatch, miss)
	}

	numPatch := []*label{}

	for i, a := range arms {
		if a.body == cell.I(sym.Missing) {
			numPatch = append(numPatch, miss)
		} else {
			numPatch = append(numPatch, labels[i])
		}
	}

	numPatch = append(numPatch, miss)

	charVec := vec.New(vec.Integer, len(charPatch))
	numVec := vec.New(vec.Integer, len(numPatch))

	c.emit(bcode.SWITCH, int(c.curExpr), c.constIndex(names),
		c.constIndex(charVec), c.constIndex(numVec))

	for i, a := range arms {
		if a.body == cell.I(sym.Missing) {
			c.place(labels[i])

			continue
		}

		c.place(labels[i])
		c.expr(a.body)
		c.emitJump(bcode.GOTO, nil, done)
	}

	c.place(miss)
	c.emit(bcode.LDNULL)
	c.emit(bcode.INVISIBLE)

	c.place(done)

	for i, l := range charPatch {
		charVec.Integers()[i] = int32(l.pos)
	}

	for i, l := range numPatch {
		numVec.Integers()[i] = int32(l.pos)
	}
}
