// Released under an MIT license. See LICENSE.

package vm

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/interface/truth"
	"github.com/rho-lang/rho/internal/common/struct/binding"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/promise"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Operand-stack slot tags. Scalars and compact integer ranges stay
// unboxed until something needs them as cells.
const (
	tagBoxed int8 = iota
	tagDouble
	tagInteger
	tagLogical // b is 0, 1, or 2 for NA.
	tagRange   // i through j inclusive, either direction.
)

type slot struct {
	tag int8
	b   byte
	i   int32
	j   int32
	d   float64
	c   cell.I
}

func boxedSlot(c cell.I) slot   { return slot{tag: tagBoxed, c: c} }
func doubleSlot(d float64) slot { return slot{tag: tagDouble, d: d} }
func intSlot(i int32) slot      { return slot{tag: tagInteger, i: i} }

func logicalSlot(b byte) slot { return slot{tag: tagLogical, b: b} }

func (v *vm) push(s slot) {
	v.stack = append(v.stack, s)
}

func (v *vm) pushBoxed(c cell.I) {
	v.stack = append(v.stack, boxedSlot(c))
}

func (v *vm) pop() slot {
	n := len(v.stack) - 1
	s := v.stack[n]
	v.stack = v.stack[:n]

	return s
}

func (v *vm) peek() slot {
	return v.stack[len(v.stack)-1]
}

// Box materializes a slot as a cell.
func (v *vm) box(s slot) cell.I {
	switch s.tag {
	case tagDouble:
		return vec.Real(s.d)
	case tagInteger:
		return vec.Int(s.i)
	case tagLogical:
		if s.b == 2 {
			return vec.NA()
		}

		return vec.Bool(s.b == 1)
	case tagRange:
		return vec.Seq(s.i, s.j)
	}

	return s.c
}

// A forState is the single stack cell a running for loop keeps: the
// sequence, the position, and the loop variable's binding.
type forState struct {
	seq  slot
	b    *binding.T
	i, n int
}

func (f *forState) Equal(c cell.I) bool { return c == cell.I(f) }
func (f *forState) Name() string        { return "loopstate" }

func (v *vm) startFor(at int) {
	call := v.constAt(at + 1)
	s := sym.To(v.consts[v.ops[at+2]])

	seq := v.pop()

	n := 0

	switch seq.tag {
	case tagRange:
		n = int(seq.j) - int(seq.i)
		if n < 0 {
			n = -n
		}

		n++
	case tagBoxed:
		switch {
		case seq.c == pair.Null:
		case vec.Is(seq.c):
			n = vec.To(seq.c).Len()
		case pair.Is(seq.c):
			for d := seq.c; d != pair.Null; d = pair.Cdr(d) {
				n++
			}
		default:
			panic(cond.Error("invalid for() loop sequence", call))
		}
	default:
		// A scalar iterates once.
		n = 1
	}

	b := v.env.Local(s)
	if b == nil {
		b = v.env.Define(s, pair.Null)
	}

	v.push(boxedSlot(&forState{seq: seq, b: b, n: n}))
}

// StepFor advances the loop on top of the stack, reporting whether
// another iteration should run.
func (v *vm) stepFor() bool {
	st := v.peek().c.(*forState) //nolint:forcetypeassert

	if st.i >= st.n {
		return false
	}

	i := st.i
	st.i++

	switch st.seq.tag {
	case tagRange:
		if st.seq.j >= st.seq.i {
			st.b.SetInteger(st.seq.i + int32(i))
		} else {
			st.b.SetInteger(st.seq.i - int32(i))
		}
	case tagBoxed:
		v.setLoopElement(st, i)
	default:
		st.b.Set(v.box(st.seq))
	}

	return true
}

func (v *vm) setLoopElement(st *forState, i int) {
	if w, ok := st.seq.c.(*vec.T); ok {
		switch w.Kind() {
		case vec.Integer:
			st.b.SetInteger(w.Integers()[i])

			return
		case vec.Double:
			st.b.SetDouble(w.Reals()[i])

			return
		default:
			st.b.Set(w.At(i))

			return
		}
	}

	d := st.seq.c
	for ; i > 0; i-- {
		d = pair.Cdr(d)
	}

	st.b.Set(pair.Car(d))
}

// Binding cache. An entry is valid while the binding has not been
// removed from its frame; removal writes the unbound marker into the
// binding itself, which invalidates every cached reference at once.
func (v *vm) cachedBinding(ci int) *binding.T {
	if ci >= len(v.cache) {
		return nil
	}

	b := v.cache[ci]
	if b == nil || b.IsUnbound() {
		return nil
	}

	return b
}

func (v *vm) cacheBinding(ci int, b *binding.T) {
	if ci < len(v.cache) {
		v.cache[ci] = b
	}
}

func (v *vm) getVar(ci int, missOK bool) {
	s := sym.To(v.consts[ci])

	b := v.cachedBinding(ci)
	if b == nil {
		_, b = v.env.Find(s)
		if b == nil {
			panic(cond.Error("object '"+s.String()+"' not found", nil))
		}

		v.cacheBinding(ci, b)
	}

	if b.Active() {
		v.pushBoxed(v.host.Apply(b.Fn(), nil, pair.Null, v.env))

		return
	}

	switch b.Tag() {
	case binding.Double:
		v.push(doubleSlot(b.DoubleVal()))

		return
	case binding.Integer:
		v.push(intSlot(b.IntegerVal()))

		return
	case binding.Logical:
		if b.LogicalVal() {
			v.push(logicalSlot(1))
		} else {
			v.push(logicalSlot(0))
		}

		return
	}

	value := b.Get()

	if value == cell.I(sym.Missing) {
		if missOK {
			v.pushBoxed(value)

			return
		}

		panic(cond.Error(
			"argument \""+s.String()+"\" is missing, with no default", nil))
	}

	if promise.Is(value) {
		value = v.host.Force(value)
	}

	if w, ok := value.(*vec.T); ok {
		w.Bump()
	}

	v.pushBoxed(value)
}

// SetVar binds the value on top of the stack, leaving it there as the
// value of the assignment.
func (v *vm) setVar(ci int) {
	s := sym.To(v.consts[ci])
	top := v.peek()

	b := v.env.Local(s)
	if b == nil {
		b = v.env.Define(s, pair.Null)
	}

	v.cacheBinding(ci, b)

	switch top.tag {
	case tagDouble:
		b.SetDouble(top.d)
	case tagInteger:
		b.SetInteger(top.i)
	case tagLogical:
		if top.b == 2 {
			b.Set(vec.NA())
		} else {
			b.SetLogical(top.b == 1)
		}
	default:
		value := v.box(top)
		if w, ok := value.(*vec.T); ok {
			w.Bump()
		}

		b.Set(value)
	}
}

func (v *vm) setVarSuper(ci int) {
	s := sym.To(v.consts[ci])

	value := v.box(v.peek())
	if w, ok := value.(*vec.T); ok {
		w.Bump()
	}

	start := v.env.Enclosing()
	if start == nil {
		start = env.Empty
	}

	if _, b := start.Find(s); b != nil {
		b.Set(value)

		return
	}

	v.host.Global().Define(s, value)
}

// StartAssign pushes the current value of the assignment target so the
// replacement instructions can update it in place or copy on write.
func (v *vm) startAssign(ci int, super bool) {
	s := sym.To(v.consts[ci])

	start := v.env
	if super {
		start = v.env.Enclosing()
		if start == nil {
			start = env.Empty
		}
	}

	_, b := start.Find(s)
	if b == nil {
		panic(cond.Error("object '"+s.String()+"' not found", nil))
	}

	if !super {
		v.cacheBinding(ci, b)
	}

	v.pushBoxed(v.host.Force(b.Get()))
}

// EndAssign pops the updated object and rebinds the target, leaving
// the right-hand side on the stack as the expression's value.
func (v *vm) endAssign(ci int, super bool) {
	value := v.box(v.pop())
	if w, ok := value.(*vec.T); ok {
		w.Bump()
	}

	s := sym.To(v.consts[ci])

	if !super {
		b := v.env.Local(s)
		if b == nil {
			b = v.env.Define(s, pair.Null)
		}

		v.cacheBinding(ci, b)
		b.Set(value)

		return
	}

	start := v.env.Enclosing()
	if start == nil {
		start = env.Empty
	}

	if _, b := start.Find(s); b != nil {
		b.Set(value)

		return
	}

	v.host.Global().Define(s, value)
}

// Truthy reduces a condition to a Go bool, with the errors the tree
// walker gives for the same shapes.
func (v *vm) truthy(call cell.I, s slot) (result bool) {
	switch s.tag {
	case tagDouble:
		if vec.IsNAReal(s.d) {
			panic(cond.Error("missing value where TRUE/FALSE needed", call))
		}

		return s.d != 0
	case tagInteger:
		if s.i == vec.NAInteger {
			panic(cond.Error("missing value where TRUE/FALSE needed", call))
		}

		return s.i != 0
	case tagLogical:
		if s.b == 2 {
			panic(cond.Error("missing value where TRUE/FALSE needed", call))
		}

		return s.b == 1
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if msg, ok := r.(string); ok {
			panic(cond.Error(msg, call))
		}

		panic(r)
	}()

	return truth.Value(v.box(s))
}
