// Released under an MIT license. See LICENSE.

package vm

import (
	"math"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/engine/base"
)

//nolint:gochecknoglobals
var (
	arithNames = map[int]string{
		bcode.ADD: "+", bcode.SUB: "-", bcode.MUL: "*",
		bcode.DIV: "/", bcode.EXPT: "^",
	}

	compareNames = map[int]string{
		bcode.EQ: "==", bcode.NE: "!=", bcode.LT: "<",
		bcode.LE: "<=", bcode.GE: ">=", bcode.GT: ">",
	}
)

// ImmNum views an immediate slot as a number. Logicals count as
// integers, the way the arithmetic kernels treat them.
func immNum(s slot) (f float64, i int32, isInt, na, ok bool) {
	switch s.tag {
	case tagDouble:
		return s.d, 0, false, vec.IsNAReal(s.d), true
	case tagInteger:
		return float64(s.i), s.i, true, s.i == vec.NAInteger, true
	case tagLogical:
		if s.b == 2 {
			return 0, vec.NAInteger, true, true, true
		}

		return float64(s.b), int32(s.b), true, false, true
	}

	return 0, 0, false, false, false
}

func mustVec(call, c cell.I, msg string) *vec.T {
	if w, ok := c.(*vec.T); ok {
		return w
	}

	panic(cond.Error(msg, call))
}

const (
	arithMsg   = "non-numeric argument to binary operator"
	compareMsg = "comparison is possible only for atomic and list types"
	logicMsg   = "operations are possible only for numeric, logical or complex types"
)

func (v *vm) arith(at, op int) {
	name := arithNames[op]
	call := v.constAt(at + 1)

	y := v.pop()
	x := v.pop()

	if r, ok := arithImm(v, call, name, x, y); ok {
		v.push(r)
		v.host.Visible(true)

		return
	}

	xc, yc := v.box(x), v.box(y)

	if r, ok := base.OpsDispatch(v.host, call, name, xc, yc, v.env); ok {
		v.pushBoxed(r)

		return
	}

	v.pushBoxed(base.Arith(v.host, call, name,
		mustVec(call, xc, arithMsg), mustVec(call, yc, arithMsg)))
	v.host.Visible(true)
}

//nolint:gocognit,gocyclo
func arithImm(v *vm, call cell.I, name string, x, y slot) (slot, bool) {
	fx, ix, xInt, xna, ok := immNum(x)
	if !ok {
		return slot{}, false
	}

	fy, iy, yInt, yna, ok := immNum(y)
	if !ok {
		return slot{}, false
	}

	// Integer + - * keep integer, with NA on overflow.
	if xInt && yInt && (name == "+" || name == "-" || name == "*") {
		if xna || yna {
			return intSlot(vec.NAInteger), true
		}

		var r int64

		switch name {
		case "+":
			r = int64(ix) + int64(iy)
		case "-":
			r = int64(ix) - int64(iy)
		case "*":
			r = int64(ix) * int64(iy)
		}

		if r > math.MaxInt32 || r <= math.MinInt32 {
			v.host.Warningf(call, "NAs produced by integer overflow")

			return intSlot(vec.NAInteger), true
		}

		return intSlot(int32(r)), true
	}

	if xna || yna {
		return doubleSlot(vec.NAReal), true
	}

	switch name {
	case "+":
		return doubleSlot(fx + fy), true
	case "-":
		return doubleSlot(fx - fy), true
	case "*":
		return doubleSlot(fx * fy), true
	case "/":
		return doubleSlot(fx / fy), true
	case "^":
		return doubleSlot(math.Pow(fx, fy)), true
	}

	return slot{}, false
}

func (v *vm) unary(at, op int) {
	name := "-"
	if op == bcode.UPLUS {
		name = "+"
	}

	call := v.constAt(at + 1)
	x := v.pop()

	switch x.tag {
	case tagDouble:
		if name == "-" && !vec.IsNAReal(x.d) {
			x.d = -x.d
		}

		v.push(x)
		v.host.Visible(true)

		return
	case tagInteger, tagLogical:
		_, i, _, na, _ := immNum(x)
		if name == "-" && !na {
			i = -i
		}

		v.push(intSlot(i))
		v.host.Visible(true)

		return
	}

	xc := v.box(x)

	if r, ok := base.OpsDispatch(v.host, call, name, xc, nil, v.env); ok {
		v.pushBoxed(r)

		return
	}

	v.pushBoxed(base.Unary(call, name,
		mustVec(call, xc, "invalid argument to unary operator")))
	v.host.Visible(true)
}

func (v *vm) compare(at, op int) {
	name := compareNames[op]
	call := v.constAt(at + 1)

	y := v.pop()
	x := v.pop()

	if r, ok := compareImm(name, x, y); ok {
		v.push(r)
		v.host.Visible(true)

		return
	}

	xc, yc := v.box(x), v.box(y)

	if r, ok := base.OpsDispatch(v.host, call, name, xc, yc, v.env); ok {
		v.pushBoxed(r)

		return
	}

	v.pushBoxed(base.Compare(call, name,
		mustVec(call, xc, compareMsg), mustVec(call, yc, compareMsg)))
	v.host.Visible(true)
}

func compareImm(name string, x, y slot) (slot, bool) {
	fx, _, _, xna, ok := immNum(x)
	if !ok {
		return slot{}, false
	}

	fy, _, _, yna, ok := immNum(y)
	if !ok {
		return slot{}, false
	}

	if xna || yna {
		return logicalSlot(2), true
	}

	var r bool

	switch name {
	case "==":
		r = fx == fy
	case "!=":
		r = fx != fy
	case "<":
		r = fx < fy
	case "<=":
		r = fx <= fy
	case ">=":
		r = fx >= fy
	case ">":
		r = fx > fy
	}

	if r {
		return logicalSlot(1), true
	}

	return logicalSlot(0), true
}

func (v *vm) logic(at, op int) {
	name := "&"
	if op == bcode.OR {
		name = "|"
	}

	call := v.constAt(at + 1)

	y := v.pop()
	x := v.pop()

	if x.tag == tagLogical && y.tag == tagLogical {
		v.push(logicalSlot(combine3(name == "&", x.b, y.b)))
		v.host.Visible(true)

		return
	}

	xc, yc := v.box(x), v.box(y)

	if r, ok := base.OpsDispatch(v.host, call, name, xc, yc, v.env); ok {
		v.pushBoxed(r)

		return
	}

	v.pushBoxed(base.Logic(call, name,
		mustVec(call, xc, logicMsg), mustVec(call, yc, logicMsg)))
	v.host.Visible(true)
}

// Combine3 is three-valued and/or on logical bytes (2 is NA).
func combine3(and bool, x, y byte) byte {
	if and {
		if x == 0 || y == 0 {
			return 0
		}

		if x == 1 && y == 1 {
			return 1
		}

		return 2
	}

	if x == 1 || y == 1 {
		return 1
	}

	if x == 0 && y == 0 {
		return 0
	}

	return 2
}

func (v *vm) not(at int) {
	call := v.constAt(at + 1)
	x := v.pop()

	switch x.tag {
	case tagLogical:
		if x.b != 2 {
			x.b = 1 - x.b
		}

		v.push(x)
		v.host.Visible(true)

		return
	case tagInteger, tagDouble:
		_, _, _, na, _ := immNum(x)

		switch {
		case na:
			v.push(logicalSlot(2))
		case v.truthy(call, x):
			v.push(logicalSlot(0))
		default:
			v.push(logicalSlot(1))
		}

		v.host.Visible(true)

		return
	}

	xc := v.box(x)

	if r, ok := base.OpsDispatch(v.host, call, "!", xc, nil, v.env); ok {
		v.pushBoxed(r)

		return
	}

	v.pushBoxed(base.Not(call, mustVec(call, xc, "invalid argument type")))
	v.host.Visible(true)
}

func (v *vm) math1(at int, name string) {
	call := v.constAt(at + 1)
	x := mustVec(call, v.box(v.pop()),
		"non-numeric argument to mathematical function")

	v.pushBoxed(base.Math1(v.host, call, name, x))
	v.host.Visible(true)
}

// LogBase computes log(x, base) as log(x)/log(base) elementwise.
func (v *vm) logBase(at int) {
	call := v.constAt(at + 1)

	b := mustVec(call, v.box(v.pop()),
		"non-numeric argument to mathematical function")
	x := mustVec(call, v.box(v.pop()),
		"non-numeric argument to mathematical function")

	lx := mustVec(call, base.Math1(v.host, call, "log", x), arithMsg)
	lb := mustVec(call, base.Math1(v.host, call, "log", b), arithMsg)

	v.pushBoxed(base.Arith(v.host, call, "/", lx, lb))
	v.host.Visible(true)
}

//nolint:gocognit,gocyclo
func (v *vm) predicate(op int) {
	x := v.pop()
	c := v.box(x)

	kind := func() (vec.Kind, bool) {
		if w, ok := c.(*vec.T); ok && c != pair.Null {
			return w.Kind(), true
		}

		return 0, false
	}

	r := false

	switch op {
	case bcode.ISNULL:
		r = c == pair.Null
	case bcode.ISLOGICAL:
		k, ok := kind()
		r = ok && k == vec.Logical
	case bcode.ISINTEGER:
		k, ok := kind()
		r = ok && k == vec.Integer
	case bcode.ISDOUBLE:
		k, ok := kind()
		r = ok && k == vec.Double
	case bcode.ISCOMPLEX:
		k, ok := kind()
		r = ok && k == vec.Complex
	case bcode.ISCHARACTER:
		k, ok := kind()
		r = ok && k == vec.Character
	case bcode.ISSYMBOL:
		r = sym.Is(c)
	case bcode.ISOBJECT:
		r = len(base.ClassesOf(c)) > 0
	case bcode.ISNUMERIC:
		k, ok := kind()
		r = ok && (k == vec.Integer || k == vec.Double)
	}

	if r {
		v.push(logicalSlot(1))
	} else {
		v.push(logicalSlot(0))
	}

	v.host.Visible(true)
}

// FirstLogical reduces the left operand of && or || to a logical byte,
// leaving it on the stack as either the short-circuited result or the
// left input of the second-operand instruction.
func (v *vm) firstLogical(at int, opname string) byte {
	call := v.constAt(at + 1)
	l := v.scalarLogical(call, v.pop(), "x", opname)

	v.push(logicalSlot(l))
	v.host.Visible(true)

	return l
}

func (v *vm) secondLogical(at int, opname string) {
	call := v.constAt(at + 1)

	y := v.scalarLogical(call, v.pop(), "y", opname)
	x := v.pop().b

	v.push(logicalSlot(combine3(opname == "&&", x, y)))
	v.host.Visible(true)
}

func (v *vm) scalarLogical(call cell.I, s slot, side, opname string) byte {
	if s.tag == tagLogical {
		return s.b
	}

	if _, _, _, na, ok := immNum(s); ok {
		if na {
			return 2
		}

		if v.truthy(call, s) {
			return 1
		}

		return 0
	}

	w, ok := s.c.(*vec.T)
	if !ok || w.Len() != 1 {
		panic(cond.Error(
			"invalid '"+side+"' type in 'x "+opname+" y'", call))
	}

	switch w.Kind() {
	case vec.Logical:
		return w.Logicals()[0]
	case vec.Integer:
		if w.Integers()[0] == vec.NAInteger {
			return 2
		}

		if w.Integers()[0] != 0 {
			return 1
		}

		return 0
	case vec.Double:
		if vec.IsNAReal(w.Reals()[0]) {
			return 2
		}

		if w.Reals()[0] != 0 {
			return 1
		}

		return 0
	}

	panic(cond.Error("invalid '"+side+"' type in 'x "+opname+" y'", call))
}

// Subset pops rank index values and the object, and pushes the
// selected elements.
func (v *vm) subset(at, rank int, exact bool) {
	call := v.constAt(at + 1)

	idx := make([]slot, rank)
	for i := rank - 1; i >= 0; i-- {
		idx[i] = v.pop()
	}

	x := v.pop()

	if !exact && rank == 1 {
		if r, ok := subsetImm(x, idx[0]); ok {
			v.push(r)
			v.host.Visible(true)

			return
		}
	}

	args := pair.Null
	for i := rank - 1; i >= 0; i-- {
		args = pair.Cons(v.box(idx[i]), args)
	}

	xc := v.box(x)

	if exact {
		v.pushBoxed(base.Subset2(call, xc, args))
	} else {
		v.pushBoxed(base.Subset(call, xc, args))
	}

	v.host.Visible(true)
}

// SubsetImm handles the hot shape: a bare atomic vector indexed by a
// positive in-range scalar.
func subsetImm(x, idx slot) (slot, bool) {
	w, ok := x.c.(*vec.T)
	if x.tag != tagBoxed || !ok || w.HasAttrs() {
		return slot{}, false
	}

	var k int

	switch {
	case idx.tag == tagInteger && idx.i != vec.NAInteger:
		k = int(idx.i)
	case idx.tag == tagDouble && !vec.IsNAReal(idx.d) &&
		idx.d == math.Trunc(idx.d):
		k = int(idx.d)
	default:
		return slot{}, false
	}

	if k < 1 || k > w.Len() {
		return slot{}, false
	}

	switch w.Kind() {
	case vec.Integer:
		return intSlot(w.Integers()[k-1]), true
	case vec.Double:
		return doubleSlot(w.Reals()[k-1]), true
	case vec.Logical:
		return logicalSlot(w.Logicals()[k-1]), true
	}

	return slot{}, false
}

// Subassign pops rank index values and the object, updates the object
// with the right-hand side below it, and pushes the result. The
// right-hand side stays put: it is the assignment's value.
func (v *vm) subassign(at, rank int, exact bool) {
	call := v.constAt(at + 1)

	idx := make([]slot, rank)
	for i := rank - 1; i >= 0; i-- {
		idx[i] = v.pop()
	}

	x := v.box(v.pop())
	value := v.box(v.peek())

	args := pair.Null
	for i := rank - 1; i >= 0; i-- {
		args = pair.Cons(v.box(idx[i]), args)
	}

	if exact {
		v.pushBoxed(base.Subset2Assign(call, x, args, value))
	} else {
		v.pushBoxed(base.SubsetAssign(call, x, args, value))
	}
}

func (v *vm) colon(at int) {
	call := v.constAt(at + 1)

	y := v.pop()
	x := v.pop()

	fx, _, _, xna, xok := immNum(x)
	fy, _, _, yna, yok := immNum(y)

	if xok && yok {
		if xna || yna {
			panic(cond.Error("NA/NaN argument", call))
		}

		if fx == math.Trunc(fx) && fy == math.Trunc(fy) &&
			fx >= math.MinInt32+1 && fx <= math.MaxInt32 &&
			fy >= math.MinInt32+1 && fy <= math.MaxInt32 {
			v.push(slot{tag: tagRange, i: int32(fx), j: int32(fy)})
			v.host.Visible(true)

			return
		}
	}

	v.pushBoxed(base.Colon(call,
		mustVec(call, v.box(x), arithMsg), mustVec(call, v.box(y), arithMsg)))
	v.host.Visible(true)
}

func (v *vm) seqAlong(at int) {
	x := v.box(v.pop())

	n := 0

	switch {
	case x == pair.Null:
	case vec.Is(x):
		n = vec.To(x).Len()
	case pair.Is(x):
		for d := x; d != pair.Null; d = pair.Cdr(d) {
			n++
		}
	default:
		n = 1
	}

	v.pushSeq(n)
}

func (v *vm) seqLen(at int) {
	call := v.constAt(at + 1)

	n := -1

	s := v.pop()
	if f, i, isInt, na, ok := immNum(s); ok && !na {
		if isInt {
			n = int(i)
		} else if f == math.Trunc(f) {
			n = int(f)
		}
	} else if w, ok := s.c.(*vec.T); ok && w.Len() == 1 {
		switch w.Kind() {
		case vec.Integer:
			n = int(w.Integers()[0])
		case vec.Double:
			n = int(w.Reals()[0])
		}
	}

	if n < 0 {
		panic(cond.Error(
			"argument must be coercible to non-negative integer", call))
	}

	v.pushSeq(n)
}

func (v *vm) pushSeq(n int) {
	if n == 0 {
		v.pushBoxed(vec.New(vec.Integer, 0))
	} else {
		v.push(slot{tag: tagRange, i: 1, j: int32(n)})
	}

	v.host.Visible(true)
}

// SwitchJump picks the target of a compiled switch from its label
// vectors and returns the new program counter.
//
//nolint:gocognit
func (v *vm) switchJump(at int) int {
	call := v.constAt(at + 1)
	names := v.consts[v.ops[at+2]]
	charLabels := vec.To(v.consts[v.ops[at+3]]).Integers()
	numLabels := vec.To(v.consts[v.ops[at+4]]).Integers()

	s := v.pop()

	if s.tag == tagBoxed {
		w, ok := s.c.(*vec.T)
		if !ok || w.Len() != 1 {
			panic(cond.Error("EXPR must be a length 1 vector", call))
		}

		if w.Kind() == vec.Character {
			if names == pair.Null {
				return int(charLabels[len(charLabels)-1])
			}

			want := w.Strings()[0]
			for i, name := range vec.To(names).Strings() {
				if name == want {
					return int(charLabels[i])
				}
			}

			return int(charLabels[len(charLabels)-1])
		}
	}

	_, i, isInt, na, ok := immNum(s)

	k := 0

	switch {
	case ok && !na && isInt:
		k = int(i)
	case ok && !na:
		k = int(s.d)
	case s.tag == tagBoxed:
		w := vec.To(s.c)

		switch w.Kind() {
		case vec.Integer:
			k = int(w.Integers()[0])
		case vec.Double:
			k = int(w.Reals()[0])
		case vec.Logical:
			k = int(w.Logicals()[0])
		}
	}

	if k >= 1 && k <= len(numLabels)-1 {
		return int(numLabels[k-1])
	}

	return int(numLabels[len(numLabels)-1])
}
