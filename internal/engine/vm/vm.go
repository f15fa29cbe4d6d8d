// Released under an MIT license. See LICENSE.

// Package vm provides the bytecode interpreter. It executes the
// instruction streams the compiler produces, keeping scalars unboxed
// on its operand stack and falling back to the tree walker for
// anything the stream defers with CALLSPECIAL.
package vm

import (
	"fmt"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/binding"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/closure"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/prim"
	"github.com/rho-lang/rho/internal/common/type/promise"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/engine/base"
	"github.com/rho-lang/rho/internal/engine/context"
)

// Poll for interrupts every this many instructions.
const pollEvery = 1024

// The binding cache is keyed by constant-pool index; streams with
// larger pools cache only their low indices.
const cacheSlots = 256

// Host is the view of the machine the bytecode interpreter gets. The
// stream owns control flow; the machine owns environments, contexts,
// visibility, and conditions.
type Host interface {
	prim.Interp

	// FindFunction resolves a function by name from e, skipping
	// bindings whose value is not callable.
	FindFunction(s *sym.T, e *env.T, call cell.I) cell.I

	// Base and Global expose the ends of the environment tower.
	Base() *env.T
	Global() *env.T

	// CheckInterrupt polls for a pending user interrupt.
	CheckInterrupt()

	// LoopJump aborts the innermost loop, wherever it is.
	LoopJump(brk bool)

	// PushLoop, PopLoop and TruncateTo manage loop contexts for
	// compiled loops whose bodies may raise break or next from code
	// the stream cannot see.
	PushLoop(call cell.I, e *env.T) *context.T
	PopLoop(ctx *context.T)
	TruncateTo(ctx *context.T)

	// JumpIsBreak inspects the payload of a caught loop jump.
	JumpIsBreak(v cell.I) bool
}

// A loopCtx tracks one active compiled-loop context: where a caught
// next or break resumes, and the operand depth to cut back to.
type loopCtx struct {
	ctx    *context.T
	nextPC int
	brkPC  int
	depth  int
}

// A pending call under construction: the function plus the argument
// list built up by the PUSH*ARG instructions.
type pending struct {
	fn   cell.I
	head cell.I
	tail cell.I
}

func (p *pending) emit(tag, v cell.I) {
	q := pair.ConsTagged(tag, v, pair.Null)

	if p.head == nil {
		p.head, p.tail = q, q

		return
	}

	pair.SetCdr(p.tail, q)
	p.tail = q
}

func (p *pending) setTag(tag cell.I) {
	if p.tail != nil {
		pair.SetTag(p.tail, tag)
	}
}

func (p *pending) list() cell.I {
	if p.head == nil {
		return pair.Null
	}

	return p.head
}

type vm struct {
	host Host
	code *bcode.T
	env  *env.T
	ctx  *context.T

	ops    []int
	consts []cell.I

	stack []slot
	calls []*pending
	loops []loopCtx

	cache []*binding.T

	steps int
}

// Run executes a bytecode object in e. The ctx, when non-nil, is the
// function context the stream runs under; a return through it is the
// caller's to catch.
func Run(host Host, code *bcode.T, e *env.T, ctx *context.T) cell.I {
	ops := encode(code)

	n := len(code.Consts())
	if n > cacheSlots {
		n = cacheSlots
	}

	v := &vm{
		host:   host,
		code:   code,
		env:    e,
		ctx:    ctx,
		ops:    ops,
		consts: code.Consts(),
		cache:  make([]*binding.T, n),
	}

	pc := 1

	for {
		next, result, done := v.exec(pc)
		if done {
			return result
		}

		pc = next
	}
}

// Exec runs instructions until the stream returns or a non-local exit
// lands on one of the stream's own loop contexts, in which case it
// reports where to resume.
//
//nolint:gocognit,gocyclo,funlen
func (v *vm) exec(pc int) (next int, result cell.I, done bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		j, ok := r.(*context.Jump)
		if !ok {
			panic(r)
		}

		for i := len(v.loops) - 1; i >= 0; i-- {
			if v.loops[i].ctx != j.Target {
				continue
			}

			v.loops = v.loops[:i+1]
			top := v.loops[i]

			v.host.TruncateTo(top.ctx)
			v.stack = v.stack[:top.depth]

			if v.host.JumpIsBreak(j.Value) {
				next = top.brkPC
			} else {
				next = top.nextPC
			}

			return
		}

		panic(r)
	}()

	for {
		v.steps++
		if v.steps >= pollEvery {
			v.steps = 0
			v.host.CheckInterrupt()
		}

		op := v.ops[pc]
		at := pc
		pc += bcode.Arity[op] + 1

		switch op {
		case bcode.BCMISMATCH:
			return 0, v.host.Eval(v.code.Expr(), v.env), true

		case bcode.RETURN:
			return 0, v.box(v.pop()), true

		case bcode.RETURNJMP:
			value := v.box(v.pop())
			if v.ctx != nil {
				v.ctx.SetJumped()
				panic(&context.Jump{Target: v.ctx, Value: value})
			}

			return 0, value, true

		case bcode.GOTO:
			pc = v.ops[at+1]

		case bcode.BRIFNOT:
			if !v.truthy(v.constAt(at+1), v.pop()) {
				pc = v.ops[at+2]
			}

		case bcode.POP:
			v.pop()

		case bcode.DUP:
			v.push(v.peek())

		case bcode.DUP2ND:
			v.push(v.stack[len(v.stack)-2])

		case bcode.SWAP:
			n := len(v.stack)
			v.stack[n-1], v.stack[n-2] = v.stack[n-2], v.stack[n-1]

		case bcode.PRINTVALUE:
			fmt.Println(base.Render(v.box(v.pop())))

		case bcode.STARTLOOPCNTXT:
			ctx := v.host.PushLoop(v.code.ExprAt(at), v.env)
			v.loops = append(v.loops, loopCtx{
				ctx:    ctx,
				nextPC: v.ops[at+1],
				brkPC:  v.ops[at+2],
				depth:  len(v.stack),
			})

		case bcode.ENDLOOPCNTXT:
			top := v.loops[len(v.loops)-1]
			v.loops = v.loops[:len(v.loops)-1]
			v.host.PopLoop(top.ctx)

		case bcode.DOLOOPNEXT:
			v.host.LoopJump(false)

		case bcode.DOLOOPBREAK:
			v.host.LoopJump(true)

		case bcode.STARTFOR:
			v.startFor(at)
			pc = v.ops[at+3]

		case bcode.STEPFOR:
			if v.stepFor() {
				pc = v.ops[at+1]
			}

		case bcode.ENDFOR:
			v.pop()

		case bcode.SETLOOPVAL:
			value := v.box(v.pop())
			if st, ok := v.peek().c.(*forState); ok {
				st.b.Set(value)
			}

		case bcode.LDNULL:
			v.pushBoxed(pair.Null)
			v.host.Visible(true)

		case bcode.LDTRUE:
			v.push(slot{tag: tagLogical, b: 1})
			v.host.Visible(true)

		case bcode.LDFALSE:
			v.push(slot{tag: tagLogical, b: 0})
			v.host.Visible(true)

		case bcode.LDCONST:
			c := v.consts[v.ops[at+1]]
			if w, ok := c.(*vec.T); ok {
				w.Bump()
			}

			v.pushBoxed(c)
			v.host.Visible(true)

		case bcode.GETVAR, bcode.GETVAR_MISSOK:
			v.getVar(v.ops[at+1], op == bcode.GETVAR_MISSOK)
			v.host.Visible(true)

		case bcode.DDVAL, bcode.DDVAL_MISSOK:
			v.pushBoxed(v.host.Eval(v.consts[v.ops[at+1]], v.env))
			v.host.Visible(true)

		case bcode.SETVAR:
			v.setVar(v.ops[at+1])

		case bcode.SETVAR2:
			v.setVarSuper(v.ops[at+1])

		case bcode.GETFUN, bcode.GETSYMFUN:
			s := sym.To(v.consts[v.ops[at+1]])
			fn := v.host.FindFunction(s, v.env, v.code.ExprAt(at))
			v.calls = append(v.calls, &pending{fn: fn})

		case bcode.GETGLOBFUN:
			s := sym.To(v.consts[v.ops[at+1]])
			fn := v.host.FindFunction(s, v.host.Global(), v.code.ExprAt(at))
			v.calls = append(v.calls, &pending{fn: fn})

		case bcode.GETBUILTIN, bcode.GETINTLBUILTIN:
			s := sym.To(v.consts[v.ops[at+1]])
			fn := v.host.FindFunction(s, v.host.Base(), v.code.ExprAt(at))
			v.calls = append(v.calls, &pending{fn: fn})

		case bcode.CHECKFUN:
			fn := v.box(v.pop())
			if !closure.Is(fn) && !prim.Is(fn) {
				v.host.Errorf(v.code.ExprAt(at), "attempt to apply non-function")
			}

			v.calls = append(v.calls, &pending{fn: fn})

		case bcode.MAKEPROM:
			v.pendingTop().emit(nil, promise.New(v.consts[v.ops[at+1]], v.env))

		case bcode.DOMISSING:
			v.pendingTop().emit(nil, sym.Missing)

		case bcode.SETTAG:
			v.pendingTop().setTag(v.consts[v.ops[at+1]])

		case bcode.DODOTS:
			v.doDots()

		case bcode.PUSHARG:
			v.pendingTop().emit(nil, v.box(v.pop()))

		case bcode.PUSHCONSTARG:
			c := v.consts[v.ops[at+1]]
			if w, ok := c.(*vec.T); ok {
				w.Bump()
			}

			v.pendingTop().emit(nil, c)

		case bcode.PUSHNULLARG:
			v.pendingTop().emit(nil, pair.Null)

		case bcode.PUSHTRUEARG:
			v.pendingTop().emit(nil, vec.Bool(true))

		case bcode.PUSHFALSEARG:
			v.pendingTop().emit(nil, vec.Bool(false))

		case bcode.CALL, bcode.CALLBUILTIN:
			v.finishCall(v.consts[v.ops[at+1]])

		case bcode.CALLSPECIAL:
			v.pushBoxed(v.host.Eval(v.consts[v.ops[at+1]], v.env))

		case bcode.MAKECLOSURE:
			v.makeClosure(v.ops[at+1])
			v.host.Visible(true)

		case bcode.UMINUS, bcode.UPLUS:
			v.unary(at, op)

		case bcode.ADD, bcode.SUB, bcode.MUL, bcode.DIV, bcode.EXPT:
			v.arith(at, op)

		case bcode.SQRT:
			v.math1(at, "sqrt")

		case bcode.EXP:
			v.math1(at, "exp")

		case bcode.LOG:
			v.math1(at, "log")

		case bcode.LOGBASE:
			v.logBase(at)

		case bcode.MATH1:
			v.math1(at, vec.To(v.consts[v.ops[at+2]]).Strings()[0])

		case bcode.EQ, bcode.NE, bcode.LT, bcode.LE, bcode.GE, bcode.GT:
			v.compare(at, op)

		case bcode.AND, bcode.OR:
			v.logic(at, op)

		case bcode.NOT:
			v.not(at)

		case bcode.AND1ST:
			// The first operand stays on the stack: it is the result
			// when the jump short-circuits, the left operand when not.
			if v.firstLogical(at, "&&") == 0 {
				pc = v.ops[at+2]
			}

		case bcode.AND2ND:
			v.secondLogical(at, "&&")

		case bcode.OR1ST:
			if v.firstLogical(at, "||") == 1 {
				pc = v.ops[at+2]
			}

		case bcode.OR2ND:
			v.secondLogical(at, "||")

		case bcode.ISNULL, bcode.ISLOGICAL, bcode.ISINTEGER, bcode.ISDOUBLE,
			bcode.ISCOMPLEX, bcode.ISCHARACTER, bcode.ISSYMBOL,
			bcode.ISOBJECT, bcode.ISNUMERIC:
			v.predicate(op)

		case bcode.STARTASSIGN, bcode.STARTASSIGN2:
			v.startAssign(v.ops[at+1], op == bcode.STARTASSIGN2)

		case bcode.ENDASSIGN:
			v.endAssign(v.ops[at+1], false)

		case bcode.ENDASSIGN2:
			v.endAssign(v.ops[at+1], true)

		case bcode.VECSUBSET:
			v.subset(at, 1, false)

		case bcode.MATSUBSET:
			v.subset(at, 2, false)

		case bcode.SUBSET_N:
			v.subset(at, v.ops[at+2], false)

		case bcode.VECSUBSET2:
			v.subset(at, 1, true)

		case bcode.MATSUBSET2:
			v.subset(at, 2, true)

		case bcode.SUBSET2_N:
			v.subset(at, v.ops[at+2], true)

		case bcode.DOLLAR:
			x := v.box(v.pop())
			name := sym.To(v.consts[v.ops[at+2]]).String()
			v.pushBoxed(base.Dollar(v.constAt(at+1), x, name))
			v.host.Visible(true)

		case bcode.VECSUBASSIGN:
			v.subassign(at, 1, false)

		case bcode.MATSUBASSIGN:
			v.subassign(at, 2, false)

		case bcode.SUBASSIGN_N:
			v.subassign(at, v.ops[at+2], false)

		case bcode.VECSUBASSIGN2:
			v.subassign(at, 1, true)

		case bcode.MATSUBASSIGN2:
			v.subassign(at, 2, true)

		case bcode.SUBASSIGN2_N:
			v.subassign(at, v.ops[at+2], true)

		case bcode.DOLLARGETS:
			x := v.box(v.pop())
			name := sym.To(v.consts[v.ops[at+2]]).String()
			value := v.box(v.peek())
			v.pushBoxed(base.DollarAssign(v.constAt(at+1), x, name, value))

		case bcode.COLON:
			v.colon(at)

		case bcode.SEQALONG:
			v.seqAlong(at)

		case bcode.SEQLEN:
			v.seqLen(at)

		case bcode.SWITCH:
			pc = v.switchJump(at)

		case bcode.BASEGUARD:
			if !v.baseGuard(at) {
				pc = v.ops[at+2]
			}

		case bcode.INVISIBLE:
			v.host.Visible(false)

		case bcode.VISIBLE:
			v.host.Visible(true)

		case bcode.INCLNK:
			if w, ok := v.peek().c.(*vec.T); ok {
				w.Bump()
			}

		case bcode.DECLNK, bcode.DECLNK_N, bcode.INCLNKSTK, bcode.DECLNKSTK:
			// Reference bookkeeping is carried by named counters.

		default:
			v.host.Errorf(v.code.ExprAt(at),
				"unexpected %s instruction", bcode.OpName(op))
		}
	}
}

// ConstAt returns the call expression operand at slot p.
func (v *vm) constAt(p int) cell.I {
	return v.consts[v.ops[p]]
}

func (v *vm) pendingTop() *pending {
	if len(v.calls) == 0 {
		v.host.Errorf(nil, "argument instruction with no call under construction")
	}

	return v.calls[len(v.calls)-1]
}

// FinishCall pops the pending call and applies it. Closures see their
// accumulated promises; builtins force them; a special reruns the
// whole call expression through the tree walker.
func (v *vm) finishCall(call cell.I) {
	p := v.pendingTop()
	v.calls = v.calls[:len(v.calls)-1]

	if q, ok := p.fn.(*prim.T); ok && q.IsSpecial() {
		v.pushBoxed(v.host.Eval(call, v.env))

		return
	}

	v.host.Visible(true)
	v.pushBoxed(v.host.Apply(p.fn, call, p.list(), v.env))
}

func (v *vm) doDots() {
	_, b := v.env.Find(sym.Dots)
	if b == nil {
		v.host.Errorf(nil, "'...' used in an incorrect context")
	}

	dots := b.Get()
	if dots == cell.I(sym.Missing) || dots == cell.I(sym.Unbound) {
		return
	}

	for d := dots; d != pair.Null; d = pair.Cdr(d) {
		v.pendingTop().emit(pair.Tag(d), pair.Car(d))
	}
}

func (v *vm) makeClosure(ci int) {
	parts := vec.To(v.consts[ci]).Elts()

	fn := closure.New(parts[0], parts[1], v.env)
	if bc, ok := parts[2].(*bcode.T); ok {
		fn.SetBody(bc)
	}

	v.pushBoxed(fn)
}

// BaseGuard checks that the function the guarded call names still
// resolves to a primitive. When a user definition shadows it, the full
// call runs through the tree walker and the inline code is skipped.
func (v *vm) baseGuard(at int) bool {
	call := v.constAt(at + 1)
	head := pair.Car(call)

	fn := v.host.FindFunction(sym.To(head), v.env, call)
	if prim.Is(fn) {
		return true
	}

	v.pushBoxed(v.host.Eval(call, v.env))

	return false
}
