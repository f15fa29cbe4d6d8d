// Released under an MIT license. See LICENSE.

package eval

import (
	"fmt"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/interface/truth"
	"github.com/rho-lang/rho/internal/common/struct/binding"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/closure"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/prim"
	"github.com/rho-lang/rho/internal/common/type/promise"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/engine/context"
)

// A loopSignal is carried by the jump a break or next raises.
type loopSignal struct {
	brk bool
}

func (l *loopSignal) Equal(c cell.I) bool { return c == cell.I(l) }
func (l *loopSignal) Name() string        { return "loopSignal" }

//nolint:gochecknoglobals
var (
	breakSignal = &loopSignal{brk: true}
	nextSignal  = &loopSignal{brk: false}
)

// InstallSpecials defines the machine-backed primitives: control flow,
// assignment, condition handling, and the environment accessors that
// need interpreter state.
//
//nolint:funlen
func (m *machine) installSpecials() {
	specials := []*prim.T{
		prim.Special("<-", m.assignFn(false)),
		prim.Special("=", m.assignFn(false)),
		prim.Special("<<-", m.assignFn(true)),
		prim.Special("if", m.sIf),
		prim.Special("for", m.sFor),
		prim.Special("while", m.sWhile),
		prim.Special("repeat", m.sRepeat),
		prim.Special("{", m.sBrace),
		prim.Special("(", m.sParen),
		prim.Special("function", m.sFunction),
		prim.Special("return", m.sReturn),
		prim.Special("break", m.sBreak),
		prim.Special("next", m.sNext),
		prim.Special("on.exit", m.sOnExit),
		prim.Special("switch", m.sSwitch),
		prim.Special("missing", m.sMissing),
		prim.Special("tryCatch", m.sTryCatch),
		prim.Special("withCallingHandlers", m.sWithCallingHandlers),
		prim.Special("Tailcall", m.sTailcall),
		prim.Special("evalq", m.sEvalq),
		prim.Special("local", m.sLocal),
		prim.Special("substitute", m.sSubstitute),
		prim.Special("delayedAssign", m.sDelayedAssign),
		prim.Special("Recall", m.sRecall),
		prim.Special("::", m.sNamespace),
		prim.Special(":::", m.sNamespace),
		prim.Special("~", m.sTilde),
	}

	builtins := []*prim.T{
		prim.New("eval", m.bEval),
		prim.New("Exec", m.bExec),
		prim.New("force", m.bForce),
		prim.New("signalCondition", m.bSignalCondition),
		prim.New("globalenv", m.bGlobalenv),
		prim.New("baseenv", m.bBaseenv),
		prim.New("parent.frame", m.bParentFrame),
		prim.New("sys.call", m.bSysCall),
		prim.New("makeActiveBinding", m.bMakeActiveBinding),
	}

	for _, p := range specials {
		m.base.Define(sym.New(p.Label()), p)
	}

	for _, p := range builtins {
		m.base.Define(sym.New(p.Label()), p)
	}
}

func (m *machine) assignFn(super bool) prim.Fn {
	return func(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
		target := pair.Car(args)
		value := m.Force(m.Eval(pair.Cadr(args), e))

		m.assign(call, target, value, e, super)
		m.visible = false

		return value
	}
}

func (m *machine) sIf(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	if m.truthy(call, m.Eval(pair.Car(args), e)) {
		return m.Eval(pair.Cadr(args), e)
	}

	rest := pair.Cddr(args)
	if rest == pair.Null {
		m.visible = false

		return pair.Null
	}

	return m.Eval(pair.Car(rest), e)
}

func (m *machine) sFor(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	name := sym.To(pair.Car(args))
	seq := m.Force(m.Eval(pair.Cadr(args), e))
	body := pair.Caddr(args)

	ctx := context.New(context.Loop, call, e, e)
	m.contexts.Push(ctx)

	defer m.contexts.Pop(ctx)

	n := loopLength(call, seq)

	for i := 0; i < n; i++ {
		e.Define(name, loopElement(seq, i))

		if m.loopStep(ctx, body, e) {
			break
		}
	}

	m.visible = false

	return pair.Null
}

func (m *machine) sWhile(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	test := pair.Car(args)
	body := pair.Cadr(args)

	ctx := context.New(context.Loop, call, e, e)
	m.contexts.Push(ctx)

	defer m.contexts.Pop(ctx)

	for m.truthy(call, m.Eval(test, e)) {
		if m.loopStep(ctx, body, e) {
			break
		}
	}

	m.visible = false

	return pair.Null
}

func (m *machine) sRepeat(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	body := pair.Car(args)

	ctx := context.New(context.Loop, call, e, e)
	m.contexts.Push(ctx)

	defer m.contexts.Pop(ctx)

	for {
		if m.loopStep(ctx, body, e) {
			break
		}
	}

	m.visible = false

	return pair.Null
}

// LoopStep runs one loop iteration, reporting whether a break ended
// the loop.
func (m *machine) loopStep(ctx *context.T, body cell.I, e *env.T) (brk bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		j, ok := r.(*context.Jump)
		if !ok || j.Target != ctx {
			panic(r)
		}

		m.contexts.Truncate(ctx)

		if s, ok := j.Value.(*loopSignal); ok && s.brk {
			brk = true
		}
	}()

	m.Eval(body, e)

	return false
}

func loopLength(call, seq cell.I) int {
	switch {
	case seq == pair.Null:
		return 0
	case vec.Is(seq):
		return vec.To(seq).Len()
	case pair.Is(seq):
		n := 0
		for a := seq; a != pair.Null; a = pair.Cdr(a) {
			n++
		}

		return n
	}

	panic(cond.Error("invalid for() loop sequence", call))
}

func loopElement(seq cell.I, i int) cell.I {
	if vec.Is(seq) {
		return vec.To(seq).At(i)
	}

	for ; i > 0; i-- {
		seq = pair.Cdr(seq)
	}

	return pair.Car(seq)
}

func (m *machine) sBrace(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	result := cell.I(pair.Null)

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		m.visible = true
		result = m.Eval(pair.Car(a), e)
	}

	return result
}

func (m *machine) sParen(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	result := m.Eval(pair.Car(args), e)
	m.visible = true

	return result
}

func (m *machine) sFunction(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return closure.New(pair.Car(args), pair.Cadr(args), e)
}

func (m *machine) sReturn(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	value := cell.I(pair.Null)
	if args != pair.Null {
		value = m.Force(m.Eval(pair.Car(args), e))
	}

	ctx := m.contexts.Find(context.Return, e)
	if ctx == nil {
		ctx = m.contexts.Find(context.Return, nil)
	}

	if ctx == nil {
		panic(&context.Jump{Target: nil, Value: value})
	}

	ctx.SetJumped()

	panic(&context.Jump{Target: ctx, Value: value})
}

func (m *machine) sBreak(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m.loopJump(breakSignal)

	return pair.Null
}

func (m *machine) sNext(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m.loopJump(nextSignal)

	return pair.Null
}

func (m *machine) loopJump(s *loopSignal) {
	ctx := m.contexts.Find(context.Loop, nil)
	if ctx == nil {
		panic(cond.Error("no loop for break/next, jumping to top level", nil))
	}

	ctx.SetJumped()

	panic(&context.Jump{Target: ctx, Value: s})
}

// LoopJump aborts the innermost loop from the bytecode interpreter.
func (m *machine) LoopJump(brk bool) {
	if brk {
		m.loopJump(breakSignal)
	} else {
		m.loopJump(nextSignal)
	}
}

func (m *machine) sOnExit(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	ctx := m.contexts.Find(context.Function, nil)
	if ctx == nil {
		return pair.Null
	}

	expr := cell.I(nil)
	if args != pair.Null {
		expr = pair.Car(args)
	}

	add := false

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		if t := pair.Tag(a); t != nil && sym.To(t).String() == "add" {
			add = m.truthy(call, m.Eval(pair.Car(a), e))
		}
	}

	if expr == nil || expr == cell.I(sym.Missing) {
		ctx.PushOnExit(nil, add)
	} else {
		ctx.PushOnExit(expr, add)
	}

	m.visible = false

	return pair.Null
}

//nolint:gocognit,gocyclo
func (m *machine) sSwitch(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	selector := m.Force(m.Eval(pair.Car(args), e))
	alts := pair.Cdr(args)

	if vec.IsKind(selector, vec.Character) {
		want := vec.To(selector).Strings()[0]

		var dflt cell.I

		for a := alts; a != pair.Null; a = pair.Cdr(a) {
			t := pair.Tag(a)
			if t == nil {
				dflt = pair.Car(a)

				continue
			}

			if sym.To(t).String() != want {
				continue
			}

			// Empty alternatives fall through to the next body.
			body := pair.Car(a)
			for next := pair.Cdr(a); body == cell.I(sym.Missing) &&
				next != pair.Null; next = pair.Cdr(next) {
				body = pair.Car(next)
			}

			if body == cell.I(sym.Missing) {
				break
			}

			return m.Eval(body, e)
		}

		if dflt != nil {
			return m.Eval(dflt, e)
		}

		m.visible = false

		return pair.Null
	}

	n := int(scalarInt(call, selector))

	for a := alts; a != pair.Null; a = pair.Cdr(a) {
		n--
		if n == 0 {
			return m.Eval(pair.Car(a), e)
		}
	}

	m.visible = false

	return pair.Null
}

func (m *machine) sMissing(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	c := pair.Car(args)
	if !sym.Is(c) {
		panic(cond.Error("invalid use of 'missing'", call))
	}

	b := e.Local(sym.To(c))
	if b == nil {
		panic(cond.Error(
			"'missing' can only be used for arguments", call))
	}

	if b.Missing() != binding.NotMissing {
		return vec.Bool(b.Missing() == binding.MissingArg)
	}

	v := b.Get()
	if v == cell.I(sym.Missing) {
		return vec.Bool(true)
	}

	if p, ok := v.(*promise.T); ok && !p.IsForced() &&
		p.Code() == cell.I(sym.Missing) {
		return vec.Bool(true)
	}

	return vec.Bool(false)
}

//nolint:gocognit
func (m *machine) sTryCatch(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	var expr, finally cell.I

	catchers := []handler{}

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		t := pair.Tag(a)

		switch {
		case t == nil && expr == nil:
			expr = pair.Car(a)
		case t != nil && sym.To(t).String() == "finally":
			finally = pair.Car(a)
		case t != nil && sym.To(t).String() == "expr" && expr == nil:
			expr = pair.Car(a)
		case t != nil:
			catchers = append(catchers, handler{
				classes: []string{sym.To(t).String()},
				fn:      m.Force(m.Eval(pair.Car(a), e)),
			})
		}
	}

	if finally != nil {
		defer m.Eval(finally, e)
	}

	if expr == nil {
		return pair.Null
	}

	return m.runProtected(expr, e, catchers)
}

func (m *machine) runProtected(
	expr cell.I, e *env.T, catchers []handler,
) (result cell.I) {
	mark := len(m.handlers)
	m.handlers = append(m.handlers, catchers...)

	defer func() {
		m.handlers = m.handlers[:mark]

		r := recover()
		if r == nil {
			return
		}

		c, ok := r.(*cond.T)
		if !ok {
			panic(r)
		}

		for _, h := range catchers {
			if !matchesHandler(h, c) {
				continue
			}

			result = m.Apply(h.fn, nil, pair.Cons(c, pair.Null), e)

			return
		}

		panic(r)
	}()

	return m.Force(m.Eval(expr, e))
}

func (m *machine) sWithCallingHandlers(
	ip prim.Interp, call, args cell.I, e *env.T,
) cell.I {
	var expr cell.I

	mark := len(m.handlers)

	defer func() { m.handlers = m.handlers[:mark] }()

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		t := pair.Tag(a)
		if t == nil || (sym.To(t).String() == "expr" && expr == nil) {
			if expr == nil {
				expr = pair.Car(a)
			}

			continue
		}

		m.handlers = append(m.handlers, handler{
			classes: []string{sym.To(t).String()},
			fn:      m.Force(m.Eval(pair.Car(a), e)),
			calling: true,
		})
	}

	if expr == nil {
		return pair.Null
	}

	return m.Force(m.Eval(expr, e))
}

func (m *machine) sTailcall(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	fn := m.Force(m.Eval(pair.Car(args), e))
	if !closure.Is(fn) {
		panic(cond.Error("Tailcall requires a function", call))
	}

	promargs := m.PromiseArgs(pair.Cdr(args), e)

	// Each tail call replaces the frame its arguments were promised
	// over; force them now so no chain of unforced promises builds up.
	for a := promargs; a != pair.Null; a = pair.Cdr(a) {
		if p, ok := pair.Car(a).(*promise.T); ok {
			m.Force(p)
		}
	}

	ctx := m.contexts.Find(context.Function, nil)
	if ctx == nil {
		return m.applyClosure(closure.To(fn), call, promargs, e)
	}

	ctx.SetJumped()

	panic(&context.Jump{Target: ctx, Value: &tailcall{
		fn:   closure.To(fn),
		call: call,
		args: promargs,
	}})
}

func (m *machine) bExec(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	expr := pair.Car(args)

	where := e
	if pair.Cdr(args) != pair.Null {
		where = env.To(pair.Cadr(args))
	}

	ctx := m.contexts.Find(context.Function, nil)
	if ctx == nil {
		return m.Eval(expr, where)
	}

	ctx.SetJumped()

	panic(&context.Jump{Target: ctx, Value: &tailcall{
		call: call,
		expr: expr,
		env:  where,
	}})
}

func (m *machine) bEval(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	expr := pair.Car(args)

	where := e
	if pair.Cdr(args) != pair.Null && env.Is(pair.Cadr(args)) {
		where = env.To(pair.Cadr(args))
	}

	return m.Eval(expr, where)
}

func (m *machine) sEvalq(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	where := e
	if pair.Cdr(args) != pair.Null {
		where = env.To(m.Force(m.Eval(pair.Cadr(args), e)))
	}

	return m.Eval(pair.Car(args), where)
}

func (m *machine) sLocal(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	where := env.New(e)
	if pair.Cdr(args) != pair.Null {
		where = env.To(m.Force(m.Eval(pair.Cadr(args), e)))
	}

	return m.Eval(pair.Car(args), where)
}

// Substitute returns the expression a promise carries, for promise
// bindings in the current frame; other symbols and expressions pass
// through unchanged.
func (m *machine) sSubstitute(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	c := pair.Car(args)

	if sym.Is(c) {
		if b := e.Local(sym.To(c)); b != nil {
			if p, ok := b.Get().(*promise.T); ok {
				code := p.Code()
				if bc, ok := code.(*bcode.T); ok {
					return bc.Expr()
				}

				return code
			}
		}
	}

	return c
}

func (m *machine) sDelayedAssign(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	name := m.Force(m.Eval(pair.Car(args), e))

	s := sym.New(vec.To(name).Strings()[0])
	e.Define(s, promise.New(pair.Cadr(args), e))

	m.visible = false

	return pair.Null
}

func (m *machine) sRecall(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	ctx := m.contexts.Find(context.Function, e)
	if ctx == nil || ctx.Call() == pair.Null {
		panic(cond.Error("Recall called from outside a closure", call))
	}

	return m.Eval(pair.Lang1(pair.Car(ctx.Call()), args), e)
}

// Namespace access without namespaces: pkg::name looks the name up in
// the base environment first and the global chain second.
func (m *machine) sNamespace(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	name := pair.Cadr(args)

	var s *sym.T

	switch {
	case sym.Is(name):
		s = sym.To(name)
	case vec.IsKind(name, vec.Character):
		s = sym.New(vec.To(name).Strings()[0])
	default:
		panic(cond.Error("invalid name in namespace lookup", call))
	}

	if b := m.base.Lookup(s); b != nil {
		return m.Force(b.Get())
	}

	return m.lookup(s, e)
}

func (m *machine) sTilde(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return call
}

func (m *machine) bForce(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return pair.Car(args)
}

func (m *machine) bSignalCondition(
	ip prim.Interp, call, args cell.I, e *env.T,
) cell.I {
	c := pair.Car(args)
	if !cond.Is(c) {
		panic(cond.Error("invalid condition", call))
	}

	m.Signal(cond.To(c))

	return pair.Null
}

func (m *machine) bGlobalenv(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return m.global
}

func (m *machine) bBaseenv(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return m.base
}

func (m *machine) bParentFrame(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	n := 1
	if args != pair.Null {
		n = int(scalarInt(call, pair.Car(args)))
	}

	frame := e

	for ; n > 0; n-- {
		ctx := m.contexts.Find(context.Function, frame)
		if ctx == nil {
			return m.global
		}

		frame = ctx.Sysparent()

		// A dispatched method's caller is the frame the generic was
		// called from, not the dispatch machinery.
		if g := ctx.GenericSysparent(); g != nil {
			frame = g
		}
	}

	return frame
}

func (m *machine) bMakeActiveBinding(
	ip prim.Interp, call, args cell.I, e *env.T,
) cell.I {
	name := pair.Car(args)

	var s *sym.T

	switch {
	case sym.Is(name):
		s = sym.To(name)
	case vec.IsKind(name, vec.Character):
		s = sym.New(vec.To(name).Strings()[0])
	default:
		panic(cond.Error("invalid binding name", call))
	}

	fn := pair.Cadr(args)
	if !closure.Is(fn) && !prim.Is(fn) {
		panic(cond.Error("makeActiveBinding requires a function", call))
	}

	where := e
	if rest := pair.Cddr(args); rest != pair.Null {
		where = env.To(pair.Car(rest))
	}

	b := binding.New(fn)
	b.SetActive(fn)
	where.DefineBinding(s, b)

	m.visible = false

	return pair.Null
}

func (m *machine) bSysCall(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	ctx := m.contexts.Find(context.Function, e)
	if ctx == nil {
		return pair.Null
	}

	return ctx.Call()
}

// Truthy interprets a value as the single condition of if or while.
func (m *machine) truthy(call, c cell.I) (result bool) {
	v := m.Force(c)

	t, ok := v.(truth.I)
	if !ok {
		panic(cond.Error("argument is not interpretable as logical", call))
	}

	defer func() {
		if r := recover(); r != nil {
			panic(cond.Error(fmt.Sprint(r), call))
		}
	}()

	return t.Bool()
}

func scalarInt(call, c cell.I) int32 {
	v, ok := c.(*vec.T)
	if !ok || v.Len() < 1 {
		panic(cond.Error("invalid argument", call))
	}

	switch v.Kind() {
	case vec.Integer:
		return v.Integers()[0]
	case vec.Double:
		return int32(v.Reals()[0])
	case vec.Logical:
		return int32(v.Logicals()[0])
	}

	panic(cond.Error("invalid argument", call))
}
