// Released under an MIT license. See LICENSE.

// Package eval provides the tree-walking evaluator: the machine that
// gives every expression its value. The bytecode interpreter and the
// compile policy both hang off this machine; the evaluator is always
// the fallback when they bow out.
package eval

import (
	"fmt"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
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
	"github.com/rho-lang/rho/internal/engine/jit"
	"github.com/rho-lang/rho/internal/system/interrupt"
)

// Polling and recursion limits.
const (
	pollEvery = 1000
	maxDepth  = 5000
)

// T (eval) is the interpreter state: the environment tower, the
// context stack, condition handlers, and collected warnings.
type T struct {
	base   *env.T
	global *env.T

	contexts context.Stack
	handlers []handler

	warnings []*cond.T

	jit *jit.Policy

	// Caller environment of an in-flight method dispatch; consumed by
	// the next closure application.
	dispatchFrom *env.T

	depth   int
	steps   int
	visible bool
}

type machine = T

type handler struct {
	classes []string
	fn      cell.I
	calling bool
	owner   *context.T
}

// New creates a machine with a fresh base and global environment.
func New() *T {
	m := &machine{visible: true}

	m.base = env.New(nil)
	base.Install(m.base)
	m.installSpecials()

	m.global = env.New(m.base)

	return m
}

// Base returns the base environment.
func (m *machine) Base() *env.T {
	return m.base
}

// Global returns the global environment.
func (m *machine) Global() *env.T {
	return m.global
}

// SetPolicy installs the compile policy consulted when closures are
// applied. A nil policy disables compilation.
func (m *machine) SetPolicy(p *jit.Policy) {
	m.jit = p
}

// EvalTop evaluates one top-level expression, reporting the value,
// whether it should print, and any uncaught condition.
func (m *machine) EvalTop(expr cell.I) (result cell.I, visible bool, err *cond.T) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if j, ok := r.(*context.Jump); ok && j.Target == nil {
			result, visible = j.Value, false

			return
		}

		m.contexts.Truncate(nil)
		m.depth = 0

		err = asCondition(r)
	}()

	m.visible = true

	if m.jit != nil {
		if compiled := m.jit.Top(expr, m.global); compiled != nil {
			return m.RunCode(compiled, m.global, nil), m.visible, nil
		}
	}

	return m.Eval(expr, m.global), m.visible, nil
}

// Eval evaluates expr in e.
//
//nolint:gocognit,gocyclo
func (m *machine) Eval(expr cell.I, e *env.T) cell.I {
	m.steps++
	if m.steps >= pollEvery {
		m.steps = 0

		if interrupt.Requested() {
			panic(cond.New("", nil, "interrupt"))
		}

		m.sampleProfile()
	}

	m.depth++

	defer func() { m.depth-- }()

	if m.depth > maxDepth {
		panic(cond.Error(
			"evaluation nested too deeply: infinite recursion?", nil))
	}

	switch {
	case sym.Is(expr):
		return m.lookup(sym.To(expr), e)
	case promise.Is(expr):
		return m.Force(expr)
	case pair.IsLang(expr):
		return m.call(expr, e)
	case bcode.Is(expr):
		return m.RunCode(bcode.To(expr), e, nil)
	}

	// Everything else is self-evaluating.
	return expr
}

func (m *machine) lookup(s *sym.T, e *env.T) cell.I {
	if s == sym.Missing {
		panic(cond.Error("argument is missing, with no default", nil))
	}

	if n, ok := sym.DotDotN(s); ok {
		return m.dotDotN(n, e)
	}

	_, b := e.Find(s)
	if b == nil {
		panic(cond.Error("object '"+s.String()+"' not found", nil))
	}

	if b.Active() {
		return m.Apply(b.Fn(), nil, pair.Null, e)
	}

	v := b.Get()
	if v == cell.I(sym.Missing) {
		panic(cond.Error(
			"argument \""+s.String()+"\" is missing, with no default", nil))
	}

	if promise.Is(v) {
		return m.Force(v)
	}

	if w, ok := v.(*vec.T); ok {
		w.Bump()
	}

	return v
}

func (m *machine) dotDotN(n int, e *env.T) cell.I {
	_, b := e.Find(sym.Dots)
	if b == nil {
		panic(cond.Error(".."+fmt.Sprint(n)+" used in an incorrect context", nil))
	}

	dots := b.Get()

	for i := 1; i < n && dots != pair.Null && dots != cell.I(sym.Missing); i++ {
		dots = pair.Cdr(dots)
	}

	if dots == pair.Null || dots == cell.I(sym.Missing) {
		panic(cond.Error(
			fmt.Sprintf("the ... list does not contain %d elements", n), nil))
	}

	return m.Force(pair.Car(dots))
}

func (m *machine) call(expr cell.I, e *env.T) cell.I {
	head := pair.Car(expr)

	var fn cell.I
	if sym.Is(head) {
		fn = m.FindFunction(sym.To(head), e, expr)
	} else {
		fn = m.Force(m.Eval(head, e))
	}

	switch {
	case prim.Is(fn):
		p := prim.To(fn)
		if p.IsSpecial() {
			return p.Apply(m, expr, pair.Cdr(expr), e)
		}

		m.visible = true

		return p.Apply(m, expr, m.EvalArgs(pair.Cdr(expr), e), e)
	case closure.Is(fn):
		m.visible = true

		return m.applyClosure(
			closure.To(fn), expr, m.PromiseArgs(pair.Cdr(expr), e), e)
	}

	panic(cond.Error("attempt to apply non-function", expr))
}

// FindFunction finds the value of s in the chain starting at e,
// skipping bindings whose value is not callable.
func (m *machine) FindFunction(s *sym.T, e *env.T, call cell.I) cell.I {
	for scan := e; scan != nil && scan != env.Empty; scan = scan.Enclosing() {
		b := scan.Local(s)
		if b == nil {
			continue
		}

		v := b.Get()
		if promise.Is(v) {
			v = m.Force(v)
		}

		if closure.Is(v) || prim.Is(v) {
			return v
		}
	}

	panic(cond.Error("could not find function \""+s.String()+"\"", call))
}

// Apply applies fn to args under call. Closure arguments that are not
// already promises are wrapped as forced promises.
func (m *machine) Apply(fn, call, args cell.I, e *env.T) cell.I {
	switch {
	case prim.Is(fn):
		p := prim.To(fn)
		if p.IsSpecial() {
			return p.Apply(m, call, args, e)
		}

		return p.Apply(m, call, m.forceArgs(args), e)
	case closure.Is(fn):
		b := &appender{}

		for a := args; a != pair.Null; a = pair.Cdr(a) {
			v := pair.Car(a)
			if !promise.Is(v) && v != cell.I(sym.Missing) {
				v = promise.Forced(v, v)
			}

			b.emit(pair.Tag(a), v)
		}

		return m.applyClosure(closure.To(fn), call, b.list(), e)
	}

	panic(cond.Error("attempt to apply non-function", call))
}

// ApplyMethod applies a function selected by dispatch. The frame it
// pushes is marked Generic and remembers the dispatching caller, so
// parent.frame sees through the dispatch machinery.
func (m *machine) ApplyMethod(fn, call, args cell.I, e *env.T) cell.I {
	m.dispatchFrom = e

	defer func() { m.dispatchFrom = nil }()

	return m.Apply(fn, call, args, e)
}

// EvalArgs evaluates an argument pairlist left to right, splicing
// "..." and preserving tags.
func (m *machine) EvalArgs(args cell.I, e *env.T) cell.I {
	b := &appender{}

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		c := pair.Car(a)

		if c == cell.I(sym.Dots) {
			for d := m.dots(e); d != pair.Null; d = pair.Cdr(d) {
				b.emit(pair.Tag(d), m.Force(pair.Car(d)))
			}

			continue
		}

		if c == cell.I(sym.Missing) {
			b.emit(pair.Tag(a), c)

			continue
		}

		b.emit(pair.Tag(a), m.Force(m.Eval(c, e)))
	}

	return b.list()
}

// PromiseArgs wraps an argument pairlist in promises over e, splicing
// "..." (whose elements are already promises).
func (m *machine) PromiseArgs(args cell.I, e *env.T) cell.I {
	b := &appender{}

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		c := pair.Car(a)

		switch {
		case c == cell.I(sym.Dots):
			for d := m.dots(e); d != pair.Null; d = pair.Cdr(d) {
				b.emit(pair.Tag(d), pair.Car(d))
			}
		case c == cell.I(sym.Missing):
			b.emit(pair.Tag(a), c)
		case selfEvaluating(c):
			b.emit(pair.Tag(a), promise.Forced(c, c))
		default:
			b.emit(pair.Tag(a), promise.New(c, e))
		}
	}

	return b.list()
}

func (m *machine) dots(e *env.T) cell.I {
	_, b := e.Find(sym.Dots)
	if b == nil {
		panic(cond.Error("'...' used in an incorrect context", nil))
	}

	dots := b.Get()
	if dots == cell.I(sym.Missing) || dots == cell.I(sym.Unbound) {
		return pair.Null
	}

	return dots
}

func (m *machine) forceArgs(args cell.I) cell.I {
	b := &appender{}

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		b.emit(pair.Tag(a), m.Force(pair.Car(a)))
	}

	return b.list()
}

// Force forces c if it is a promise and returns its value. A promise
// already being forced is a cycle; one whose forcing was interrupted
// restarts with a warning.
func (m *machine) Force(c cell.I) cell.I {
	p, ok := c.(*promise.T)
	if !ok {
		return c
	}

	if p.IsForced() {
		return p.Value()
	}

	switch p.Seen() {
	case promise.Forcing:
		panic(cond.Error("promise already under evaluation: recursive "+
			"default argument reference or earlier problems?", nil))
	case promise.Interrupted:
		m.Warningf(nil, "restarting interrupted promise evaluation")
	}

	p.SetSeen(promise.Forcing)

	done := false

	defer func() {
		if !done {
			p.SetSeen(promise.Interrupted)
		}
	}()

	v := m.Force(m.Eval(p.Code(), p.Env()))

	done = true

	p.Fulfill(v)

	return v
}

// Visible controls whether the current top-level result prints.
func (m *machine) Visible(on bool) {
	m.visible = on
}

// Errorf raises an evaluation error.
func (m *machine) Errorf(call cell.I, format string, args ...interface{}) {
	panic(cond.Error(fmt.Sprintf(format, args...), call))
}

// Warningf signals a warning condition. A matching exiting handler
// unwinds to its tryCatch; calling handlers run in place; otherwise
// the warning is collected for the top level.
func (m *machine) Warningf(call cell.I, format string, args ...interface{}) {
	m.Signal(cond.Warning(fmt.Sprintf(format, args...), call))
}

// Signal delivers a condition to the handler stack.
func (m *machine) Signal(c *cond.T) {
	for i := len(m.handlers) - 1; i >= 0; i-- {
		h := m.handlers[i]

		if !matchesHandler(h, c) {
			continue
		}

		if !h.calling {
			panic(c)
		}

		// A calling handler must not see itself.
		saved := m.handlers
		m.handlers = m.handlers[:i]

		m.Apply(h.fn, nil, pair.Cons(c, pair.Null), m.global)

		m.handlers = saved
	}

	if c.Is("warning") {
		m.warnings = append(m.warnings, c)
	}
}

// Warnings returns and clears the collected warnings.
func (m *machine) Warnings() []*cond.T {
	w := m.warnings
	m.warnings = nil

	return w
}

// CheckInterrupt polls for a pending user interrupt. The bytecode
// interpreter calls it on back-branches; profile samples piggyback on
// the same safe point.
func (m *machine) CheckInterrupt() {
	if interrupt.Requested() {
		panic(cond.New("", nil, "interrupt"))
	}

	m.sampleProfile()
}

func matchesHandler(h handler, c *cond.T) bool {
	for _, class := range h.classes {
		if c.Is(class) {
			return true
		}
	}

	return false
}

func asCondition(r interface{}) *cond.T {
	switch v := r.(type) {
	case *cond.T:
		return v
	case error:
		return cond.FromError(v, nil)
	case string:
		return cond.Error(v, nil)
	}

	panic(r)
}

func selfEvaluating(c cell.I) bool {
	if sym.Is(c) || promise.Is(c) {
		return false
	}

	if pair.Is(c) && c != pair.Null {
		return false
	}

	return true
}

// An appender builds a pairlist front to back.
type appender struct {
	head cell.I
	tail cell.I
}

func (b *appender) emit(tag, v cell.I) {
	p := pair.ConsTagged(tag, v, pair.Null)

	if b.head == nil {
		b.head, b.tail = p, p

		return
	}

	pair.SetCdr(b.tail, p)
	b.tail = p
}

func (b *appender) list() cell.I {
	if b.head == nil {
		return pair.Null
	}

	return b.head
}
