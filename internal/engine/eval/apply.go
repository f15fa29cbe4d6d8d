// Released under an MIT license. See LICENSE.

package eval

import (
	"strings"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/binding"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/closure"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/promise"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/engine/context"
	"github.com/rho-lang/rho/internal/engine/vm"
)

// A tailcall is the record a Tailcall or Exec call leaves behind: the
// current frame is replaced rather than stacked.
type tailcall struct {
	fn   *closure.T
	call cell.I
	args cell.I // Promise pairlist; nil for an Exec record.
	expr cell.I // Exec only.
	env  *env.T // Exec only.
}

// Never a user value; identifies the record through the jump.
func (t *tailcall) Equal(c cell.I) bool { return c == cell.I(t) }
func (t *tailcall) Name() string        { return "tailcall" }

// ApplyClosure applies a user-defined function: match arguments into
// a fresh frame, push a function context, and run the body, looping
// when the body replaces itself with a tail call.
func (m *machine) applyClosure(
	fn *closure.T, call, promargs cell.I, e *env.T,
) cell.I {
	var expr cell.I

	var frame *env.T

	for {
		var body cell.I

		if fn != nil {
			if m.jit != nil {
				m.jit.Consider(fn)
			}

			frame = env.New(fn.Env())
			m.matchArgs(fn.Formals(), promargs, frame, call)

			body = fn.Body()
		} else {
			// An Exec record: the expression runs directly in its
			// environment as the frame's new body.
			body = expr
		}

		kind := context.Function
		if m.dispatchFrom != nil {
			kind |= context.Generic
		}

		ctx := context.New(kind, call, frame, e)
		if m.dispatchFrom != nil {
			ctx.SetGenericSysparent(m.dispatchFrom)
			m.dispatchFrom = nil
		}

		m.contexts.Push(ctx)

		result := m.runBody(body, ctx, frame)

		m.runOnExit(ctx, frame)
		m.contexts.Pop(ctx)

		tc, ok := result.(*tailcall)
		if !ok {
			return result
		}

		fn, call, promargs = tc.fn, tc.call, tc.args

		expr = tc.expr
		if tc.env != nil {
			frame = tc.env
		}
	}
}

// RunBody evaluates a frame's body, catching returns (and tail calls)
// aimed at this frame.
func (m *machine) runBody(
	body cell.I, ctx *context.T, frame *env.T,
) (result cell.I) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		j, ok := r.(*context.Jump)
		if !ok || j.Target != ctx {
			m.safeOnExit(ctx, frame)

			panic(r)
		}

		m.contexts.Truncate(ctx)

		result = j.Value
	}()

	if bc, ok := body.(*bcode.T); ok {
		return m.RunCode(bc, frame, ctx)
	}

	return m.Eval(body, frame)
}

// RunCode executes a bytecode object, falling back to the tree walker
// when the code's version does not match.
func (m *machine) RunCode(code *bcode.T, e *env.T, ctx *context.T) cell.I {
	if code.Version() != bcode.Version {
		return m.Eval(code.Expr(), e)
	}

	return vm.Run(m, code, e, ctx)
}

func (m *machine) runOnExit(ctx *context.T, frame *env.T) {
	for _, expr := range ctx.OnExit() {
		if expr != nil {
			m.Eval(expr, frame)
		}
	}
}

// SafeOnExit runs exit expressions during an unwind; a failure inside
// one must not mask the original condition.
func (m *machine) safeOnExit(ctx *context.T, frame *env.T) {
	defer func() {
		_ = recover()
	}()

	m.contexts.Truncate(ctx)
	m.contexts.Pop(ctx)
	m.runOnExit(ctx, frame)
}

// MatchArgs binds supplied arguments to formals: exact tag matches
// first, then unique partial matches, then positional filling, with
// everything left over gathered by "...".
//
//nolint:gocognit,gocyclo,funlen
func (m *machine) matchArgs(formals, supplied cell.I, frame *env.T, call cell.I) {
	type slot struct {
		name  *sym.T
		dflt  cell.I
		value cell.I
		tag   cell.I
	}

	slots := []*slot{}
	dotsAt := -1

	for f := formals; f != pair.Null; f = pair.Cdr(f) {
		name := sym.To(pair.Tag(f))
		if name == sym.Dots {
			dotsAt = len(slots)
		}

		slots = append(slots, &slot{name: name, dflt: pair.Car(f)})
	}

	type arg struct {
		tag  *sym.T
		v    cell.I
		used bool
	}

	args := []*arg{}

	for a := supplied; a != pair.Null; a = pair.Cdr(a) {
		var tag *sym.T
		if t := pair.Tag(a); t != nil {
			tag = sym.To(t)
		}

		args = append(args, &arg{tag: tag, v: pair.Car(a)})
	}

	// Exact matches.
	for _, a := range args {
		if a.tag == nil {
			continue
		}

		for _, s := range slots {
			if s.name == a.tag && s.name != sym.Dots {
				if s.value != nil {
					panic(cond.Error("formal argument \""+
						s.name.String()+"\" matched by multiple actual arguments", call))
				}

				s.value = a.v
				a.used = true

				break
			}
		}
	}

	// Partial matches, only for formals before "...".
	for _, a := range args {
		if a.tag == nil || a.used {
			continue
		}

		var hit *slot

		limit := len(slots)
		if dotsAt >= 0 {
			limit = dotsAt
		}

		for _, s := range slots[:limit] {
			if s.value != nil || s.name == sym.Dots {
				continue
			}

			if strings.HasPrefix(s.name.String(), a.tag.String()) {
				if hit != nil {
					panic(cond.Error("argument "+a.tag.String()+
						" matches multiple formal arguments", call))
				}

				hit = s
			}
		}

		if hit != nil {
			hit.value = a.v
			a.used = true
		}
	}

	// Positional filling up to "...".
	next := 0

	for _, a := range args {
		if a.used || a.tag != nil {
			continue
		}

		for next < len(slots) &&
			(slots[next].value != nil || slots[next].name == sym.Dots) {
			if slots[next].name == sym.Dots {
				break
			}

			next++
		}

		if next >= len(slots) || slots[next].name == sym.Dots {
			break
		}

		slots[next].value = a.v
		a.used = true
		next++
	}

	// Everything unused is gathered by "...", or is an error.
	var dots *appender

	for _, a := range args {
		if a.used {
			continue
		}

		if dotsAt < 0 {
			panic(cond.Error(
				"unused argument ("+unusedLabel(a.tag, a.v)+")", call))
		}

		if dots == nil {
			dots = &appender{}
		}

		var t cell.I
		if a.tag != nil {
			t = a.tag
		}

		dots.emit(t, a.v)
	}

	for _, s := range slots {
		switch {
		case s.name == sym.Dots:
			if dots != nil {
				frame.Define(sym.Dots, dots.list())
			} else {
				b := frame.Define(sym.Dots, sym.Missing)
				b.SetMissing(binding.MissingArg)
			}
		case s.value != nil:
			frame.Define(s.name, s.value)
		case s.dflt != cell.I(sym.Missing):
			b := frame.Define(s.name, promise.New(s.dflt, frame))
			b.SetMissing(binding.DefaultedArg)
		default:
			b := frame.Define(s.name, sym.Missing)
			b.SetMissing(binding.MissingArg)
		}
	}
}

func unusedLabel(tag *sym.T, v cell.I) string {
	label := ""
	if tag != nil {
		label = tag.String() + " = "
	}

	if p, ok := v.(*promise.T); ok {
		v = p.Code()
	}

	if bc, ok := v.(*bcode.T); ok {
		v = bc.Expr()
	}

	return label + deparseShort(v)
}

func deparseShort(c cell.I) string {
	if c == nil {
		return ""
	}

	if s, ok := c.(interface{ String() string }); ok {
		return s.String()
	}

	return c.Name()
}
